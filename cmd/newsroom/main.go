package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsroom/internal/config"
	"newsroom/internal/server"
	"newsroom/internal/store"
	"newsroom/internal/upload"
	"newsroom/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger  *zap.Logger
	cfg     *config.Config
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "newsroom",
	Short: "newsroom - articles and administrators over HTTP",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}

		if cfg.System.IsProd {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		if err != nil {
			return err
		}

		store.SetRedisLogger(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and the import worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var articles store.ArticleStore
		redisStore, err := store.NewRedisArticleStore(cfg.Database.ArticlesURL)
		if err != nil {
			logger.Error("Articles database unavailable", zap.Error(err))
			articles = store.UnavailableArticleStore{Err: err}
		} else {
			defer redisStore.Close()
			if err := redisStore.Ping(ctx); err != nil {
				logger.Error("Articles database unreachable", zap.Error(err))
			}
			articles = redisStore
		}

		var admins store.AdminStore
		if badgerStore, err := store.NewBadgerAdminStore(cfg.Database.AdminsPath); err != nil {
			logger.Error("Admins database unavailable", zap.String("path", cfg.Database.AdminsPath), zap.Error(err))
			admins = store.UnavailableAdminStore{Err: err}
		} else {
			defer badgerStore.Close()
			go badgerStore.RunGC(ctx)
			admins = badgerStore
		}

		var objects upload.ObjectStore
		r2, err := upload.NewR2Store(ctx, upload.R2Config{
			AccountID:    cfg.Storage.AccountID,
			AccessKey:    cfg.Storage.AccessKey,
			AccessSecret: cfg.Storage.AccessSecret,
			Bucket:       cfg.Storage.Bucket,
			PublicURL:    cfg.Storage.PublicURL,
		})
		if err != nil {
			logger.Warn("Image uploads disabled", zap.Error(err))
			objects = upload.UnavailableObjectStore{Err: err}
		} else {
			objects = r2
		}

		srv := server.NewServer(articles, admins, objects, logger,
			server.WithNullNotFound(cfg.System.NullNotFound),
			server.WithUploadFolder(cfg.Storage.Folder),
		)

		workerDone := make(chan struct{})
		if redisStore != nil {
			w := worker.NewWorker(redisStore, redisStore, logger)
			go func() {
				w.Start(ctx)
				close(workerDone)
			}()
		} else {
			close(workerDone)
		}

		go func() {
			if err := srv.Start(server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Web server failed", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
		<-workerDone

		logger.Info("Goodbye!")
	},
}

var importCmd = &cobra.Command{
	Use:   "import [url]",
	Short: "Queue a URL to be imported as an article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url := args[0]

		// Only Redis is touched here, so a running server keeps its Badger lock.
		articles, err := store.NewRedisArticleStore(cfg.Database.ArticlesURL)
		if err != nil {
			logger.Fatal("Invalid articles database URL", zap.Error(err))
		}
		defer articles.Close()

		if err := articles.EnqueueImport(cmd.Context(), url); err != nil {
			logger.Fatal("Failed to queue import", zap.Error(err))
		}

		logger.Info("Import queued", zap.String("url", url))
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored if missing)")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
