package worker

import (
	"context"
	"errors"
	"time"

	"newsroom/internal/model"
	"newsroom/internal/store"

	"github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const scrapeTimeout = 30 * time.Second

// Scraper downloads a page and extracts its readable article.
type Scraper interface {
	Scrape(url string, timeout time.Duration) (*readability.Article, error)
}

// DefaultScraper fetches pages over the network.
type DefaultScraper struct{}

func (s *DefaultScraper) Scrape(url string, timeout time.Duration) (*readability.Article, error) {
	art, err := readability.FromURL(url, timeout)
	return &art, err
}

// Worker turns queued URLs into articles.
type Worker struct {
	queue    store.ImportQueue
	articles store.ArticleStore
	logger   *zap.Logger
	scraper  Scraper
}

func NewWorker(queue store.ImportQueue, articles store.ArticleStore, logger *zap.Logger) *Worker {
	return &Worker{
		queue:    queue,
		articles: articles,
		logger:   logger,
		scraper:  &DefaultScraper{},
	}
}

// Start consumes the import queue until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Import worker started")

	for {
		url, err := w.queue.PopImport(ctx)
		if ctx.Err() != nil {
			w.logger.Info("Import worker shutting down")
			return
		}
		if errors.Is(err, store.ErrQueueEmpty) {
			continue
		} else if err != nil {
			w.logger.Error("Queue error", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		w.processJob(ctx, url)
	}
}

func (w *Worker) processJob(ctx context.Context, url string) {
	logger := w.logger.With(zap.String("url", url))
	logger.Info("Import started")

	page, err := w.scraper.Scrape(url, scrapeTimeout)
	if err != nil {
		logger.Error("Scraping failed", zap.Error(err))
		return
	}

	article := &model.Article{
		Title:   page.Title,
		Content: page.Content,
		Author:  page.Byline,
	}
	if page.Image != "" {
		image := page.Image
		article.Image = &image
	}

	if err := w.articles.Create(ctx, article); err != nil {
		logger.Error("Failed to save import", zap.Error(err))
		return
	}

	logger.Info("Import complete", zap.String("id", article.ID.String()), zap.String("title", article.Title))
}
