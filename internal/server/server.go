package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"newsroom/internal/store"
	"newsroom/internal/upload"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ListenAddr is where the API is served.
const ListenAddr = ":5000"

type Server struct {
	articles store.ArticleStore
	admins   store.AdminStore
	images   *upload.Adapter
	logger   *zap.Logger
	router   *mux.Router

	mu     sync.Mutex
	server *http.Server

	nullNotFound bool
}

type Option func(*Server)

// WithNullNotFound makes lookups of missing articles answer 200 with a null body.
func WithNullNotFound(enabled bool) Option {
	return func(s *Server) { s.nullNotFound = enabled }
}

// WithUploadFolder sets the object key prefix for uploaded images.
func WithUploadFolder(folder string) Option {
	return func(s *Server) {
		if folder != "" {
			s.images.Folder = folder
		}
	}
}

func NewServer(articles store.ArticleStore, admins store.AdminStore, objects upload.ObjectStore, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		articles: articles,
		admins:   admins,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.images = upload.NewAdapter(objects, logger, s.writeError)
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/article/{id}", s.handleGet).Methods(http.MethodGet)
	s.router.Handle("/create", s.images.Middleware(http.HandlerFunc(s.handleCreate))).Methods(http.MethodPost)
	s.router.Handle("/update/{id}", s.images.Middleware(http.HandlerFunc(s.handleUpdate))).Methods(http.MethodPut)
	s.router.HandleFunc("/delete/{id}", s.handleDelete).Methods(http.MethodDelete)
	s.router.HandleFunc("/admin", s.handleRegisterAdmin).Methods(http.MethodPost)
}

// Handler returns the router wrapped with CORS, panic recovery and request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
	)(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
		s.logger.Info("request",
			zap.String("method", p.Request.Method),
			zap.String("URI", p.URL.RequestURI()),
			zap.Int("status", p.StatusCode),
			zap.Int("size", p.Size),
		)
	})
}

// Start launches the HTTP server
func (s *Server) Start(addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.mu.Lock()
	s.server = httpServer
	s.mu.Unlock()

	s.logger.Info("Web server listening", zap.String("addr", addr))
	return httpServer.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.server
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}
