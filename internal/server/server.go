// Package server provides the HTTP API for linkhoard: bookmark CRUD, file
// import with live progress over WebSocket, search and export.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/service"
)

// Server bundles the HTTP API with its service dependencies.
type Server struct {
	cfg       config.Config
	bookmarks *service.Bookmarks
	importer  *service.ImportService
	enricher  *service.Enricher
	queue     *service.IndexQueue
	search    *service.SearchService
	collector *metrics.Collector
	logger    *slog.Logger
	hub       *progressHub

	http *http.Server
}

// Deps holds the collaborators the server is constructed from. Queue may be
// nil when semantic search is disabled.
type Deps struct {
	Bookmarks *service.Bookmarks
	Importer  *service.ImportService
	Enricher  *service.Enricher
	Queue     *service.IndexQueue
	Search    *service.SearchService
	Collector *metrics.Collector
	Logger    *slog.Logger
}

// New creates the HTTP server. Import progress is forwarded to WebSocket
// subscribers from the moment the server is constructed.
func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		bookmarks: deps.Bookmarks,
		importer:  deps.Importer,
		enricher:  deps.Enricher,
		queue:     deps.Queue,
		search:    deps.Search,
		collector: deps.Collector,
		logger:    logger,
		hub:       newProgressHub(logger),
	}

	s.importer.Subscribe(func(state service.ImportState) {
		s.hub.broadcast(progressEvent{Kind: "import", Import: &state})
	})

	// Enriched bookmarks flow straight into the indexing queue, and the
	// enrichment progress is mirrored to WebSocket subscribers.
	s.enricher.OnEnriched(func(id string) {
		if s.queue != nil {
			s.queue.Enqueue(context.Background(), id, false)
		}
		p := s.enricher.Progress()
		s.hub.broadcast(progressEvent{Kind: "enrich", Enrich: &p})
	})

	mux := http.NewServeMux()
	s.routes(mux)

	s.http = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // imports and backfills can be slow
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("GET /bookmarks", s.handleListBookmarks)
	mux.HandleFunc("POST /bookmarks", s.handleCreateBookmark)
	mux.HandleFunc("GET /bookmarks/{id}", s.handleGetBookmark)
	mux.HandleFunc("PATCH /bookmarks/{id}", s.handleUpdateBookmark)
	mux.HandleFunc("DELETE /bookmarks/{id}", s.handleDeleteBookmark)

	mux.HandleFunc("GET /folders", s.handleListFolders)
	mux.HandleFunc("POST /folders", s.handleCreateFolder)
	mux.HandleFunc("DELETE /folders/{id}", s.handleDeleteFolder)

	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)

	mux.HandleFunc("POST /index/backfill", s.handleBackfill)
	mux.HandleFunc("POST /index/pause", s.handlePause)
	mux.HandleFunc("POST /index/resume", s.handleResume)

	mux.HandleFunc("GET /ws/progress", s.handleProgressSocket)
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
