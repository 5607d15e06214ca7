package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/cjeanneret/UVCam/internal/debug"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server for addr serving the embedded UI.
func NewServer(addr string, deps Deps) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("web: static fs: %w", err)
	}
	return &Server{
		addr:     addr,
		handlers: NewHandlers(deps, subFS),
	}, nil
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	h := s.handlers
	mux := http.NewServeMux()

	mux.HandleFunc("GET /config", h.HandleConfig)
	mux.HandleFunc("GET /video_feed", h.HandleVideoFeed)
	mux.HandleFunc("GET /ws", h.HandleWebSocket)
	mux.HandleFunc("GET /controls", h.HandleControls)
	mux.HandleFunc("GET /controls/{name}", h.HandleGetControl)
	mux.HandleFunc("POST /controls/{name}", h.HandleSetControl)
	mux.HandleFunc("POST /fps", h.HandleSetFPS)
	mux.HandleFunc("GET /lamp", h.HandleGetLamp)
	mux.HandleFunc("POST /lamp", h.HandleSetLamp)
	mux.HandleFunc("GET /timelapse", h.HandleTimelapseStatus)
	mux.HandleFunc("POST /timelapse", h.HandleTimelapse)
	mux.HandleFunc("GET /status/stream", h.HandleStatusStream)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	mux.HandleFunc("GET /{$}", h.ServeIndex) // exact match for root only

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
// Open streams and a running timelapse are stopped on shutdown.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.handlers.ctx = runCtx

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.handlers.Broadcaster.Close)

	errCh := make(chan error, 1)
	go func() {
		debug.Info("Web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		debug.Info("Web server shutting down")
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	}
}
