package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/wasmserve/internal/config"
	"github.com/Kush-Singh-26/wasmserve/internal/log"
	"github.com/Kush-Singh-26/wasmserve/internal/metrics"
	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

const readHeaderTimeout = 10 * time.Second

// Server serves the files under one root with the fixed header set.
type Server struct {
	cfg     *config.Config
	fs      afero.Fs
	router  *router.Router
	metrics *metrics.ServeMetrics
	events  *Broadcaster
	dirs    http.Handler
	handler http.Handler
}

// New creates a server for fs, which must already be rooted at the
// serving root.
func New(cfg *config.Config, fs afero.Fs) *Server {
	s := &Server{
		cfg:     cfg,
		fs:      fs,
		router:  router.New(fs, router.NewLayout(cfg.Layout)),
		metrics: metrics.NewServeMetrics(),
		events:  NewBroadcaster(),
		dirs:    http.FileServer(afero.NewHttpFs(fs)),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the complete request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the request counters.
func (s *Server) Metrics() *metrics.ServeMetrics {
	return s.metrics
}

// Events returns the reload event broadcaster.
func (s *Server) Events() *Broadcaster {
	return s.events
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(decorate)
	r.Use(middleware.Recoverer)
	r.Use(s.preflight)

	if s.cfg.Features.Watch {
		r.Get(EventsPath, s.events.ServeHTTP)
		r.Head(EventsPath, s.events.ServeHTTP)
	}

	files := chi.Router(r)
	if s.cfg.Features.Compress {
		files = r.With(compress)
	}
	files.Get("/*", s.serve)
	files.Head("/*", s.serve)

	r.NotFound(s.serve)
	r.MethodNotAllowed(s.unsupported)
	return r
}

// Run prints the startup banner, then listens on the configured address
// and serves until ctx is done. A failed bind still follows the banner.
func (s *Server) Run(ctx context.Context, out io.Writer) error {
	s.printBanner(out)
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.runServer(ctx, ln, out)
}

// RunListener prints the startup banner and serves on ln until ctx is
// done, then shuts down gracefully. Operator messages go to out.
func (s *Server) RunListener(ctx context.Context, ln net.Listener, out io.Writer) error {
	s.printBanner(out)
	return s.runServer(ctx, ln, out)
}

func (s *Server) printBanner(out io.Writer) {
	PrintBanner(out, s.cfg, router.DetectBuildState(s.fs, s.router.Layout()))
}

func (s *Server) runServer(ctx context.Context, ln net.Listener, out io.Writer) error {
	layout := s.router.Layout()

	var watcher *BuildWatcher
	if s.cfg.Features.Watch {
		watcher = NewBuildWatcher(s.cfg.Server.Root, s.fs, layout, s.cfg.Timeouts.Debounce,
			func(_, _ router.BuildState) {
				s.metrics.RecordBuildEvent()
				s.events.Broadcast()
			})
		if err := watcher.Start(); err != nil {
			log.Warnw("build watcher disabled", "error", err.Error())
			watcher = nil
		}
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	httpServer.RegisterOnShutdown(s.events.Close)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	var err error
	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		_, _ = fmt.Fprintln(out, "\n🛑 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeouts.Shutdown)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Warnw("HTTP server shutdown error", "error", shutdownErr.Error())
			_ = httpServer.Close()
		}
		<-errCh
	}

	if watcher != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Warnw("build watcher close error", "error", closeErr.Error())
		}
	}
	s.events.Close()

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	_, _ = fmt.Fprintln(out, s.metrics.String())
	_, _ = fmt.Fprintln(out, "🛑 Server stopped.")
	return nil
}
