package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"wavepipe/internal/config"
	"wavepipe/internal/download"
	"wavepipe/internal/history"
	"wavepipe/internal/infocache"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
	"wavepipe/internal/metadata"
	"wavepipe/internal/preflight"
)

// Downloader is the orchestration the handlers drive.
type Downloader interface {
	Fetch(ctx context.Context, req media.Request) (*download.Download, error)
	Describe(ctx context.Context, url string) (metadata.Result, error)
}

// Ledger records finished requests.
type Ledger interface {
	Record(ctx context.Context, entry history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options carries the collaborators of a Server. Downloader is required.
type Options struct {
	Downloader Downloader
	Cache      infocache.Cache
	// History is optional; nil disables /api/history and request recording.
	History Ledger
	// Health produces the /health report; nil reports ready with no checks.
	Health func(ctx context.Context) preflight.Report
	Logger *slog.Logger
}

// Server is the HTTP front end of the proxy.
type Server struct {
	bind            string
	shutdownTimeout time.Duration
	admissionWait   time.Duration
	token           string

	downloader Downloader
	cache      infocache.Cache
	history    Ledger
	health     func(ctx context.Context) preflight.Report
	logger     *slog.Logger
	policy     media.HostPolicy

	slots     *semaphore.Weighted
	infoGroup singleflight.Group

	handler http.Handler
}

// New wires the router from configuration.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config required")
	}
	if opts.Downloader == nil {
		return nil, errors.New("server: downloader required")
	}
	cache := opts.Cache
	if cache == nil {
		cache = infocache.Nop{}
	}
	s := &Server{
		bind:            strings.TrimSpace(cfg.Server.Bind),
		shutdownTimeout: cfg.ShutdownTimeout(),
		admissionWait:   cfg.AdmissionWait(),
		token:           strings.TrimSpace(cfg.Server.APIToken),
		downloader:      opts.Downloader,
		cache:           cache,
		history:         opts.History,
		health:          opts.Health,
		logger:          logging.NewComponentLogger(opts.Logger, "server"),
		policy:          media.HostPolicy{Hosts: cfg.Server.AllowedHosts},
	}
	if n := cfg.Server.MaxConcurrentDownloads; n > 0 {
		s.slots = semaphore.NewWeighted(int64(n))
	}
	s.handler = s.routes(cfg)
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured bind address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.bind, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then shuts
// down gracefully. In-flight downloads get shutdown_timeout to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("http server listening", logging.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}
