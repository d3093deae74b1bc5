// Package api provides the HTTP server for BrandDiscovery.
//
// It exposes JSON endpoints to start a session, submit messages and rapid-fire
// answers, amend identified values and finalize a session, plus public
// deliverable pages and Prometheus metrics. Handlers delegate to
// flow.SessionService.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BTreeMap/BrandDiscovery/internal/flow"
	"github.com/BTreeMap/BrandDiscovery/internal/genai"
	"github.com/BTreeMap/BrandDiscovery/internal/metrics"
	"github.com/BTreeMap/BrandDiscovery/internal/store"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultBaseURL         = "http://localhost:8080"
	DefaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr             string
	BaseURL          string
	Provider         string
	SystemPromptFile string
	ShutdownTimeout  time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithBaseURL sets the public origin used in share URLs.
func WithBaseURL(baseURL string) Option {
	return func(o *Opts) { o.BaseURL = baseURL }
}

// WithLLMProvider selects the model backend (openai, anthropic or mock).
func WithLLMProvider(provider string) Option {
	return func(o *Opts) { o.Provider = provider }
}

// WithSystemPromptFile overrides the built-in persona prompt.
func WithSystemPromptFile(path string) Option {
	return func(o *Opts) { o.SystemPromptFile = path }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownTimeout = d }
}

func buildOpts(opts []Option) Opts {
	cfg := Opts{
		Addr:            DefaultAddr,
		BaseURL:         DefaultBaseURL,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// Server routes HTTP requests to the session service.
type Server struct {
	svc *flow.SessionService
	mux *http.ServeMux
}

// NewServer creates a Server and registers its routes.
func NewServer(svc *flow.SessionService) *Server {
	s := &Server{svc: svc, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/session/start", s.startSessionHandler)
	s.mux.HandleFunc("POST /api/session/message", s.messageHandler)
	s.mux.HandleFunc("POST /api/session/rapid-fire", s.rapidFireHandler)
	s.mux.HandleFunc("POST /api/session/values", s.amendValueHandler)
	s.mux.HandleFunc("POST /api/session/complete", s.completeHandler)
	s.mux.HandleFunc("GET /api/session/{id}", s.getSessionHandler)
	s.mux.HandleFunc("GET /api/deliverable/{slug}", s.getDeliverableHandler)
	s.mux.HandleFunc("GET /deliverable/{slug}", s.deliverablePageHandler)
	s.mux.HandleFunc("GET /healthz", s.healthHandler)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run wires the store, model client and session service, then serves HTTP
// until SIGINT or SIGTERM.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	cfg := buildOpts(apiOpts)

	st, err := store.New(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("api.Run: failed to close store", "error", err)
		}
	}()

	client, err := genai.New(genai.Provider(cfg.Provider), genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize model client: %w", err)
	}

	prompt, err := flow.LoadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return err
	}

	svc := flow.NewSessionService(st, client, prompt, flow.WithBaseURL(cfg.BaseURL))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewServer(svc),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, cfg.ShutdownTimeout)
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.serve: BrandDiscovery API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("api.serve: shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
