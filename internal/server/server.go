// Package server exposes the attestation issuer over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/lenda-labs/uid-signer/internal/metrics"
)

// requestTimeout bounds a single request, including the registry round trip.
const requestTimeout = 30 * time.Second

type Options struct {
	Addr           string
	AllowedOrigins []string
	Info           Info

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Metrics  metrics.Recorder
	Logger   *zap.Logger
}

type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New builds the router and an http.Server around it. Nothing listens until
// ListenAndServe or Serve is called.
func New(issuer Issuer, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoOpMetrics()
	}

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           otelhttp.NewHandler(NewRouter(NewHandler(issuer, opts.Info, opts.Logger), opts), "uid-signer.http"),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: opts.Logger,
	}
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(opts.Logger, opts.Metrics))
	r.Use(Recovery(opts.Logger))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(middleware.Timeout(requestTimeout))

	h.Register(r)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.http.Shutdown(ctx)
}
