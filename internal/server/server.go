package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/metrics"
	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

// maxRequestBodySize bounds verification request bodies.
const maxRequestBodySize = 64 << 10

// Server exposes the verifier over HTTP.
type Server struct {
	addr     string
	client   *walletverify.Client
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	server   *http.Server
}

// New creates a server. m and gatherer are optional; without a gatherer the
// /metrics endpoint is not registered.
func New(addr string, client *walletverify.Client, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:     addr,
		client:   client,
		metrics:  m,
		gatherer: gatherer,
		logger:   logger,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/verify", s.instrument("/api/v1/verify", handleVerify(s.client, s.logger)))
	mux.Handle("GET /api/v1/wallets", s.instrument("/api/v1/wallets", handleListWallets(s.client)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func (s *Server) instrument(name string, h http.Handler) http.Handler {
	if s.metrics == nil {
		return h
	}
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.addr),
		zap.Strings("wallets", s.client.Registry().SupportedWallets()),
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server. A server shut down before Start
// never serves.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
