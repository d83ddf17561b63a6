// Package server exposes the payment gate over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	x402gate "github.com/vitwit/x402gate"
	"github.com/vitwit/x402gate/catalog"
	"github.com/vitwit/x402gate/logger"
	"github.com/vitwit/x402gate/types"
)

// TokenStatusReader reads a holder's token balance and faucet state.
type TokenStatusReader interface {
	TokenStatus(ctx context.Context, holder common.Address) (*types.TokenStatus, error)
}

type Server struct {
	gate     *x402gate.Gate
	catalog  catalog.Catalog
	tokens   TokenStatusReader
	gatherer prometheus.Gatherer
	logger   logger.Logger
	config   types.ServerConfig

	engine *gin.Engine
}

type Option func(*Server)

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithTokenStatus enables GET /api/token/:address.
func WithTokenStatus(r TokenStatusReader) Option {
	return func(s *Server) {
		s.tokens = r
	}
}

// WithMetricsGatherer enables GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New builds the router. Listener settings come from the gate's config.
func New(gate *x402gate.Gate, cat catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		gate:    gate,
		catalog: cat,
		logger:  logger.NoopLogger{},
		config:  gate.Config().Server,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), RequestID(), AccessLog(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/supported", s.supported)
	s.engine.GET("/version", s.version)

	api := s.engine.Group("/api")
	api.GET("/content/:type", RequirePayment(s.gate, s.logger), s.content)
	if s.tokens != nil {
		api.GET("/token/:address", s.tokenStatus)
	}

	if s.gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler returns the router for use with httptest or a custom listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]any{"addr": s.config.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("http server shutting down", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
