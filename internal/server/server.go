// Package server exposes a fixpoint.Searcher over HTTP.
//
// Routes:
//
//	POST /calculate  search, {"func","max_iter","tolerance"} -> {"result": [roots]}
//	POST /analyze    search with every intermediate stage
//	POST /tool       tool call, {"tool","params"} -> ToolResponse
//	GET  /schema     tool schema for agent registration
//	GET  /health     liveness check
//	GET  /metrics    Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	fixpoint "github.com/njchilds90/gofixpoint"
	"github.com/njchilds90/gofixpoint/internal/config"
	"github.com/njchilds90/gofixpoint/internal/observability"
)

// Options configures a Server.
type Options struct {
	Config config.ServerConfig
	// RequestTimeout bounds every search. Zero means no timeout.
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// Metrics is optional; without it /metrics still serves Gatherer.
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	// Tracing enables the otelgin middleware.
	Tracing     bool
	ServiceName string
}

// Server is the HTTP front end of a Searcher.
type Server struct {
	searcher *fixpoint.Searcher
	opts     Options
	logger   *zap.Logger
	engine   *gin.Engine
	http     *http.Server
}

func New(searcher *fixpoint.Searcher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "fixpoint"
	}
	s := &Server{searcher: searcher, opts: opts, logger: opts.Logger}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:              opts.Config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		recovery(s.logger),
		requestID(),
		rateLimit(s.opts.Config.RateLimit, s.opts.Config.Burst),
		bodyLimit(s.opts.Config.MaxBodyBytes),
	)
	if s.opts.Tracing {
		r.Use(otelgin.Middleware(s.opts.ServiceName))
	}
	r.Use(accessLog(s.logger, s.opts.Metrics))

	r.POST("/calculate", s.handleCalculate)
	r.POST("/analyze", s.handleAnalyze)
	r.POST("/tool", s.handleTool)
	r.GET("/schema", s.handleSchema)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("fixpoint server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}
