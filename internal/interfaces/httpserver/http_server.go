package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/multichat/internal/config"
	"github.com/janhq/multichat/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/multichat/internal/interfaces/httpserver/routes"
)

// HTTPServer serves the streaming chat API and the operational endpoints.
type HTTPServer struct {
	cfg    *config.Config
	engine *gin.Engine
	log    zerolog.Logger
}

// New builds the gin engine and registers every route.
func New(
	cfg *config.Config,
	log zerolog.Logger,
	catalog *config.Catalog,
	routeProvider *routes.Provider,
) *HTTPServer {
	engine := newEngine(cfg, log)
	registerOpsRoutes(engine, cfg, catalog)
	routeProvider.Register(engine)

	return &HTTPServer{cfg: cfg, engine: engine, log: log}
}

// newEngine applies the middleware chain. Recovery sits right after the
// request id so a panic response still carries it.
func newEngine(cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middlewares.RequestID(),
		middlewares.Recovery(log),
		middlewares.Tracing(cfg.ServiceName),
		middlewares.Metrics(),
		middlewares.CORS(),
		middlewares.RequestLogger(log),
	)
	return engine
}

// Handler exposes the engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most ShutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
		// Streams stay open for as long as the slowest model; no write timeout.
		ReadHeaderTimeout: s.cfg.ShutdownTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("HTTP server stopped with error")
		return err
	}
	return nil
}

func registerOpsRoutes(engine *gin.Engine, cfg *config.Config, catalog *config.Catalog) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"status":  "ok",
			"models":  len(catalog.Models()),
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Ready once at least one provider is enabled.
	engine.GET("/readyz", func(c *gin.Context) {
		providers := len(catalog.Providers())
		status, state := http.StatusOK, "ready"
		if providers == 0 {
			status, state = http.StatusServiceUnavailable, "not ready"
		}
		c.JSON(status, gin.H{"status": state, "providers": providers})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
