// Package web serves the console page over plain HTTP without Grafana.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sabio/subsurface-console/pkg/view"
	"golang.org/x/time/rate"
)

const (
	defaultAddr            = ":8080"
	defaultCleanupInterval = time.Minute
	shutdownTimeout        = 5 * time.Second
	healthTimeout          = 3 * time.Second
)

// Backend is the platform API as the server uses it
type Backend interface {
	view.API
	Health(ctx context.Context) error
}

// Config holds the server settings
type Config struct {
	Addr               string
	Registry           view.RegistryConfig
	CleanupInterval    time.Duration
	AutoRefreshSeconds int
	RequestLogging     bool
	Version            string

	// Page opens allowed per second and burst. Zero disables the limit.
	OpenRateRPS   float64
	OpenRateBurst int
}

// Server is the standalone console server
type Server struct {
	echo     *echo.Echo
	backend  Backend
	registry *view.Registry
	config   Config
	logger   log.Logger
	limiter  *rate.Limiter

	// Lifetime of queries started from form posts. A redirect ends the
	// request long before the backend answers.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server and registers its routes
func New(b Backend, config Config, logger log.Logger) *Server {
	if config.Addr == "" {
		config.Addr = defaultAddr
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaultCleanupInterval
	}
	if logger == nil {
		logger = log.DefaultLogger
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		echo:     echo.New(),
		backend:  b,
		registry: view.NewRegistry(b, config.Registry, logger),
		config:   config,
		logger:   logger,
		limiter:  newOpenLimiter(config),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = ErrorHandler

	s.echo.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("Handler panic", "path", c.Request().URL.Path, "error", err, "stack", string(stack))
			return err
		},
	}))
	if config.RequestLogging {
		s.echo.Use(requestLogger(logger))
	}

	s.registerRoutes()
	return s
}

func newOpenLimiter(config Config) *rate.Limiter {
	if config.OpenRateRPS <= 0 || config.OpenRateBurst <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(config.OpenRateRPS), config.OpenRateBurst)
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/", s.handleOpenPage, noCache)

	pages := s.echo.Group("/pages/:id", noCache)
	pages.GET("", s.handlePage)
	pages.GET("/state", s.handleState)
	pages.POST("/query", s.handleQuery)
	pages.POST("/refresh", s.handleRefresh)
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Registry returns the open pages
func (s *Server) Registry() *view.Registry {
	return s.registry
}

// Run serves until ctx is done, then shuts down and abandons in-flight
// queries
func (s *Server) Run(ctx context.Context) error {
	defer s.cancel()

	go s.registry.Run(s.ctx, s.config.CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Console listening", "addr", s.config.Addr, "version", s.config.Version)
		errCh <- s.echo.Start(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down console")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Close abandons in-flight queries and stops page cleanup
func (s *Server) Close() {
	s.cancel()
}
