package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
)

// Server is an HTTP server with lifecycle management.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger logger.Logger
	config Config
}

// Options configures New.
type Options struct {
	Config       Config
	Logger       logger.Logger
	HealthChecks []HealthCheck
	// Routes registers service routes after the standard middleware and /health.
	Routes func(router *gin.Engine)
}

// New creates a Server with recovery, request ID, request logging and CORS middleware applied
// in that order.
func New(opts Options) *Server {
	cfg := opts.Config.withDefaults()

	setMode(cfg.Debug)

	router := gin.New()
	router.Use(RecoveryMiddleware(opts.Logger))
	router.Use(RequestIDMiddleware(opts.Logger))
	router.Use(LoggerMiddleware(opts.Logger))
	router.Use(CORSMiddleware(cfg.CORSOrigins, cfg.CORSMaxAge))

	RegisterHealthRoutes(router, cfg.ServiceName, cfg.ServiceVersion, time.Now(), opts.HealthChecks)
	if opts.Routes != nil {
		opts.Routes(router)
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: opts.Logger,
		config: cfg,
	}
}

// gin's mode is process-wide, so only the first server decides it.
var modeOnce sync.Once

func setMode(debug bool) {
	modeOnce.Do(func() {
		if debug {
			gin.SetMode(gin.DebugMode)
			return
		}
		gin.SetMode(gin.ReleaseMode)
	})
}

// Router returns the underlying Gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		logger.String("address", s.server.Addr),
		logger.String("service", s.config.ServiceName),
		logger.String("version", s.config.ServiceVersion),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", logger.Duration("timeout", s.config.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	//nolint:contextcheck // ctx is already cancelled; shutdown needs its own deadline
	return s.Shutdown(context.Background())
}
