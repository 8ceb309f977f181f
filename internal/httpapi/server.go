package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/LdDl/pose-go/internal/config"
	"github.com/LdDl/pose-go/internal/logger"
	"github.com/LdDl/pose-go/pipeline"
	"github.com/gin-gonic/gin"
)

// Server exposes the pose pipeline and the standalone smoother over HTTP
type Server struct {
	config     config.ServerConfig
	export     config.ExportConfig
	defaults   pipeline.Options
	cache      *pipeline.Cache
	logger     *logger.Logger
	router     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates the server. defaults are the pipeline options requests start from;
// pipelines are taken from cache.
func NewServer(cfg *config.Config, defaults pipeline.Options, cache *pipeline.Cache, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(bodyLimit(cfg.Server.MaxBodyBytes))

	s := &Server{
		config:    cfg.Server,
		export:    cfg.Export,
		defaults:  defaults,
		cache:     cache,
		logger:    log,
		router:    router,
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/mappings/:profile", s.handleMapping)
		api.POST("/process", s.handleProcess)
		api.POST("/smooth", s.handleSmooth)
		api.POST("/export/skeleton", s.handleExportSkeleton)
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// ginLogger logs each request at debug level
func ginLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// bodyLimit caps request bodies; decoding a larger body fails with 400
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
