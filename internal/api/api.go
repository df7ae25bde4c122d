// Package api implements the HTTP host for the rendering engine.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/abedge/internal/config/server"
	"github.com/jonesrussell/abedge/internal/domain"
	"github.com/jonesrussell/abedge/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second // Timeout for reading headers

	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Renderer applies experiments to HTML.
type Renderer interface {
	ProcessHTML(markup string, experiments []domain.ExperimentData) string
}

// Params holds the dependencies of the router.
type Params struct {
	Logger   logger.Interface
	Renderer Renderer
	Config   *server.Config
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(p Params) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(p.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if p.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/render", handleRender(p.Renderer, p.Config.MaxBodyBytes))

	return router
}

// NewServer creates the HTTP server for the router.
func NewServer(p Params) *http.Server {
	return &http.Server{
		Addr:              p.Config.Address,
		Handler:           SetupRouter(p),
		ReadTimeout:       p.Config.ReadTimeout,
		WriteTimeout:      p.Config.WriteTimeout,
		IdleTimeout:       p.Config.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// requestIDMiddleware reuses the caller's request id or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a middleware that logs HTTP requests
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.WithRequestID(c.GetString(requestIDKey)).Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
