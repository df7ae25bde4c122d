// Package httpd implements the HTTP server command for the rendering engine.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/abedge/cmd/common"
	"github.com/jonesrussell/abedge/internal/api"
	"github.com/jonesrussell/abedge/internal/logger"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
)

// Command returns the httpd command for use in the root command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the rendering HTTP server",
		Long: `Start the HTTP server that renders posted HTML for posted experiments.

Endpoints:
  GET  /health          liveness probe
  GET  /metrics         Prometheus metrics
  POST /api/v1/render   {"html": "...", "experiments": [...]} -> {"html": "..."}
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Start(cmd.Context())
		},
	}
}

// Start starts the HTTP server and runs until interrupted.
// It handles graceful shutdown on SIGINT or SIGTERM signals.
func Start(ctx context.Context) error {
	// Phase 1: Load config and create logger
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Phase 2: Create metrics registry and processor
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	proc, err := deps.NewProcessor(reg)
	if err != nil {
		return err
	}

	// Phase 3: Start HTTP server
	if !deps.Config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(api.Params{
		Logger:   deps.Logger,
		Renderer: proc,
		Config:   deps.Config.Server,
		Gatherer: reg,
	})
	errChan := startHTTPServer(deps.Logger, server)

	// Phase 4: Run server until interrupted
	return runServerUntilInterrupt(ctx, deps.Logger, server, deps.Config.Server.ShutdownTimeout, errChan)
}

// startHTTPServer starts server in a goroutine and returns its error channel.
func startHTTPServer(log logger.Interface, server *http.Server) chan error {
	log.Info("Starting HTTP server", "addr", server.Addr)

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()
	return errChan
}

// runServerUntilInterrupt runs the server until interrupted by signal, context
// cancellation or a server error.
func runServerUntilInterrupt(
	ctx context.Context,
	log logger.Interface,
	server *http.Server,
	shutdownTimeout time.Duration,
	errChan chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case serverErr := <-errChan:
		log.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		log.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down")
	}

	return shutdownServer(log, server, shutdownTimeout)
}

// shutdownServer performs graceful shutdown of the server.
func shutdownServer(log logger.Interface, server *http.Server, timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
