package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-blobdb/pkg/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the go-blobdb HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewServer(a.provider, a.metrics, a.logger.Named("http"))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:    ":" + a.cfg.Port,
		Handler: srv.Router(),
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting go-blobdb server", "addr", httpServer.Addr, "backend", a.cfg.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		a.logger.Error("server failed to start", "error", err)
		return err
	case <-quit:
	}
	a.logger.Info("shutting down server")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
		return err
	}

	a.logger.Info("server exited")
	return nil
}
