package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/market-ar/market/internal/appraisal"
	"github.com/market-ar/market/internal/handlers"
	"github.com/market-ar/market/internal/selection"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local listings API",
		Long: `Starts a local HTTP API over the listing catalog.

It serves filtered and sorted listings, the current selection and the
recently seen list, and LLM-drafted listing suggestions.`,
		Example: `  # Start server on the configured port (8888 by default)
  market serve

  # Start server on custom port
  market serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.ServePort
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			var appraiser handlers.Appraiser
			provider, model, err := appraisal.NewProvider(a.cfg.Provider)
			if err != nil {
				slog.Warn("Suggestions disabled", "provider", a.cfg.Provider, "err", err)
			} else {
				if a.cfg.Model != "" {
					model = a.cfg.Model
				}
				appraiser = appraisal.NewService(provider, model)
			}

			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			handler := handlers.New(store, selection.New(), appraiser)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Router(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Market API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (defaults to config serve_port)")

	return cmd
}
