package cli

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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pair-scheduler/pkg/api"
	"pair-scheduler/pkg/clients/appsscript"
	"pair-scheduler/pkg/config"
	"pair-scheduler/pkg/services"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateRelay(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, newRelayServer(a.cfg, a.logger), a.logger)
		},
	}
}

// newRelayServer wires the Apps Script client, relay service and gin router
func newRelayServer(cfg *config.Config, logger *zap.Logger) *http.Server {
	scriptClient := appsscript.NewClient(cfg.Upstream.RosterURL, cfg.Upstream.SubmitURL, cfg.Upstream.Timeout)
	relayService := services.NewRelayService(scriptClient, logger)

	gin.SetMode(gin.ReleaseMode)
	handlers := api.NewHandlers(relayService, logger)
	router := api.NewRouter(handlers, cfg.Server.BodyLimit, logger)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is done, then drains in-flight requests
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
