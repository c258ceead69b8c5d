package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/adaptive-assessment-service/internal/handlers"
	"github.com/SAP-F-2025/adaptive-assessment-service/pkg"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApplication(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.close(); err != nil {
				app.logger.Error("Shutdown cleanup failed", "error", err)
			}
		}()

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := pkg.Migrate(app.db); err != nil {
				return err
			}
		}

		if err := app.wireServices(ctx); err != nil {
			return err
		}
		if err := app.settings.Watch(ctx, app.logger.Slog()); err != nil {
			app.logger.Warn("Analytics config hot reload disabled", "error", err)
		}

		authenticator, err := handlers.NewAuthenticator(app.cfg)
		if err != nil {
			return err
		}

		if app.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		hm := handlers.NewHandlerManager(app.services, authenticator, app.logger)
		router := handlers.NewRouter(hm, app.cfg.CORSAllowedOrigins, app.logger)

		srv := &http.Server{
			Addr:              ":" + app.cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			app.logger.Info("Server starting", "port", app.cfg.Port, "auth", app.cfg.AuthMode)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		app.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migrations before serving")
}
