package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"warcalendar/backend/internal/auth"
	"warcalendar/backend/internal/database"
	"warcalendar/backend/internal/handler"
	"warcalendar/backend/internal/hub"
	"warcalendar/backend/internal/metrics"
	"warcalendar/backend/internal/router"
	"warcalendar/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		gin.SetMode(cfg.GinMode)

		if err := database.Connect(cfg, logger); err != nil {
			return err
		}
		defer database.Close()

		verifier := auth.NewVerifier(cfg)
		h := handler.New(
			store.NewTagStore(database.DB),
			store.NewEventStore(database.DB),
			hub.NewHub(),
			verifier,
			cfg.JWTTTL,
			logger,
		)
		engine := router.New(h, verifier, metrics.New(), logger)

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.HTTPAddr).Msg("server is running")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
