package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/use-of-proceeds/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the table over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()

			if cmd.Flags().Changed("addr") {
				env.conf.Server.Address = address
			}
			serverConfig, err := server.NewConfig(env.conf.Server)
			if err != nil {
				return fmt.Errorf("invalid server configuration: %w", err)
			}

			grid, err := env.openGrid()
			if err != nil {
				return err
			}
			projectLoans, err := env.loadLoans()
			if err != nil {
				return err
			}
			session := server.NewSession(grid, projectLoans, env.logger)

			srv := &http.Server{
				Addr:         serverConfig.Address,
				Handler:      server.NewHandler(env.logger, session, serverConfig.BodySizeBytes(), version),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, srv, env.logger)
		},
	}

	cmd.Flags().StringVar(&address, "addr", "", "listen address override, e.g. :8080")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			zap.String("op", "main.runServer"),
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server",
		zap.String("op", "main.runServer"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
