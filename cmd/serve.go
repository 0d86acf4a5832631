package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mixspace/internal/server"
)

// Serve runs the HTTP API until interrupted.
//
// The enrichment workers share the server's lifetime; queued tracks are
// dropped at shutdown rather than delaying it.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	stack, err := r.buildStack()
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack.enricher.Start(ctx)
	defer stack.enricher.Stop()

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger), server.RecoverMiddleware(r.logger))

	api := server.NewAPI(stack.managers, stack.importer, stack.scorer, stack.playlists, stack.tracks, stack.itunes, r.logger)
	api.Register(router)

	addr := r.config.Server.Addr()
	if port := cmd.Int("port"); port > 0 {
		addr = fmt.Sprintf("%s:%d", r.config.Server.Host, port)
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting mixspace API", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
