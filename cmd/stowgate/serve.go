package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/config"
	stowhttp "github.com/sagarc03/stowgate/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the stowgate HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")
	serveCmd.Flags().String("cache-backend", "", "response cache: memory, database, none (default: memory)")
	serveCmd.Flags().String("s3-bucket", "", "bucket served by the s3 backend")
	serveCmd.Flags().String("s3-endpoint", "", "S3 endpoint host[:port]")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.close()

	var responseCache stowhttp.Cache
	if store := b.cacheStore(cfg); store != nil {
		responseCache = cache.New(store, cache.Config{
			DefaultTTL:   cfg.Cache.DefaultTTL,
			MaxEntrySize: cfg.Cache.MaxEntrySize,
		})
		go cache.RunJanitor(ctx, store, cfg.Cache.JanitorInterval)
	}

	handler := stowhttp.NewHandler(&stowhttp.HandlerConfig{
		CORS:              cfg.CORS,
		VaryHeaders:       cfg.Cache.VaryHeaders,
		MaxCacheEntrySize: cfg.Cache.MaxEntrySize,
		CacheWriteTimeout: cfg.Cache.WriteTimeout,
		MaxPendingWrites:  cfg.Cache.MaxPendingWrites,
	}, b.store, responseCache)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		if err := handler.Wait(shutdownCtx); err != nil {
			slog.Warn("pending cache writes abandoned", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server",
		"addr", addr,
		"store", cfg.Store.Backend,
		"cache", cfg.Cache.Backend,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}
