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

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Belphemur/CueLoop/internal/bridge"
	"github.com/Belphemur/CueLoop/internal/cache"
	"github.com/Belphemur/CueLoop/internal/config"
	"github.com/Belphemur/CueLoop/internal/intercept"
	"github.com/Belphemur/CueLoop/internal/metrics"
	"github.com/Belphemur/CueLoop/internal/player"
	"github.com/Belphemur/CueLoop/internal/prefs"
	"github.com/Belphemur/CueLoop/internal/scheduler"
	"github.com/Belphemur/CueLoop/internal/session"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge, the control scheduler and the metrics endpoint",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.GetConfig()
	logger := config.GetLogger()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialise Sentry, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payloads, err := cache.NewPayloadCache(cfg)
	if err != nil {
		return fmt.Errorf("create payload cache: %w", err)
	}
	defer func() {
		if err := payloads.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close payload cache")
		}
	}()

	coord := session.NewCoordinator(session.Options{Preferences: prefs.Load(cfg.Preferences.Path)})
	remote := player.NewRemotePlayer(intercept.VideoID)
	feed := intercept.NewFeed(intercept.NewMatcherFromConfig(cfg), payloads, coord)
	routes := bridge.NewServer(coord, remote, feed, cfg.Bridge.RateLimit, cfg.Bridge.Burst).Routes()
	sched := scheduler.New(remote, coord, scheduler.OptionsFromConfig(cfg))

	logger.Info().
		Str("server_address", cfg.Server.Address).
		Int("server_port", cfg.Server.Port).
		Str("cache_provider", cfg.Cache.Provider).
		Str("preferences", cfg.Preferences.Path).
		Msg("Application started with configuration")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		return serveHTTP(gctx, "bridge", bridge.NewHTTPServer(cfg.Server.Address, cfg.Server.Port, routes))
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveHTTP(gctx, "metrics", metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port))
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	logger.Info().Msg("Server stopped gracefully")
	return nil
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, name string, srv *http.Server) error {
	logger := config.GetLogger()
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("server", name).Str("address", srv.Addr).Msg("Starting HTTP server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server: %w", name, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown %s server: %w", name, err)
		}
		return nil
	}
}
