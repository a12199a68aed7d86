package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codeofhonor/glassbridge/internal/config"
	"github.com/codeofhonor/glassbridge/internal/device"
	"github.com/codeofhonor/glassbridge/internal/relay"
	"github.com/codeofhonor/glassbridge/internal/server"
	"github.com/codeofhonor/glassbridge/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("GLASSBRIDGE_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("GLASSBRIDGE_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// In-memory relay state: queue, registry, live stream broker.
	queue := relay.NewQueue(cfg.Relay.QueueCapacity)
	registry := relay.NewRegistry(cfg.Relay.HistoryLimit)
	broker := relay.NewBroker()
	defer broker.Close()

	// Device transport: a cloud websocket client when configured, a
	// logging no-op otherwise.
	var (
		displayer    relay.Displayer = device.NopDisplayer{}
		deviceClient *device.Client
	)
	if cfg.Device.WSURL != "" && cfg.Device.APIKey != "" {
		deviceClient = device.NewClient(cfg.Device.WSURL, cfg.Device.APIKey, cfg.Device.PackageName)
		displayer = deviceClient
	}

	svc := relay.NewService(queue, registry, broker, displayer, cfg.Relay.PollLimitMax, cfg.Relay.DisplayTimeout)

	// Prepare embedded dashboard assets (strip "static/" prefix).
	dashboardAssets, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return fmt.Errorf("dashboard assets: %w", err)
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, svc, broker, dashboardAssets)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Str("package", cfg.Device.PackageName).Msg("starting server")
		return srv.Start(gctx)
	})

	if deviceClient != nil {
		g.Go(func() error {
			if runErr := deviceClient.Run(gctx, svc); runErr != nil {
				// The relay keeps serving webhook ingest and polling
				// without the cloud connection.
				log.Warn().Err(runErr).Msg("device connection lost")
			}
			return nil
		})
	}

	// Block until shutdown signal.
	<-gctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	if waitErr := g.Wait(); waitErr != nil {
		return waitErr
	}

	log.Info().Msg("stopped")
	return nil
}
