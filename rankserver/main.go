package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, errs := Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			bootLog.Error().Err(err).Msg("invalid configuration")
		}
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to build logger")
	}

	server, err := NewRankServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize rank server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("rank server stopped")
	}
	logger.Info().Msg("rank server shut down")
}
