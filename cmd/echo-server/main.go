package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netecho/internal/app"
	"netecho/internal/shared/config"
	"netecho/internal/shared/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to an optional ini config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configFile, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	echoApp := app.NewEchoApp(cfg)
	if err := echoApp.Listen(); err != nil {
		logger.Fatal().Err(err).Msg("Echo server failed to initialize listener")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := echoApp.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Echo server stopped with error")
	}
	logger.Info().Msg("Echo server exited cleanly")
}
