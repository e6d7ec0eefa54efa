package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netecho/internal/mcast"
	"netecho/internal/shared/config"
	"netecho/internal/shared/logger"
)

// exitArgs matches the historical exit(-1) of the command line contract.
const exitArgs = 255

func main() {
	configFile := flag.String("config", "", "Path to an optional ini config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] <multicast-group-ip> <port>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	target, err := mcast.ParseArgs(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitArgs)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configFile, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	client, err := mcast.Dial(target, mcast.OptionsFromConf(cfg.ClientConf))
	if err != nil {
		logger.Error().Err(err).Str("target", target.String()).Msg("Failed to open client socket")
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Run(ctx, os.Stdout); err != nil {
		client.Close()
		os.Exit(1)
	}
	replies, timeouts := client.Stats()
	logger.Info().Uint64("replies", replies).Uint64("timeouts", timeouts).Msg("Client stopped")
}
