package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"netecho/internal/mcast"
	"netecho/internal/shared/config"
	"netecho/internal/shared/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to an optional ini config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] [<multicast-group-ip> <port>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configFile, err)
		os.Exit(1)
	}

	switch flag.NArg() {
	case 0:
	case 2:
		target, err := mcast.ParseArgs(flag.Args())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(255)
		}
		cfg.McastConf.Group = target.Group.String()
		cfg.McastConf.Port = target.Port
	default:
		flag.Usage()
		os.Exit(255)
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	responder, err := mcast.NewResponder(cfg.McastConf)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid multicast configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := responder.Listen(ctx); err != nil {
		logger.Fatal().Err(err).
			Str("group", cfg.McastConf.Group).
			Str("port", strconv.Itoa(cfg.McastConf.Port)).
			Msg("Multicast responder failed to start")
	}
	if err := responder.Serve(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Multicast responder stopped with error")
	}
}
