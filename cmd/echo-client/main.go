package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"netecho/internal/echo"
	"netecho/internal/shared/config"
	"netecho/internal/shared/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to an optional ini config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] <server-ip> [port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configFile, err)
		os.Exit(1)
	}

	addr, err := echo.ServerAddr(flag.Args(), cfg.ServerConf.Port)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(255)
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	payload := []byte(cfg.EchoClientConf.Payload)
	client := echo.NewClient(addr, cfg.EchoClientConf.Timeout())
	got, err := client.Exchange(ctx, payload)
	match := err == nil && bytes.Equal(got, payload)
	logger.Info().
		Str("server", addr).
		Int("sent", len(payload)).
		Int("received", len(got)).
		Bool("match", match).
		Msg("Echo exchange finished")
	if err != nil {
		logger.Error().Err(err).Str("server", addr).Msg("Echo failed")
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Echo reply : %s\n", strings.ToValidUTF8(string(got), "\uFFFD"))
	if !match {
		os.Exit(1)
	}
}
