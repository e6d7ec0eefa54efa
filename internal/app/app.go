// Package app wires the echo listeners together and owns their lifecycle.
package app

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"netecho/internal/echo"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
)

const statsInterval = 30 * time.Second

// EchoApp runs the TCP echo server and, when udp_port is set, the UDP one.
type EchoApp struct {
	cfg *types.Config
	tcp *echo.Server
	udp *echo.UDPServer

	// StatsInterval controls the periodic counters log; zero disables it.
	StatsInterval time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewEchoApp creates the servers described by cfg without binding anything.
func NewEchoApp(cfg *types.Config) *EchoApp {
	a := &EchoApp{
		cfg:           cfg,
		tcp:           echo.NewServer(cfg.ServerConf),
		StatsInterval: statsInterval,
	}
	if cfg.ServerConf.UDPPort > 0 {
		a.udp = echo.NewUDPServer(cfg.ServerConf)
	} else {
		logger.Info().Msg("UDP echo is disabled.")
	}
	return a
}

// Listen binds every enabled socket. Nothing is left open on failure.
func (a *EchoApp) Listen() error {
	if _, err := a.tcp.Listen(); err != nil {
		return err
	}
	if a.udp != nil {
		if _, err := a.udp.Listen(); err != nil {
			a.tcp.Shutdown()
			return err
		}
	}
	return nil
}

// TCPAddr returns the bound TCP address, or nil before Listen.
func (a *EchoApp) TCPAddr() net.Addr {
	return a.tcp.Addr()
}

// Run serves until ctx is cancelled, Stop is called, or a server fails.
// The first server error cancels the others.
func (a *EchoApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.tcp.Serve(gctx)
	})
	if a.udp != nil {
		g.Go(func() error {
			return a.udp.Serve(gctx)
		})
	}
	if a.StatsInterval > 0 {
		g.Go(func() error {
			a.statsLoop(gctx)
			return nil
		})
	}

	err := g.Wait()
	a.logStats("Echo servers stopped")
	return err
}

func (a *EchoApp) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(a.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.logStats("Echo stats")
		}
	}
}

func (a *EchoApp) logStats(msg string) {
	tcp := a.Stats()
	e := logger.Info().
		Uint64("tcp_connections", tcp.Connections).
		Uint64("tcp_bytes_in", tcp.BytesIn).
		Uint64("tcp_bytes_out", tcp.BytesOut)
	if a.udp != nil {
		udp := a.udp.Stats()
		e = e.Uint64("udp_datagrams", udp.Connections).Uint64("udp_bytes_out", udp.BytesOut)
	}
	e.Msg(msg)
}

// Stats returns the TCP server counters.
func (a *EchoApp) Stats() echo.Stats {
	return a.tcp.Stats()
}

// Stop asks a running Run to return. Safe to call more than once.
func (a *EchoApp) Stop() {
	a.stopOnce.Do(func() {
		a.mu.Lock()
		cancel := a.cancel
		a.mu.Unlock()
		if cancel != nil {
			cancel()
			return
		}
		a.tcp.Shutdown()
	})
}
