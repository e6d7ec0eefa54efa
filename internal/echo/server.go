package echo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
)

// Server accepts TCP connections and answers each one with a single echo,
// followed by a short pause and an abortive close.
type Server struct {
	cfg      types.ServerConf
	log      zerolog.Logger
	listener net.Listener
	counters shared.Counters

	// ctx is cancelled by Shutdown to unblock sessions still waiting for data.
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	// mu orders waitGroup.Add against the Wait in Shutdown.
	mu           sync.Mutex
	shuttingDown bool
	waitGroup    sync.WaitGroup
	done      chan struct{}
}

// Stats summarises the work done by a server.
type Stats struct {
	Connections uint64
	BytesIn     uint64
	BytesOut    uint64
}

func NewServer(cfg types.ServerConf) *Server {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = types.DefaultReadBufferSize
	}
	if cfg.MaxEchoBytes <= 0 {
		cfg.MaxEchoBytes = types.DefaultMaxEchoBytes
	}
	if cfg.BindAddress == "" {
		cfg.BindAddress = types.DefaultBindAddress
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		log:    logger.WithComponent("tcp-echo"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Listen binds the listening socket without blocking and returns its address.
// Port 0 picks an ephemeral port.
func (s *Server) Listen() (net.Addr, error) {
	listenAddr := net.JoinHostPort(s.cfg.BindAddress, fmt.Sprint(s.cfg.Port))
	listener, err := net.Listen("tcp4", listenAddr)
	if err != nil {
		return nil, errors.New(errors.KindSocketConfig, "failed to listen on ", listenAddr).Base(err)
	}
	s.listener = listener
	s.log.Info().Str("listen_addr", listener.Addr().String()).Msg("Serving")
	return listener.Addr(), nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled or Shutdown is called.
// It returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New(errors.KindSocketConfig, "Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if isClosed(err) {
				<-s.done
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.log.Warn().Err(err).Msg("Accept timed out")
				continue
			}
			s.log.Error().Err(err).Msg("Accept failed")
			s.Shutdown()
			return errors.New(errors.KindRuntime, "accept failed").Base(err)
		}
		if !s.track() {
			conn.Close()
			continue
		}
		s.counters.Units.Add(1)
		go s.handleConnection(conn)
	}
}

// track registers a new session unless Shutdown has already started.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.waitGroup.Add(1)
	return true
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.waitGroup.Done()
	newSession(conn, s.cfg, &s.counters, s.log).run(s.ctx)
}

// Shutdown stops accepting, waits for in-flight sessions to finish their
// close sequence (bounded by ShutdownWait), then releases the listener.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		defer close(s.done)
		s.mu.Lock()
		s.shuttingDown = true
		s.mu.Unlock()
		if s.listener != nil {
			s.listener.Close()
		}

		finished := make(chan struct{})
		go func() {
			s.waitGroup.Wait()
			close(finished)
		}()

		wait := s.cfg.ShutdownWait()
		if wait <= 0 {
			wait = time.Duration(types.DefaultShutdownWaitMS) * time.Millisecond
		}

		// Sessions blocked on read have nothing in flight; wake them up.
		s.cancel()
		select {
		case <-finished:
		case <-time.After(wait):
			s.log.Warn().Dur("waited", wait).Msg("Sessions still running after shutdown wait")
		}

		st := s.Stats()
		s.log.Info().
			Uint64("connections", st.Connections).
			Uint64("bytes_in", st.BytesIn).
			Uint64("bytes_out", st.BytesOut).
			Msg("Echo server has been shut down")
	})
}

// Stats returns the counters accumulated so far.
func (s *Server) Stats() Stats {
	snap := s.counters.Snapshot()
	return Stats{Connections: snap.Units, BytesIn: snap.BytesIn, BytesOut: snap.BytesOut}
}

func isClosed(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
