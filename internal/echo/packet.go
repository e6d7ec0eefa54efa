package echo

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
)

// ServePackets echoes every datagram read from conn back to its source until
// ctx is cancelled or a fatal socket error occurs. Receive timeouts are not
// fatal. conn is closed when ctx is cancelled.
func ServePackets(ctx context.Context, conn net.PacketConn, bufferSize int, counters *shared.Counters, l zerolog.Logger) error {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	counted := shared.NewCountedPacketConn(conn, counters)
	buf := make([]byte, bufferSize)
	for {
		n, from, err := counted.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || isClosed(err) {
				return nil
			}
			if errors.IsTimeout(err) {
				continue
			}
			return errors.New(errors.KindRuntime, "receive failed").Base(err)
		}

		l.Debug().Str("from", from.String()).Str("data", describe(buf[:n])).Msg("Datagram received")

		if _, err := counted.WriteTo(buf[:n], from); err != nil {
			if ctx.Err() != nil || isClosed(err) {
				return nil
			}
			return errors.New(errors.KindRuntime, "send to ", from.String(), " failed").Base(err)
		}
	}
}

// UDPServer is the datagram flavour of the echo server.
type UDPServer struct {
	cfg      types.ServerConf
	log      zerolog.Logger
	conn     net.PacketConn
	counters shared.Counters
}

func NewUDPServer(cfg types.ServerConf) *UDPServer {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = types.DefaultReadBufferSize
	}
	if cfg.BindAddress == "" {
		cfg.BindAddress = types.DefaultBindAddress
	}
	return &UDPServer{
		cfg: cfg,
		log: logger.WithComponent("udp-echo"),
	}
}

// Listen binds the UDP socket on udp_port.
func (s *UDPServer) Listen() (net.Addr, error) {
	listenAddr := net.JoinHostPort(s.cfg.BindAddress, fmt.Sprint(s.cfg.UDPPort))
	conn, err := net.ListenPacket("udp4", listenAddr)
	if err != nil {
		return nil, errors.New(errors.KindSocketConfig, "failed to listen on ", listenAddr).Base(err)
	}
	s.conn = conn
	s.log.Info().Str("listen_addr", conn.LocalAddr().String()).Msg("Serving")
	return conn.LocalAddr(), nil
}

// Serve echoes datagrams until ctx is cancelled.
func (s *UDPServer) Serve(ctx context.Context) error {
	if s.conn == nil {
		return errors.New(errors.KindSocketConfig, "Serve called before Listen")
	}
	defer s.conn.Close()

	err := ServePackets(ctx, s.conn, s.cfg.BufferSize, &s.counters, s.log)
	snap := s.counters.Snapshot()
	s.log.Info().
		Uint64("datagrams", snap.Units).
		Uint64("bytes_out", snap.BytesOut).
		Msg("UDP echo server has been shut down")
	return err
}

// Stats returns the counters accumulated so far; Connections counts datagrams.
func (s *UDPServer) Stats() Stats {
	snap := s.counters.Snapshot()
	return Stats{Connections: snap.Units, BytesIn: snap.BytesIn, BytesOut: snap.BytesOut}
}
