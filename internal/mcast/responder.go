package mcast

import (
	"context"
	"net"
	"strconv"

	"github.com/rs/zerolog"

	"netecho/internal/echo"
	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
	"netecho/internal/sockopt"
)

// Responder joins a multicast group and echoes every datagram it receives
// back to the sender as a unicast reply.
type Responder struct {
	group      net.IP
	port       int
	ifaceName  string
	bufferSize int
	loopback   bool

	ifi      *net.Interface
	conn     net.PacketConn
	log      zerolog.Logger
	counters shared.Counters
}

// NewResponder builds a responder from the [mcast] config section.
func NewResponder(cfg types.McastConf) (*Responder, error) {
	target, err := ParseTarget(cfg.Group, strconv.Itoa(cfg.Port))
	if err != nil {
		return nil, err
	}
	if !target.Group.IsMulticast() {
		return nil, errors.New(errors.KindArgs, target.Group.String(), " is not a multicast address")
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = types.DefaultMcastBufSize
	}
	return &Responder{
		group:      target.Group,
		port:       target.Port,
		ifaceName:  cfg.Interface,
		bufferSize: bufferSize,
		loopback:   cfg.Loopback,
		log:        logger.WithComponent("mcast-responder"),
	}, nil
}

// Listen binds 0.0.0.0:<port> with address reuse and joins the group.
func (r *Responder) Listen(ctx context.Context) (net.Addr, error) {
	if r.ifaceName != "" {
		ifi, err := net.InterfaceByName(r.ifaceName)
		if err != nil {
			return nil, errors.New(errors.KindSocketConfig, "unknown interface ", r.ifaceName).Base(err)
		}
		r.ifi = ifi
	}

	lc := net.ListenConfig{Control: sockopt.ReuseAddrControl}
	listenAddr := net.JoinHostPort(types.DefaultBindAddress, strconv.Itoa(r.port))
	conn, err := lc.ListenPacket(ctx, "udp4", listenAddr)
	if err != nil {
		return nil, errors.New(errors.KindSocketConfig, "failed to listen on ", listenAddr).Base(err)
	}

	if err := sockopt.JoinGroup(conn, r.ifi, r.group); err != nil {
		conn.Close()
		return nil, err
	}
	if err := sockopt.SetMulticastLoopback(conn, r.loopback); err != nil {
		conn.Close()
		return nil, err
	}

	r.conn = conn
	r.log.Info().
		Str("group", r.group.String()).
		Str("listen_addr", conn.LocalAddr().String()).
		Str("interface", r.ifaceName).
		Msg("Joined multicast group")
	return conn.LocalAddr(), nil
}

// Serve echoes datagrams until ctx is cancelled or a fatal error occurs,
// then leaves the group and closes the socket.
func (r *Responder) Serve(ctx context.Context) error {
	if r.conn == nil {
		return errors.New(errors.KindSocketConfig, "Serve called before Listen")
	}
	defer r.conn.Close()

	err := echo.ServePackets(ctx, r.conn, r.bufferSize, &r.counters, r.log)
	if ctx.Err() == nil {
		// the socket is still open only when we stopped on our own error
		if lerr := sockopt.LeaveGroup(r.conn, r.ifi, r.group); lerr != nil {
			r.log.Debug().Err(lerr).Msg("Leave group failed")
		}
	}

	snap := r.counters.Snapshot()
	r.log.Info().Uint64("datagrams", snap.Units).Msg("Multicast responder stopped")
	return err
}

// Stats returns datagrams answered and bytes echoed.
func (r *Responder) Stats() shared.CounterSnapshot {
	return r.counters.Snapshot()
}
