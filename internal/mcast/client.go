// Package mcast implements the multicast echo client and the multicast echo
// responder that answers it.
package mcast

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
	"netecho/internal/sockopt"
)

// Options tune a Client. Zero values fall back to the defaults.
type Options struct {
	// BindAddress is the local endpoint; empty means 0.0.0.0:<target port>.
	BindAddress string
	Payload     string
	RecvTimeout time.Duration
	BufferSize  int
}

// OptionsFromConf maps the [client] config section onto Options.
func OptionsFromConf(cfg types.ClientConf) Options {
	return Options{
		Payload:     cfg.Payload,
		RecvTimeout: cfg.RecvTimeout(),
		BufferSize:  cfg.BufferSize,
	}
}

func (o Options) withDefaults(target Target) Options {
	if o.BindAddress == "" {
		o.BindAddress = net.JoinHostPort(types.DefaultBindAddress, strconv.Itoa(target.Port))
	}
	if o.Payload == "" {
		o.Payload = types.DefaultPayload
	}
	if o.RecvTimeout <= 0 {
		o.RecvTimeout = time.Duration(types.DefaultRecvTimeoutMS) * time.Millisecond
	}
	if o.BufferSize <= 0 {
		o.BufferSize = types.DefaultBufferSize
	}
	return o
}

// Client repeatedly sends a greeting to a multicast group and reports the
// unicast replies.
type Client struct {
	target   Target
	opts     Options
	conn     net.PacketConn
	log      zerolog.Logger
	counters shared.Counters
	timeouts atomic.Uint64
}

// Reply is one datagram received in answer to a greeting.
type Reply struct {
	From net.Addr
	Data []byte
}

// Text decodes the reply as UTF-8, replacing invalid sequences.
func (r Reply) Text() string {
	return strings.ToValidUTF8(string(r.Data), "\uFFFD")
}

// Dial opens the client socket bound to the wildcard address and the target
// port, with an outbound multicast TTL of 1.
func Dial(target Target, opts Options) (*Client, error) {
	opts = opts.withDefaults(target)
	l := logger.WithComponent("mcast-client")

	// created is set once socket(2) succeeded, telling bind failures apart
	// from creation failures.
	created := false
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			created = true
			return nil
		},
	}
	conn, err := lc.ListenPacket(context.Background(), "udp4", opts.BindAddress)
	if err != nil {
		if created {
			return nil, errors.New(errors.KindSocketConfig, "failed to bind ", opts.BindAddress).Base(err)
		}
		return nil, errors.New(errors.KindSocketCreate, "failed to create socket").Base(err)
	}
	l.Info().Msg("Socket created")

	if err := sockopt.SetMulticastTTL(conn, types.DefaultMulticastTTL); err != nil {
		conn.Close()
		return nil, err
	}
	l.Info().Str("local_addr", conn.LocalAddr().String()).Msg("The sender is bound")

	return &Client{
		target: target,
		opts:   opts,
		conn:   conn,
		log:    l,
	}, nil
}

// LocalAddr returns the bound address of the client socket.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// MulticastTTL reports the outbound multicast TTL of the socket.
func (c *Client) MulticastTTL() (int, error) {
	return sockopt.MulticastTTL(c.conn)
}

// Exchange sends the greeting once and waits up to the receive timeout for
// any datagram. A timeout is returned as an error of KindTimeout.
func (c *Client) Exchange(buf []byte) (Reply, error) {
	if err := c.send(); err != nil {
		return Reply{}, err
	}
	return c.receive(buf)
}

func (c *Client) send() error {
	n, err := c.conn.WriteTo([]byte(c.opts.Payload), c.target.UDPAddr())
	if err != nil {
		return errors.New(errors.KindRuntime, "Socket Error").Base(err)
	}
	c.counters.BytesOut.Add(uint64(n))
	return nil
}

func (c *Client) receive(buf []byte) (Reply, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.RecvTimeout)); err != nil {
		return Reply{}, errors.New(errors.KindRuntime, "failed to set receive timeout").Base(err)
	}
	n, from, err := c.conn.ReadFrom(buf)
	if err != nil {
		if errors.IsTimeout(err) {
			c.timeouts.Add(1)
			return Reply{}, errors.New(errors.KindTimeout, "Timeout").Base(err)
		}
		return Reply{}, errors.New(errors.KindRuntime, "Socket Error").Base(err)
	}
	c.counters.Units.Add(1)
	c.counters.BytesIn.Add(uint64(n))
	return Reply{From: from, Data: buf[:n]}, nil
}

// Run loops forever: send, wait, print. It writes the console lines to out
// and returns nil once ctx is cancelled, or the first fatal socket error.
func (c *Client) Run(ctx context.Context, out io.Writer) error {
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, c.opts.BufferSize)
	for ctx.Err() == nil {
		if err := c.send(); err != nil {
			return c.fatal(err)
		}
		fmt.Fprintf(out, "Message sent: %s\n", c.opts.Payload)

		reply, err := c.receive(buf)
		if ctx.Err() != nil {
			return nil
		}
		if errors.IsTimeout(err) {
			fmt.Fprintln(out, "Timeout")
			continue
		}
		if err != nil {
			return c.fatal(err)
		}
		c.log.Debug().Str("from", reply.From.String()).Int("len", len(reply.Data)).Msg("Reply received")
		fmt.Fprintf(out, "Server reply : %s\n", reply.Text())
	}
	return nil
}

func (c *Client) fatal(err error) error {
	c.log.Error().Err(err).Str("target", c.target.String()).Msg("Fatal socket error")
	return err
}

// Stats returns how many greetings were answered and how many timed out.
func (c *Client) Stats() (replies, timeouts uint64) {
	return c.counters.Snapshot().Units, c.timeouts.Load()
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.conn.Close()
}
