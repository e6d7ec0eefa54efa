package echo

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/logger"
	"netecho/internal/shared/types"
)

// ServerAddr parses "<server-ip> [port]" into a dialable address. The port
// falls back to defaultPort.
func ServerAddr(args []string, defaultPort int) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", errors.New(errors.KindArgs, "Invalid number of arguments!")
	}
	ip := net.ParseIP(args[0]).To4()
	if ip == nil {
		return "", errors.New(errors.KindArgs, "invalid IPv4 server address: ", args[0])
	}
	port := defaultPort
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 1 || p > 65535 {
			return "", errors.New(errors.KindArgs, "invalid port: ", args[1])
		}
		port = p
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(port)), nil
}

// Client sends one payload per connection to a TCP echo server and reads
// the same number of bytes back.
type Client struct {
	addr     string
	timeout  time.Duration
	log      zerolog.Logger
	counters shared.Counters
}

func NewClient(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Duration(types.DefaultEchoClientTimeoutMS) * time.Millisecond
	}
	return &Client{
		addr:    addr,
		timeout: timeout,
		log:     logger.WithComponent("tcp-echo-client"),
	}
}

// Exchange connects, writes payload, reads until len(payload) bytes came
// back and closes. On a short echo the bytes received so far are returned
// along with the error.
func (c *Client) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp4", c.addr)
	if err != nil {
		return nil, errors.NewError("failed to connect to ", c.addr).Base(err).AtKind(errors.KindSocketConfig)
	}
	defer conn.Close()
	c.counters.Units.Add(1)
	c.log.Debug().Str("server", c.addr).Str("local_addr", conn.LocalAddr().String()).Msg("Connected")

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, errors.New(errors.KindRuntime, "failed to set deadline").Base(err)
	}

	counted := shared.NewCountedConn(conn, &c.counters)
	if _, err := counted.Write(payload); err != nil {
		return nil, c.classify("send failed", err)
	}

	got := make([]byte, len(payload))
	n, err := io.ReadFull(counted, got)
	if err != nil {
		return got[:n], c.classify("echo incomplete", err)
	}
	c.log.Debug().Int("len", n).Msg("Echo received")
	return got, nil
}

func (c *Client) classify(msg string, err error) error {
	e := errors.NewError(msg).Base(err)
	if errors.IsTimeout(err) {
		return e.AtKind(errors.KindTimeout)
	}
	return e.AtKind(errors.KindRuntime)
}

// Stats returns connections made and bytes moved.
func (c *Client) Stats() Stats {
	snap := c.counters.Snapshot()
	return Stats{Connections: snap.Units, BytesIn: snap.BytesIn, BytesOut: snap.BytesOut}
}
