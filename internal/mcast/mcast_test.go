package mcast

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netecho/internal/echo"
	"netecho/internal/shared"
	"netecho/internal/shared/errors"
	"netecho/internal/shared/types"
)

// freeUDPPort returns a port that was free a moment ago.
func freeUDPPort(t *testing.T) int {
	t.Helper()
	c, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer c.Close()
	return c.LocalAddr().(*net.UDPAddr).Port
}

func runClient(t *testing.T, c *Client) (*shared.ThreadSafeBuffer, context.CancelFunc, <-chan error) {
	t.Helper()
	out := shared.NewThreadSafeBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, out)
	}()
	t.Cleanup(cancel)
	return out, cancel, errCh
}

func TestParseArgs_Count(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
	}{
		{"none", nil, false},
		{"one", []string{"239.0.0.1"}, false},
		{"two", []string{"239.0.0.1", "1501"}, true},
		{"three", []string{"239.0.0.1", "1501", "extra"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseArgs(tt.args)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, "239.0.0.1:1501", target.String())
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.KindArgs, errors.KindOf(err))
			assert.Contains(t, err.Error(), "Invalid number of arguments!")
		})
	}
}

func TestParseArgs_InvalidValues(t *testing.T) {
	for _, args := range [][]string{
		{"not-an-ip", "1501"},
		{"::1", "1501"},
		{"239.0.0.1", "0"},
		{"239.0.0.1", "65536"},
		{"239.0.0.1", "port"},
	} {
		_, err := ParseArgs(args)
		assert.Equal(t, errors.KindArgs, errors.KindOf(err), "args %v", args)
	}
}

func TestDial_BindsWildcardAndTargetPort(t *testing.T) {
	port := freeUDPPort(t)
	c, err := Dial(Target{Group: net.IPv4(239, 0, 0, 1), Port: port}, Options{})
	require.NoError(t, err)
	defer c.Close()

	local := c.LocalAddr().(*net.UDPAddr)
	assert.Equal(t, port, local.Port)
	assert.True(t, local.IP.IsUnspecified())
}

func TestDial_MulticastTTLIsAlwaysOne(t *testing.T) {
	for _, group := range []net.IP{
		net.IPv4(239, 0, 0, 1),
		net.IPv4(224, 0, 0, 251),
		net.IPv4(127, 0, 0, 1),
	} {
		c, err := Dial(Target{Group: group, Port: 1501}, Options{BindAddress: "0.0.0.0:0"})
		require.NoError(t, err)
		ttl, err := c.MulticastTTL()
		require.NoError(t, err)
		assert.Equal(t, 1, ttl, "group %s", group)
		c.Close()
	}
}

func TestDial_BindFailureIsConfigError(t *testing.T) {
	busy, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, err = Dial(Target{Group: net.IPv4(239, 0, 0, 1), Port: 1501}, Options{BindAddress: busy.LocalAddr().String()})
	require.Error(t, err)
	assert.Equal(t, errors.KindSocketConfig, errors.KindOf(err))
	assert.True(t, errors.IsFatal(err))
}

func TestRun_PrintsTimeoutRepeatedlyWithoutResponder(t *testing.T) {
	target := Target{Group: net.IPv4(127, 0, 0, 1), Port: freeUDPPort(t)}
	c, err := Dial(target, Options{BindAddress: "127.0.0.1:0", RecvTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	out, cancel, errCh := runClient(t, c)

	require.Eventually(t, func() bool {
		return out.Count("Timeout") >= 3
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.NotContains(t, out.String(), "Server reply")
	assert.Equal(t, "Message sent: Hello World", out.Lines()[0])
	_, timeouts := c.Stats()
	assert.GreaterOrEqual(t, timeouts, uint64(3))
}

func TestRun_TimeoutPacing(t *testing.T) {
	target := Target{Group: net.IPv4(127, 0, 0, 1), Port: freeUDPPort(t)}
	c, err := Dial(target, Options{BindAddress: "127.0.0.1:0", RecvTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, err = c.Exchange(make([]byte, 64))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.False(t, errors.IsFatal(err))
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestRun_PrintsServerReply(t *testing.T) {
	responder, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, stopResponder := context.WithCancel(context.Background())
	defer stopResponder()
	go echo.ServePackets(ctx, responder, 1472, &shared.Counters{}, zerolog.Nop())

	addr := responder.LocalAddr().(*net.UDPAddr)
	c, err := Dial(Target{Group: addr.IP, Port: addr.Port}, Options{BindAddress: "127.0.0.1:0"})
	require.NoError(t, err)
	defer c.Close()

	out, cancel, errCh := runClient(t, c)
	require.Eventually(t, func() bool {
		return out.Count("Server reply : Hello World") >= 2
	}, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)

	replies, _ := c.Stats()
	assert.GreaterOrEqual(t, replies, uint64(2))
}

func TestRun_FatalErrorAfterClose(t *testing.T) {
	c, err := Dial(Target{Group: net.IPv4(127, 0, 0, 1), Port: 9}, Options{BindAddress: "127.0.0.1:0"})
	require.NoError(t, err)
	c.Close()

	err = c.Run(context.Background(), shared.NewThreadSafeBuffer())
	require.Error(t, err)
	assert.Equal(t, errors.KindRuntime, errors.KindOf(err))
}

func TestReply_TextReplacesInvalidUTF8(t *testing.T) {
	r := Reply{Data: []byte{'o', 'k', 0xff}}
	assert.Equal(t, "ok�", r.Text())
}

func TestNewResponder_RejectsUnicastGroup(t *testing.T) {
	_, err := NewResponder(types.McastConf{Group: "10.0.0.1", Port: 1501})
	require.Error(t, err)
	assert.Equal(t, errors.KindArgs, errors.KindOf(err))
}

func TestResponder_EchoesMulticastGreeting(t *testing.T) {
	port := freeUDPPort(t)
	cfg := types.McastConf{Group: "239.255.42.99", Port: port, Loopback: true}
	r, err := NewResponder(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := r.Listen(ctx); err != nil {
		t.Skipf("multicast not available here: %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- r.Serve(ctx) }()

	target, err := ParseTarget(cfg.Group, strconv.Itoa(port))
	require.NoError(t, err)
	c, err := Dial(target, Options{BindAddress: "0.0.0.0:0", RecvTimeout: time.Second})
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Exchange(make([]byte, 1472))
	if err != nil {
		t.Skipf("multicast route not available here: %v", err)
	}
	assert.Equal(t, "Hello World", reply.Text())

	cancel()
	require.NoError(t, <-errCh)
	assert.GreaterOrEqual(t, r.Stats().Units, uint64(1))
}
