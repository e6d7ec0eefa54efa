package shared

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountedConn(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	var counters Counters
	conn := NewCountedConn(a, &counters)

	go func() {
		buf := make([]byte, 4)
		n, _ := b.Read(buf)
		b.Write(buf[:n])
	}()

	_, err := conn.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(4), snap.BytesOut)
	assert.Equal(t, uint64(n), snap.BytesIn)
}

func TestCountedPacketConn(t *testing.T) {
	server, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()
	client, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	var counters Counters
	counted := NewCountedPacketConn(server, &counters)

	_, err = client.WriteTo([]byte{0xff, 0xfe, 0x00}, server.LocalAddr())
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, from, err := counted.ReadFrom(buf)
	require.NoError(t, err)
	_, err = counted.WriteTo(buf[:n], from)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, CounterSnapshot{Units: 1, BytesIn: 3, BytesOut: 3}, snap)
}

func TestThreadSafeBuffer_Lines(t *testing.T) {
	b := NewThreadSafeBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Write([]byte("Timeout\n"))
		}()
	}
	wg.Wait()
	b.Write([]byte("partial"))

	assert.Len(t, b.Lines(), 10)
	assert.Equal(t, 10, b.Count("Timeout"))
	assert.Equal(t, 10*len("Timeout\n")+len("partial"), b.Len())
	assert.Nil(t, NewThreadSafeBuffer().Lines())
}
