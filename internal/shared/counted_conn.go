// FILE: internal/shared/counted_conn.go
package shared

import (
	"net"
	"sync/atomic"
)

// Counters 以原子方式累计收发字节数和单元数（连接或数据报）。
type Counters struct {
	Units    atomic.Uint64
	BytesIn  atomic.Uint64
	BytesOut atomic.Uint64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Units    uint64
	BytesIn  uint64
	BytesOut uint64
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Units:    c.Units.Load(),
		BytesIn:  c.BytesIn.Load(),
		BytesOut: c.BytesOut.Load(),
	}
}

// CountedConn 是一个 net.Conn 的包装器，把读写字节数记入 Counters。
type CountedConn struct {
	net.Conn
	counters *Counters
}

// NewCountedConn wraps conn; reads count as BytesIn, writes as BytesOut.
func NewCountedConn(conn net.Conn, counters *Counters) *CountedConn {
	return &CountedConn{
		Conn:     conn,
		counters: counters,
	}
}

func (c *CountedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.counters.BytesIn.Add(uint64(n))
	}
	return n, err
}

func (c *CountedConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.counters.BytesOut.Add(uint64(n))
	}
	return n, err
}

// CountedPacketConn is the datagram counterpart of CountedConn. Every
// datagram read increments Units.
type CountedPacketConn struct {
	net.PacketConn
	counters *Counters
}

func NewCountedPacketConn(conn net.PacketConn, counters *Counters) *CountedPacketConn {
	return &CountedPacketConn{
		PacketConn: conn,
		counters:   counters,
	}
}

func (c *CountedPacketConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, addr, err := c.PacketConn.ReadFrom(b)
	if err == nil {
		c.counters.Units.Add(1)
		c.counters.BytesIn.Add(uint64(n))
	}
	return n, addr, err
}

func (c *CountedPacketConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	n, err := c.PacketConn.WriteTo(b, addr)
	if n > 0 {
		c.counters.BytesOut.Add(uint64(n))
	}
	return n, err
}
