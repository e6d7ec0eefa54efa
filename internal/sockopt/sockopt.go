// Package sockopt applies the socket options the echo tools depend on:
// multicast TTL and group membership through golang.org/x/net/ipv4, and
// SO_LINGER / SO_REUSEADDR through raw setsockopt on the platform file
// descriptor.
package sockopt

import (
	"net"
	"syscall"

	"golang.org/x/net/ipv4"

	"netecho/internal/shared/errors"
)

// Linger describes the SO_LINGER state of a stream socket.
type Linger struct {
	On      bool
	Seconds int
}

// SetMulticastTTL limits how many hops outbound multicast datagrams travel.
func SetMulticastTTL(c net.PacketConn, ttl int) error {
	if err := ipv4.NewPacketConn(c).SetMulticastTTL(ttl); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set IP_MULTICAST_TTL ", ttl).Base(err)
	}
	return nil
}

// MulticastTTL reads back IP_MULTICAST_TTL.
func MulticastTTL(c net.PacketConn) (int, error) {
	ttl, err := ipv4.NewPacketConn(c).MulticastTTL()
	if err != nil {
		return 0, errors.New(errors.KindSocketConfig, "failed to get IP_MULTICAST_TTL").Base(err)
	}
	return ttl, nil
}

// SetMulticastLoopback controls whether our own multicast datagrams are
// delivered back to listeners on this host.
func SetMulticastLoopback(c net.PacketConn, on bool) error {
	if err := ipv4.NewPacketConn(c).SetMulticastLoopback(on); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set IP_MULTICAST_LOOP").Base(err)
	}
	return nil
}

// JoinGroup joins group on ifi. A nil ifi lets the kernel pick the interface.
func JoinGroup(c net.PacketConn, ifi *net.Interface, group net.IP) error {
	if err := ipv4.NewPacketConn(c).JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to join multicast group ", group.String()).Base(err)
	}
	return nil
}

// LeaveGroup is the inverse of JoinGroup.
func LeaveGroup(c net.PacketConn, ifi *net.Interface, group net.IP) error {
	if err := ipv4.NewPacketConn(c).LeaveGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to leave multicast group ", group.String()).Base(err)
	}
	return nil
}

// SetAbortiveClose enables SO_LINGER with a zero timeout so that Close
// resets the connection instead of running the FIN handshake. It must be
// called before the first write.
func SetAbortiveClose(conn net.Conn) error {
	return control(conn, "SO_LINGER", func(fd uintptr) error {
		return setLinger(fd, Linger{On: true, Seconds: 0})
	})
}

// GetLinger reports the SO_LINGER state of conn.
func GetLinger(conn net.Conn) (Linger, error) {
	var l Linger
	err := control(conn, "SO_LINGER", func(fd uintptr) error {
		var err error
		l, err = getLinger(fd)
		return err
	})
	return l, err
}

// ReuseAddrControl is a net.ListenConfig Control hook that sets
// SO_REUSEADDR (and SO_REUSEPORT where it exists), letting several
// responders share a multicast port.
func ReuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		if serr = setReuseAddr(fd); serr == nil {
			serr = setReusePort(fd)
		}
	}); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to access socket for ", address).Base(err)
	}
	return serr
}

func control(conn net.Conn, option string, fn func(fd uintptr) error) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return errors.New(errors.KindSocketConfig, "cannot set ", option, " on ", conn.LocalAddr().Network(), " connection")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return errors.New(errors.KindSocketConfig, "failed to access socket for ", option).Base(err)
	}
	var serr error
	if err := raw.Control(func(fd uintptr) {
		serr = fn(fd)
	}); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to access socket for ", option).Base(err)
	}
	return serr
}
