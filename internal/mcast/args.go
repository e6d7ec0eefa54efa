package mcast

import (
	"net"
	"strconv"

	"netecho/internal/shared/errors"
)

// Target is the (group, port) pair the client sends to.
type Target struct {
	Group net.IP
	Port  int
}

func (t Target) String() string {
	return net.JoinHostPort(t.Group.String(), strconv.Itoa(t.Port))
}

// UDPAddr returns the destination as a *net.UDPAddr.
func (t Target) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: t.Group, Port: t.Port}
}

// ParseArgs parses the positional arguments "<group> <port>". Any other
// argument count is an argument error.
func ParseArgs(args []string) (Target, error) {
	if len(args) != 2 {
		return Target{}, errors.New(errors.KindArgs, "Invalid number of arguments!")
	}
	return ParseTarget(args[0], args[1])
}

// ParseTarget validates an IPv4 group address and a port number.
func ParseTarget(group, port string) (Target, error) {
	ip := net.ParseIP(group).To4()
	if ip == nil {
		return Target{}, errors.New(errors.KindArgs, "invalid IPv4 group address: ", group)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return Target{}, errors.New(errors.KindArgs, "invalid port: ", port)
	}
	return Target{Group: ip, Port: p}, nil
}
