//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sockopt

import (
	"golang.org/x/sys/unix"

	"netecho/internal/shared/errors"
)

func setReusePort(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set SO_REUSEPORT").Base(err)
	}
	return nil
}
