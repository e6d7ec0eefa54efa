//go:build unix

package sockopt

import (
	"golang.org/x/sys/unix"

	"netecho/internal/shared/errors"
)

func setLinger(fd uintptr, l Linger) error {
	opt := &unix.Linger{Linger: int32(l.Seconds)}
	if l.On {
		opt.Onoff = 1
	}
	if err := unix.SetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER, opt); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set SO_LINGER").Base(err)
	}
	return nil
}

func getLinger(fd uintptr) (Linger, error) {
	opt, err := unix.GetsockoptLinger(int(fd), unix.SOL_SOCKET, unix.SO_LINGER)
	if err != nil {
		return Linger{}, errors.New(errors.KindSocketConfig, "failed to get SO_LINGER").Base(err)
	}
	return Linger{On: opt.Onoff != 0, Seconds: int(opt.Linger)}, nil
}

func setReuseAddr(fd uintptr) error {
	if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set SO_REUSEADDR").Base(err)
	}
	return nil
}
