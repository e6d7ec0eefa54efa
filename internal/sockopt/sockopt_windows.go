//go:build windows

package sockopt

import (
	"syscall"

	"netecho/internal/shared/errors"
)

func setLinger(fd uintptr, l Linger) error {
	opt := &syscall.Linger{Linger: int32(l.Seconds)}
	if l.On {
		opt.Onoff = 1
	}
	if err := syscall.SetsockoptLinger(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_LINGER, opt); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set SO_LINGER").Base(err)
	}
	return nil
}

func getLinger(fd uintptr) (Linger, error) {
	return Linger{}, errors.New(errors.KindSocketConfig, "reading SO_LINGER is not supported on this platform")
}

func setReuseAddr(fd uintptr) error {
	if err := syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return errors.New(errors.KindSocketConfig, "failed to set SO_REUSEADDR").Base(err)
	}
	return nil
}
