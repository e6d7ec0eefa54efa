//go:build !unix && !windows

package sockopt

import (
	"netecho/internal/shared/errors"
)

func setLinger(fd uintptr, l Linger) error {
	return errors.New(errors.KindSocketConfig, "SO_LINGER is not supported on this platform")
}

func getLinger(fd uintptr) (Linger, error) {
	return Linger{}, errors.New(errors.KindSocketConfig, "SO_LINGER is not supported on this platform")
}

func setReuseAddr(fd uintptr) error {
	return nil
}
