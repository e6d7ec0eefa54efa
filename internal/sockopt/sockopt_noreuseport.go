//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package sockopt

func setReusePort(fd uintptr) error {
	return nil
}
