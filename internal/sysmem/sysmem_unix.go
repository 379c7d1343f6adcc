//go:build unix

package sysmem

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Reserve maps n bytes of zeroed, private anonymous memory.
func Reserve(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadSize
	}
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// Release unmaps a region returned by Reserve or Remap.
func Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
