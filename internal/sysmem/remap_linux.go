//go:build linux

package sysmem

import "golang.org/x/sys/unix"

// Remap resizes a Reserve mapping in place, letting the kernel move it
// if the adjacent address space is occupied. The contents travel with
// the mapping; no bytes are copied regardless of size.
func Remap(b []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadSize
	}
	return unix.Mremap(b, n, unix.MREMAP_MAYMOVE)
}
