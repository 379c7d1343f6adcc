//go:build !unix

package sysmem

// Reserve allocates n zeroed bytes from the Go heap. Platforms without
// anonymous mappings still get a correct allocator.
func Reserve(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrBadSize
	}
	return make([]byte, n), nil
}

// Release is a no-op; the garbage collector reclaims the slice.
func Release(_ []byte) error {
	return nil
}
