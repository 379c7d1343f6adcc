//go:build !linux

package sysmem

// Remap always fails on platforms without mremap; callers copy instead.
func Remap(_ []byte, _ int) ([]byte, error) {
	return nil, ErrRemapUnsupported
}
