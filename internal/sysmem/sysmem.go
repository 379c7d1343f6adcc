// Package sysmem obtains and releases memory directly from the
// operating system. On unix platforms regions come from anonymous
// private mappings; elsewhere a heap-backed fallback keeps callers
// correct at the cost of the remap fast path.
package sysmem

import "errors"

var (
	// ErrBadSize indicates a non-positive reservation size.
	ErrBadSize = errors.New("sysmem: size must be positive")

	// ErrRemapUnsupported indicates the platform has no in-place remap
	// facility. Callers fall back to allocate+copy+release.
	ErrRemapUnsupported = errors.New("sysmem: remap not supported on this platform")
)
