package alloc

import "math/bits"

const (
	minSizeShift = 3  // 8-byte minimum block
	maxSizeShift = 16 // 64 KiB largest small block

	// NumClasses is the number of size classes. The table stops at
	// MaxSmallSize: requests above the threshold never enter a class,
	// so no class exists beyond it.
	NumClasses = maxSizeShift - minSizeShift + 1

	// MinBlockSize is the smallest block the allocator hands out.
	MinBlockSize = 1 << minSizeShift

	// MaxSmallSize is the largest request served from the pool.
	// Anything bigger takes the large-object path.
	MaxSmallSize = 1 << maxSizeShift
)

// SizeToClass maps a request size to the smallest class whose blocks
// hold it. large reports that the request exceeds MaxSmallSize. The
// class comes from a bit scan of size-1, so the cost is constant and
// independent of the number of classes. size must be at least 1.
func SizeToClass(size int) (class int, large bool) {
	if size <= MinBlockSize {
		return 0, false
	}
	if size > MaxSmallSize {
		return 0, true
	}
	return bits.Len(uint(size-1)) - minSizeShift, false
}

// ClassToSize returns the block size of a class, the inverse of
// SizeToClass on class boundaries. class must be in [0, NumClasses).
func ClassToSize(class int) int {
	return 1 << (minSizeShift + class)
}
