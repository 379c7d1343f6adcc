package alloc

// Stats is a point-in-time snapshot of allocator activity. Byte totals
// count the class block size for pool allocations and the exact
// request for large blocks.
type Stats struct {
	TotalAllocations   uint64
	TotalDeallocations uint64
	TotalReallocations uint64

	BytesAllocated   uint64
	BytesDeallocated uint64
	BytesReallocated uint64

	// CacheHits counts allocations served straight from a free list;
	// CacheMisses counts the ones that had to carve a fresh chunk.
	CacheHits   uint64
	CacheMisses uint64

	// RemapMoves counts large resizes completed in place by the
	// kernel; RemapCopies counts resizes that moved bytes, including
	// pool blocks changing class.
	RemapMoves  uint64
	RemapCopies uint64

	// LargeBlocks is the number of live large allocations.
	LargeBlocks int

	// PoolUsed is the carved portion of the arena, PoolCapacity the
	// full reservation.
	PoolUsed     uint64
	PoolCapacity uint64

	// FragmentationRatio is free pool bytes over carved pool bytes.
	FragmentationRatio float64
}

// Stats returns the current snapshot including derived pool figures.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.LargeBlocks = len(a.large.blocks)
	s.PoolUsed = uint64(a.arena.Used())
	s.PoolCapacity = uint64(a.arena.Cap())
	if used := a.arena.Used(); used > 0 {
		var free uint64
		for i := range a.classes {
			free += uint64(a.classes[i].freeBlocks) * uint64(a.classes[i].blockSize)
		}
		s.FragmentationRatio = float64(free) / float64(used)
	}
	return s
}

// ClassStat describes one size class's free list and counters.
type ClassStat struct {
	BlockSize   int
	FreeBlocks  uint32
	TotalBlocks uint32
	Allocs      uint32
	Frees       uint32
}

// ClassStats reports every size class in ascending block-size order.
func (a *Allocator) ClassStats() []ClassStat {
	out := make([]ClassStat, NumClasses)
	for i := range a.classes {
		sc := &a.classes[i]
		out[i] = ClassStat{
			BlockSize:   sc.blockSize,
			FreeBlocks:  sc.freeBlocks,
			TotalBlocks: sc.totalBlocks,
			Allocs:      sc.allocs,
			Frees:       sc.frees,
		}
	}
	return out
}
