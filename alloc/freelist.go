package alloc

// sizeClass tracks one block size's free list and counters. The links
// live inside the free blocks themselves; this struct only pins the
// list ends and the counts.
type sizeClass struct {
	blockSize   int
	head        uint32 // block index of the head, nilRef when empty
	tail        uint32
	freeBlocks  uint32
	totalBlocks uint32
	allocs      uint32
	frees       uint32
}

// blockBytes returns the header bytes of the block at ref.
func (a *Allocator) blockBytes(ref uint32) []byte {
	off := offOf(ref)
	return a.arena.Bytes()[off : off+headerSize]
}

// refValid reports whether ref points at a header inside the carved
// arena. A link that fails this check is corruption: list surgery wrote
// only refs that passed it, so an out-of-range ref means the stored
// header bytes were overwritten.
func (a *Allocator) refValid(ref uint32) bool {
	return offOf(ref)+headerSize <= a.arena.Used()
}

// refill carves one chunk for class c and enlists every block in it.
// A false return means the arena has no chunk left, which callers
// report as ordinary exhaustion, never as a fatal condition.
func (a *Allocator) refill(c int) bool {
	off, ok := a.arena.Carve(uint8(c))
	if !ok {
		return false
	}
	sc := &a.classes[c]
	n := a.cfg.ChunkSize / sc.blockSize
	for i := 0; i < n; i++ {
		ref := refOf(off + i*sc.blockSize)
		if ref == nilRef {
			// The index matching the list terminator is
			// unrepresentable; the final 8 bytes of a maximal arena
			// stay off the list.
			continue
		}
		a.enlist(sc, c, ref)
		sc.totalBlocks++
	}
	return true
}

// enlist pushes block ref onto the head of class c's list.
func (a *Allocator) enlist(sc *sizeClass, c int, ref uint32) {
	writeHeader(a.blockBytes(ref), freeHeader{
		next:   sc.head,
		prev:   nilRef,
		class:  uint8(c),
		canary: canaryFree,
	})
	if sc.head != nilRef {
		hb := a.blockBytes(sc.head)
		h := readHeader(hb)
		h.prev = ref
		writeHeader(hb, h)
	} else {
		sc.tail = ref
	}
	sc.head = ref
	sc.freeBlocks++
}

// pop detaches the head block of class c, refilling from the arena
// when the list is empty. The header is verified and then invalidated
// before the block leaves the list.
func (a *Allocator) pop(c int) (uint32, error) {
	sc := &a.classes[c]
	if sc.head == nilRef {
		a.stats.CacheMisses++
		if !a.refill(c) {
			return nilRef, ErrExhausted
		}
	} else {
		a.stats.CacheHits++
	}
	ref := sc.head
	if !a.refValid(ref) {
		return nilRef, a.poison()
	}
	hb := a.blockBytes(ref)
	h := readHeader(hb)
	if h.canary != canaryFree || int(h.class) != c {
		return nilRef, a.poison()
	}
	if h.next != nilRef && !a.refValid(h.next) {
		return nilRef, a.poison()
	}
	sc.head = h.next
	if h.next != nilRef {
		nb := a.blockBytes(h.next)
		nh := readHeader(nb)
		nh.prev = nilRef
		writeHeader(nb, nh)
	} else {
		sc.tail = nilRef
	}
	clearHeader(hb)
	sc.freeBlocks--
	sc.allocs++
	return ref, nil
}

// push returns a block to the head of its class's list. Ownership and
// double-free checks happen before push; see Free.
func (a *Allocator) push(c int, ref uint32) {
	sc := &a.classes[c]
	a.enlist(sc, c, ref)
	sc.frees++
}
