package alloc

// Validate walks every free list and checks its structural invariants:
// canary and class fields on each node, symmetric prev links, endpoint
// sentinels, and the recorded free count. A violation poisons the
// allocator, so every later operation fails with ErrCorrupted.
func (a *Allocator) Validate() error {
	if err := a.guard(); err != nil {
		return err
	}
	for c := range a.classes {
		sc := &a.classes[c]
		prev := uint32(nilRef)
		ref := sc.head
		var n uint32
		for ref != nilRef {
			if n >= sc.freeBlocks {
				// More nodes than the count: a cycle or drift.
				return a.poison()
			}
			if !a.refValid(ref) {
				return a.poison()
			}
			h := readHeader(a.blockBytes(ref))
			if h.canary != canaryFree || int(h.class) != c || h.prev != prev {
				return a.poison()
			}
			prev = ref
			ref = h.next
			n++
		}
		if n != sc.freeBlocks || prev != sc.tail {
			return a.poison()
		}
	}
	return nil
}
