package alloc

import (
	"fmt"
	"unsafe"

	"github.com/memkit/memkit/internal/sysmem"
)

// Realloc resizes buf. A nil buf behaves as Alloc, a zero newSize as
// Free (returning nil); an empty non-nil buf is rejected with
// ErrNotOwned, as in Free. A pool block whose new size stays in its class
// keeps its address; one that changes class is copied into a fresh
// block. Large blocks try an in-place remap first, which may move the
// mapping but never copies bytes, and fall back to
// allocate+copy+release. On any failure the original block is left
// untouched.
func (a *Allocator) Realloc(buf []byte, newSize int) ([]byte, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	if buf == nil {
		return a.Alloc(newSize, 0)
	}
	if len(buf) == 0 {
		return nil, ErrNotOwned
	}
	if newSize == 0 {
		if err := a.Free(buf); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if newSize < 0 {
		return nil, ErrBadSize
	}
	off, ok := a.arena.OffsetOf(unsafe.Pointer(&buf[0]))
	if !ok {
		return a.reallocLarge(buf, newSize)
	}
	return a.reallocSmall(off, newSize)
}

func (a *Allocator) reallocSmall(off, newSize int) ([]byte, error) {
	class, ok := a.arena.ClassOf(off)
	if !ok {
		return nil, ErrNotOwned
	}
	sc := &a.classes[class]
	if off%sc.blockSize != 0 {
		return nil, ErrNotOwned
	}
	newClass, large := SizeToClass(newSize)
	if !large && newClass == int(class) {
		// Same class: the block already holds newSize bytes.
		a.stats.TotalReallocations++
		return a.arena.Slice(off, newSize, sc.blockSize), nil
	}

	nb, err := a.Alloc(newSize, 0)
	if err != nil {
		return nil, err
	}
	n := min(sc.blockSize, newSize)
	copy(nb[:n], a.arena.Slice(off, n, sc.blockSize))
	if err := a.freeSmall(off); err != nil {
		return nil, err
	}
	a.stats.TotalReallocations++
	a.stats.BytesReallocated += uint64(newSize)
	a.stats.RemapCopies++
	return nb, nil
}

func (a *Allocator) reallocLarge(buf []byte, newSize int) ([]byte, error) {
	i, ok := a.large.lookup(base(buf))
	if !ok {
		return nil, ErrNotOwned
	}
	lb := &a.large.blocks[i]
	if lb.canary != largeCanary {
		return nil, a.poison()
	}
	oldSize := len(lb.data)

	if oldSize >= RemapThreshold && newSize >= RemapThreshold {
		if nb, err := sysmem.Remap(lb.data, newSize); err == nil {
			a.large.rebase(i, nb)
			a.stats.TotalReallocations++
			a.stats.BytesReallocated += uint64(newSize)
			a.stats.RemapMoves++
			return nb, nil
		}
		// Remap unavailable or refused; copy instead.
	}

	nb, err := sysmem.Reserve(newSize)
	if err != nil {
		return nil, fmt.Errorf("alloc: map %d byte large block: %w", newSize, err)
	}
	copy(nb, lb.data[:min(oldSize, newSize)])
	old := lb.data
	a.large.rebase(i, nb)
	// The copy already succeeded; a failed unmap of the old region
	// only leaks address space.
	_ = sysmem.Release(old)
	a.stats.TotalReallocations++
	a.stats.BytesReallocated += uint64(newSize)
	a.stats.RemapCopies++
	return nb, nil
}
