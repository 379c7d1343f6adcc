package alloc

import (
	"fmt"
	"unsafe"

	"github.com/memkit/memkit/internal/sysmem"
)

// largeCanary marks a live registry record. It is cleared when the
// record is removed so a stale match is detectable.
const largeCanary = 0xB10C7A65

// largeBlock tracks one OS-mapped allocation above MaxSmallSize.
type largeBlock struct {
	data   []byte // the full mapping, also what the caller holds
	tag    Tag
	canary uint32
}

// largeRegistry is the bounded set of live large blocks. Lookup goes
// through a base-address map so the cost of classifying a pointer does
// not grow with the number of live blocks; removal swaps with the last
// entry. The map is bounded by the registry capacity, never by
// allocation history.
type largeRegistry struct {
	blocks []largeBlock
	index  map[uintptr]int // mapping base address -> position in blocks
	limit  int
}

func newLargeRegistry(limit int) largeRegistry {
	return largeRegistry{
		blocks: make([]largeBlock, 0, min(limit, 64)),
		index:  make(map[uintptr]int),
		limit:  limit,
	}
}

func base(b []byte) uintptr { return uintptr(unsafe.Pointer(&b[0])) }

func (r *largeRegistry) lookup(p uintptr) (int, bool) {
	i, ok := r.index[p]
	return i, ok
}

func (r *largeRegistry) insert(b []byte, tag Tag) {
	r.index[base(b)] = len(r.blocks)
	r.blocks = append(r.blocks, largeBlock{data: b, tag: tag, canary: largeCanary})
}

// removeAt drops record i by swapping the last record into its slot.
func (r *largeRegistry) removeAt(i int) {
	delete(r.index, base(r.blocks[i].data))
	last := len(r.blocks) - 1
	if i != last {
		r.blocks[i] = r.blocks[last]
		r.index[base(r.blocks[i].data)] = i
	}
	r.blocks[last] = largeBlock{}
	r.blocks = r.blocks[:last]
}

// rebase updates record i after a resize replaced its mapping.
func (r *largeRegistry) rebase(i int, b []byte) {
	delete(r.index, base(r.blocks[i].data))
	r.blocks[i].data = b
	r.index[base(b)] = i
}

// releaseAll unmaps every tracked block. Used by Reset and Close.
func (r *largeRegistry) releaseAll() error {
	var first error
	for i := range r.blocks {
		if err := sysmem.Release(r.blocks[i].data); err != nil && first == nil {
			first = err
		}
		r.blocks[i] = largeBlock{}
	}
	r.blocks = r.blocks[:0]
	clear(r.index)
	return first
}

func (a *Allocator) allocLarge(size int, tag Tag) ([]byte, error) {
	if len(a.large.blocks) >= a.large.limit {
		return nil, ErrRegistryFull
	}
	b, err := sysmem.Reserve(size)
	if err != nil {
		return nil, fmt.Errorf("alloc: map %d byte large block: %w", size, err)
	}
	a.large.insert(b, tag)
	a.stats.TotalAllocations++
	a.stats.BytesAllocated += uint64(size)
	return b, nil
}

func (a *Allocator) freeLarge(buf []byte) error {
	i, ok := a.large.lookup(base(buf))
	if !ok {
		return ErrNotOwned
	}
	lb := &a.large.blocks[i]
	if lb.canary != largeCanary {
		return a.poison()
	}
	size := len(lb.data)
	if err := sysmem.Release(lb.data); err != nil {
		return fmt.Errorf("alloc: release large block: %w", err)
	}
	a.large.removeAt(i)
	a.stats.TotalDeallocations++
	a.stats.BytesDeallocated += uint64(size)
	return nil
}

// TagOf returns the tag stored with a large allocation. Pool blocks
// carry no per-block metadata, so ok is false for them and for any
// pointer the allocator does not own.
func (a *Allocator) TagOf(buf []byte) (Tag, bool) {
	if a.guard() != nil || len(buf) == 0 {
		return 0, false
	}
	if i, ok := a.large.lookup(base(buf)); ok {
		return a.large.blocks[i].tag, true
	}
	return 0, false
}
