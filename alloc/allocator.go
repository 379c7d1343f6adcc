package alloc

import (
	"fmt"
	"unsafe"

	"github.com/memkit/memkit/internal/arena"
)

// Tag is an opaque caller-supplied value stored verbatim with large
// blocks and returned by TagOf. The allocator never interprets it and
// no behavior branches on its contents.
type Tag uint64

// MaxPoolSize is the largest supported arena. Free-list links are
// 24-bit block indices in MinBlockSize units, so offsets past
// 2^24 blocks cannot be represented.
const MaxPoolSize = (1 << 24) * MinBlockSize // 128 MiB

// RemapThreshold is the size both the old and the new length of a
// large block must reach before a resize attempts an in-place remap.
const RemapThreshold = 4096

// Config defines an allocator's fixed layout. The zero value is not
// usable; start from DefaultConfig or pass nil to New.
type Config struct {
	// PoolSize is the arena reservation in bytes. Must be a positive
	// multiple of ChunkSize and at most MaxPoolSize.
	PoolSize int

	// ChunkSize is the carve granularity. Must be a positive multiple
	// of MaxSmallSize so every class subdivides a chunk evenly.
	ChunkSize int

	// MaxLargeBlocks bounds the large-object registry. Allocations
	// past the bound fail with ErrRegistryFull.
	MaxLargeBlocks int

	// Prewarm carves one chunk per size class at construction so the
	// first allocation of any size never waits on a refill.
	Prewarm bool
}

// DefaultConfig is used when New receives nil.
var DefaultConfig = Config{
	PoolSize:       MaxPoolSize,
	ChunkSize:      64 * 1024,
	MaxLargeBlocks: 1000,
	Prewarm:        true,
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 || c.ChunkSize%MaxSmallSize != 0 {
		return fmt.Errorf(
			"alloc: chunk size %d must be a positive multiple of %d",
			c.ChunkSize, MaxSmallSize,
		)
	}
	if c.PoolSize <= 0 || c.PoolSize%c.ChunkSize != 0 {
		return fmt.Errorf(
			"alloc: pool size %d must be a positive multiple of chunk size %d",
			c.PoolSize, c.ChunkSize,
		)
	}
	if c.PoolSize > MaxPoolSize {
		return fmt.Errorf("alloc: pool size %d exceeds maximum %d", c.PoolSize, MaxPoolSize)
	}
	if c.MaxLargeBlocks <= 0 {
		return fmt.Errorf("alloc: large block limit %d must be positive", c.MaxLargeBlocks)
	}
	return nil
}

// Allocator is a segregated-fit allocator over one reserved arena.
// Not safe for concurrent use.
type Allocator struct {
	cfg     Config
	arena   *arena.Arena
	classes [NumClasses]sizeClass
	large   largeRegistry
	stats   Stats
	failed  error // sticky ErrCorrupted after an integrity violation
	closed  bool
}

// New reserves the arena, builds the size-class table, and optionally
// pre-warms one chunk per class.
func New(cfg *Config) (*Allocator, error) {
	c := DefaultConfig
	if cfg != nil {
		c = *cfg
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	ar, err := arena.Reserve(c.PoolSize, c.ChunkSize)
	if err != nil {
		return nil, err
	}
	a := &Allocator{
		cfg:   c,
		arena: ar,
		large: newLargeRegistry(c.MaxLargeBlocks),
	}
	for i := range a.classes {
		a.classes[i] = sizeClass{blockSize: ClassToSize(i), head: nilRef, tail: nilRef}
	}
	if c.Prewarm {
		for i := range a.classes {
			if !a.refill(i) {
				_ = ar.Release()
				return nil, fmt.Errorf(
					"alloc: prewarm class %d (%d byte blocks): %w",
					i, a.classes[i].blockSize, ErrExhausted,
				)
			}
		}
	}
	return a, nil
}

// guard returns the sticky failure preventing further operations.
func (a *Allocator) guard() error {
	if a.closed {
		return ErrClosed
	}
	return a.failed
}

// poison records an integrity violation. Every later call fails with
// ErrCorrupted; there is no recovery short of a new allocator.
func (a *Allocator) poison() error {
	a.failed = ErrCorrupted
	return ErrCorrupted
}

// Alloc returns a block holding at least size bytes. For pool blocks
// len(buf) is the requested size and cap(buf) the class block size;
// large blocks are sized exactly. Exhaustion of the arena or the large
// registry is reported as an error and leaves the allocator usable.
func (a *Allocator) Alloc(size int, tag Tag) ([]byte, error) {
	if err := a.guard(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, ErrBadSize
	}
	class, large := SizeToClass(size)
	if large {
		return a.allocLarge(size, tag)
	}
	return a.allocSmall(class, size)
}

func (a *Allocator) allocSmall(class, size int) ([]byte, error) {
	ref, err := a.pop(class)
	if err != nil {
		return nil, err
	}
	bs := a.classes[class].blockSize
	a.stats.TotalAllocations++
	a.stats.BytesAllocated += uint64(bs)
	return a.arena.Slice(offOf(ref), size, bs), nil
}

// Free returns buf to its owner: the free list of its size class for
// pool blocks, the operating system for large blocks. Foreign pointers
// and double frees are rejected without touching any list.
func (a *Allocator) Free(buf []byte) error {
	if err := a.guard(); err != nil {
		return err
	}
	if len(buf) == 0 {
		return ErrNotOwned
	}
	off, ok := a.arena.OffsetOf(unsafe.Pointer(&buf[0]))
	if !ok {
		return a.freeLarge(buf)
	}
	return a.freeSmall(off)
}

func (a *Allocator) freeSmall(off int) error {
	class, ok := a.arena.ClassOf(off)
	if !ok {
		return ErrNotOwned
	}
	sc := &a.classes[class]
	if off%sc.blockSize != 0 {
		// Interior pointer: not a block this allocator handed out.
		return ErrNotOwned
	}
	h := readHeader(a.blockBytes(refOf(off)))
	if h.canary == canaryFree && h.class == class {
		// The block's own header still reads as enlisted.
		return ErrDoubleFree
	}
	a.push(int(class), refOf(off))
	a.stats.TotalDeallocations++
	a.stats.BytesDeallocated += uint64(sc.blockSize)
	return nil
}

// Close releases every large mapping and the arena. All later calls
// fail with ErrClosed. Close is idempotent.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	first := a.large.releaseAll()
	if err := a.arena.Release(); err != nil && first == nil {
		first = err
	}
	return first
}

// Reset rebuilds every class's free list from its carved chunks, drops
// all large blocks, and zeroes the counters. Carved pool bytes stay
// carved, so a warmed allocator stays warm.
func (a *Allocator) Reset() error {
	if err := a.guard(); err != nil {
		return err
	}
	for c := range a.classes {
		sc := &a.classes[c]
		sc.head, sc.tail = nilRef, nilRef
		sc.freeBlocks, sc.totalBlocks = 0, 0
		sc.allocs, sc.frees = 0, 0
	}
	for i := 0; i < a.arena.Chunks(); i++ {
		c := int(a.arena.ChunkClass(i))
		sc := &a.classes[c]
		off := i * a.cfg.ChunkSize
		n := a.cfg.ChunkSize / sc.blockSize
		for j := 0; j < n; j++ {
			ref := refOf(off + j*sc.blockSize)
			if ref == nilRef {
				continue
			}
			a.enlist(sc, c, ref)
			sc.totalBlocks++
		}
	}
	err := a.large.releaseAll()
	a.stats = Stats{}
	return err
}
