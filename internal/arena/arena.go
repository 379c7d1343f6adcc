// Package arena manages the single reserved memory region the
// allocator carves blocks from. Memory is handed out in fixed-size
// chunks, each dedicated to one size class, and nothing is returned
// to the operating system until Release.
package arena

import (
	"fmt"
	"unsafe"

	"github.com/memkit/memkit/internal/sysmem"
)

// noClass marks a chunk directory slot that has not been carved yet.
const noClass = 0xFF

// Arena is a contiguous reservation divided into equal chunks. The
// carved prefix grows monotonically; the chunk directory records which
// size class owns each carved chunk, which is what makes pointer
// classification a divide and an array index.
type Arena struct {
	buf       []byte
	base      uintptr
	chunkSize int
	used      int
	classes   []uint8 // size class per chunk index, noClass if uncarved
}

// Reserve maps a capacity-byte arena carved in chunkSize units.
func Reserve(capacity, chunkSize int) (*Arena, error) {
	if chunkSize <= 0 || capacity <= 0 || capacity%chunkSize != 0 {
		return nil, fmt.Errorf(
			"arena: capacity %d must be a positive multiple of chunk size %d",
			capacity, chunkSize,
		)
	}
	buf, err := sysmem.Reserve(capacity)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", capacity, err)
	}
	a := &Arena{
		buf:       buf,
		base:      uintptr(unsafe.Pointer(&buf[0])),
		chunkSize: chunkSize,
		classes:   make([]uint8, capacity/chunkSize),
	}
	for i := range a.classes {
		a.classes[i] = noClass
	}
	return a, nil
}

// Carve hands out the next chunk for the given size class and records
// the class in the chunk directory. ok is false once the reservation
// is exhausted; carved memory is never handed back.
func (a *Arena) Carve(class uint8) (off int, ok bool) {
	if a.buf == nil || a.used+a.chunkSize > len(a.buf) {
		return 0, false
	}
	off = a.used
	a.classes[off/a.chunkSize] = class
	a.used += a.chunkSize
	return off, true
}

// ClassOf resolves the size class owning the byte at off. Offsets
// outside the carved prefix are rejected. The lookup never walks a
// table, so its cost is independent of how many blocks are live.
func (a *Arena) ClassOf(off int) (uint8, bool) {
	if off < 0 || off >= a.used {
		return 0, false
	}
	return a.classes[off/a.chunkSize], true
}

// OffsetOf translates a pointer back into an arena offset. ok is false
// for pointers outside the carved region, which is how callers tell
// arena blocks from large-object mappings and foreign memory.
func (a *Arena) OffsetOf(p unsafe.Pointer) (int, bool) {
	if a.buf == nil {
		return 0, false
	}
	addr := uintptr(p)
	if addr < a.base || addr >= a.base+uintptr(a.used) {
		return 0, false
	}
	return int(addr - a.base), true
}

// Slice returns the arena bytes at off with the given length and
// capacity. The caller guarantees the range lies inside one block.
func (a *Arena) Slice(off, length, capacity int) []byte {
	return a.buf[off : off+length : off+capacity]
}

// Bytes exposes the full reservation for in-place header surgery.
func (a *Arena) Bytes() []byte { return a.buf }

// Used reports the carved byte count, always a chunk multiple.
func (a *Arena) Used() int { return a.used }

// Cap reports the reservation size.
func (a *Arena) Cap() int { return len(a.buf) }

// Chunks reports how many chunks have been carved so far.
func (a *Arena) Chunks() int {
	if a.chunkSize == 0 {
		return 0
	}
	return a.used / a.chunkSize
}

// ChunkClass returns the size class recorded for carved chunk i.
func (a *Arena) ChunkClass(i int) uint8 { return a.classes[i] }

// ChunkSize reports the carve granularity.
func (a *Arena) ChunkSize() int { return a.chunkSize }

// Release returns the reservation to the operating system. The arena
// and every block inside it are unusable afterwards.
func (a *Arena) Release() error {
	if a.buf == nil {
		return nil
	}
	err := sysmem.Release(a.buf)
	a.buf = nil
	a.base = 0
	a.used = 0
	return err
}
