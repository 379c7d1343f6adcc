package alloc

import "encoding/binary"

// A block on a free list holds its own bookkeeping in its first 8
// bytes, packed into two little-endian words:
//
//	word 0: next block index (24 bits) | size class (8 bits)
//	word 1: prev block index (24 bits) | canary     (8 bits)
//
// Indices count MinBlockSize units from the arena base, which is what
// lets the full {next, prev, class, canary} header fit inside the
// smallest 8-byte block. The encoding caps the arena at 2^24 blocks
// (MaxPoolSize); Config validation enforces the bound.
const (
	headerSize = 8

	// nilRef terminates a list in either direction.
	nilRef  = 0xFFFFFF
	refMask = 0xFFFFFF

	// canaryFree marks an enlisted block. It is cleared the instant
	// the block is popped, so a stale header on a live block never
	// reads as free.
	canaryFree = 0xA5
)

type freeHeader struct {
	next   uint32 // block index, nilRef at the tail
	prev   uint32 // block index, nilRef at the head
	class  uint8
	canary uint8
}

func readHeader(b []byte) freeHeader {
	w0 := binary.LittleEndian.Uint32(b)
	w1 := binary.LittleEndian.Uint32(b[4:])
	return freeHeader{
		next:   w0 & refMask,
		prev:   w1 & refMask,
		class:  uint8(w0 >> 24),
		canary: uint8(w1 >> 24),
	}
}

func writeHeader(b []byte, h freeHeader) {
	binary.LittleEndian.PutUint32(b, h.next&refMask|uint32(h.class)<<24)
	binary.LittleEndian.PutUint32(b[4:], h.prev&refMask|uint32(h.canary)<<24)
}

// clearHeader invalidates a header as the block leaves its free list,
// so the caller's writes need not preserve any field.
func clearHeader(b []byte) {
	binary.LittleEndian.PutUint32(b, 0)
	binary.LittleEndian.PutUint32(b[4:], 0)
}

func refOf(off int) uint32 { return uint32(off / MinBlockSize) }

func offOf(ref uint32) int { return int(ref) * MinBlockSize }
