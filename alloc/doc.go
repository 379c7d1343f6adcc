// Package alloc provides a segregated-fit general-purpose memory
// allocator backed by a single reserved arena.
//
// # Overview
//
// The allocator serves variable-size requests from a pre-reserved
// memory pool using power-of-two size classes, each with its own
// doubly-linked free list threaded through the free blocks themselves.
// Allocation and deallocation are O(1): a size maps to its class by a
// bit scan, a block maps back to its class by chunk-directory address
// arithmetic, and list operations only ever touch the head.
//
// Requests above the largest size class bypass the pool entirely and
// are served from dedicated anonymous mappings tracked in a bounded
// registry; resizing such a block first attempts an in-place remap so
// no bytes are copied.
//
// # Size Classes
//
// Fourteen classes cover 8 bytes through 64 KiB:
//
//	Class 0:     8 B    Class 7:   1 KiB
//	Class 1:    16 B    Class 8:   2 KiB
//	Class 2:    32 B    Class 9:   4 KiB
//	Class 3:    64 B    Class 10:  8 KiB
//	Class 4:   128 B    Class 11: 16 KiB
//	Class 5:   256 B    Class 12: 32 KiB
//	Class 6:   512 B    Class 13: 64 KiB
//
// Anything larger goes to the large-object path. Rounding a request up
// to its class wastes at most half the block; in exchange there is no
// searching, splitting, or coalescing anywhere in the allocator.
//
// # Usage Example
//
//	a, err := alloc.New(nil)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	buf, err := a.Alloc(240, 0)
//	if err != nil {
//	    return err
//	}
//
//	// buf holds 240 bytes inside a 256-byte class block.
//	buf, err = a.Realloc(buf, 200) // same class: address unchanged
//	if err != nil {
//	    return err
//	}
//
//	err = a.Free(buf)
//
// # Pool Layout
//
// The arena is reserved once at construction and carved into 64 KiB
// chunks on demand. A chunk belongs to exactly one size class and is
// immediately subdivided into chunkSize/blockSize free blocks. Carved
// memory is reused through the free lists but never returned to the
// operating system before Close.
//
// # Integrity
//
// Free blocks carry a canary and their class index in their first
// bytes. A mismatch during any list operation marks the allocator as
// corrupted, and from then on every call fails with ErrCorrupted;
// there is no way to keep going over unreliable state. Double frees
// and foreign pointers are detected and rejected without touching the
// free lists.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize
// access externally.
package alloc
