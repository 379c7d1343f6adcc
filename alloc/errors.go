package alloc

import "errors"

var (
	// ErrExhausted indicates the arena has no chunk left to carve.
	// Recoverable: freeing blocks makes their class usable again.
	ErrExhausted = errors.New("alloc: arena exhausted")

	// ErrRegistryFull indicates the large-object registry reached its
	// configured capacity.
	ErrRegistryFull = errors.New("alloc: large block registry full")

	// ErrBadSize indicates a zero or negative allocation size.
	ErrBadSize = errors.New("alloc: size must be positive")

	// ErrNotOwned indicates a pointer this allocator never produced.
	ErrNotOwned = errors.New("alloc: pointer not owned by allocator")

	// ErrDoubleFree indicates the block is already on its free list.
	ErrDoubleFree = errors.New("alloc: block already free")

	// ErrCorrupted indicates an integrity violation was detected. The
	// allocator refuses all further work once this is returned.
	ErrCorrupted = errors.New("alloc: memory corruption detected")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)
