package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func fillPattern(b []byte) {
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
}

func requirePattern(t *testing.T, b []byte) {
	t.Helper()
	for i := range b {
		require.Equal(t, byte(i*7+3), b[i], "byte %d changed across resize", i)
	}
}

func Test_Realloc_NilBuffer(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Realloc(nil, 100)
	require.NoError(t, err)
	require.Equal(t, 100, len(b))
	require.NoError(t, a.Free(b))
}

func Test_Realloc_ZeroSize(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(100, 0)
	require.NoError(t, err)

	out, err := a.Realloc(b, 0)
	require.NoError(t, err)
	require.Nil(t, out)

	// The block went back to its free list.
	require.ErrorIs(t, a.Free(b), ErrDoubleFree)
}

// Test_Realloc_SameClass_NoOp: staying inside the class keeps the
// address and copies nothing.
func Test_Realloc_SameClass_NoOp(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(100, 0) // 128-byte class
	require.NoError(t, err)
	fillPattern(b)

	grown, err := a.Realloc(b, 120)
	require.NoError(t, err)
	require.True(t, sameBase(b, grown), "same class must keep the address")
	require.Equal(t, 120, len(grown))
	requirePattern(t, grown[:100])

	shrunk, err := a.Realloc(grown, 70) // still the 128-byte class
	require.NoError(t, err)
	require.True(t, sameBase(b, shrunk))
	requirePattern(t, shrunk)

	require.NoError(t, a.Free(shrunk))
}

// Test_Realloc_GrowPreservesData: growing across classes moves the
// block but keeps every original byte at its offset.
func Test_Realloc_GrowPreservesData(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(100, 0)
	require.NoError(t, err)
	fillPattern(b)

	grown, err := a.Realloc(b, 4000)
	require.NoError(t, err)
	require.False(t, sameBase(b, grown), "class change moves the block")
	require.Equal(t, 4000, len(grown))
	requirePattern(t, grown[:100])

	// The old block is reusable again.
	b2, err := a.Alloc(100, 0)
	require.NoError(t, err)
	require.True(t, sameBase(b, b2), "old block should be back on its list")

	require.NoError(t, a.Free(grown))
	require.NoError(t, a.Free(b2))
}

func Test_Realloc_ShrinkPreservesPrefix(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(4000, 0)
	require.NoError(t, err)
	fillPattern(b)

	shrunk, err := a.Realloc(b, 100)
	require.NoError(t, err)
	require.Equal(t, 100, len(shrunk))
	requirePattern(t, shrunk)

	require.NoError(t, a.Free(shrunk))
}

// Test_Realloc_LargeGrow covers the remap path (or its copy fallback
// off linux): 100000 -> 200000 with content intact.
func Test_Realloc_LargeGrow(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(100000, 0)
	require.NoError(t, err)
	fillPattern(b)

	grown, err := a.Realloc(b, 200000)
	require.NoError(t, err)
	require.Equal(t, 200000, len(grown))
	requirePattern(t, grown[:100000])

	s := a.Stats()
	require.EqualValues(t, 1, s.TotalReallocations)
	require.EqualValues(t, 1, s.RemapMoves+s.RemapCopies)
	require.Equal(t, 1, s.LargeBlocks, "resize must not duplicate the record")

	require.NoError(t, a.Free(grown))
}

func Test_Realloc_LargeShrink(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(200000, 0)
	require.NoError(t, err)
	fillPattern(b[:100000])

	shrunk, err := a.Realloc(b, 100000)
	require.NoError(t, err)
	require.Equal(t, 100000, len(shrunk))
	requirePattern(t, shrunk)

	require.NoError(t, a.Free(shrunk))
}

// Test_Realloc_SmallToLarge crosses the threshold upward.
func Test_Realloc_SmallToLarge(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(1000, 0)
	require.NoError(t, err)
	fillPattern(b)

	grown, err := a.Realloc(b, 100000)
	require.NoError(t, err)
	require.Equal(t, 100000, len(grown))
	requirePattern(t, grown[:1000])

	_, inArena := a.arena.OffsetOf(unsafe.Pointer(&grown[0]))
	require.False(t, inArena)
	require.Equal(t, 1, a.Stats().LargeBlocks)

	require.NoError(t, a.Free(grown))
}

// Test_Realloc_LargeToSmallSize shrinks a large block below the
// threshold; it stays registry-owned and remains freeable.
func Test_Realloc_LargeToSmallSize(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(100000, 0)
	require.NoError(t, err)
	fillPattern(b[:100])

	shrunk, err := a.Realloc(b, 100)
	require.NoError(t, err)
	require.Equal(t, 100, len(shrunk))
	requirePattern(t, shrunk)
	require.Equal(t, 1, a.Stats().LargeBlocks)

	require.NoError(t, a.Free(shrunk))
	require.Zero(t, a.Stats().LargeBlocks)
}

func Test_Realloc_ForeignPointer(t *testing.T) {
	a := newTestAllocator(t)
	_, err := a.Realloc(make([]byte, 64), 128)
	require.ErrorIs(t, err, ErrNotOwned)
}

// Test_Realloc_EmptyBuffer: a non-nil empty slice has no base pointer
// to classify and is rejected like any foreign buffer.
func Test_Realloc_EmptyBuffer(t *testing.T) {
	a := newTestAllocator(t)

	_, err := a.Realloc([]byte{}, 64)
	require.ErrorIs(t, err, ErrNotOwned)

	// The allocator is untouched afterwards.
	b, err := a.Alloc(64, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))
}
