package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Validate_CleanAllocator(t *testing.T) {
	a := newTestAllocator(t)

	var live [][]byte
	for _, size := range []int{8, 8, 64, 100, 5000, 65536} {
		b, err := a.Alloc(size, 0)
		require.NoError(t, err)
		live = append(live, b)
	}
	require.NoError(t, a.Validate())

	for i, b := range live {
		if i%2 == 0 {
			require.NoError(t, a.Free(b))
		}
	}
	require.NoError(t, a.Validate())
}

// Test_Validate_DetectsSmashedCanary overwrites a free block's header
// and expects a sticky failure.
func Test_Validate_DetectsSmashedCanary(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(64, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))

	// Smash the canary byte of the list head.
	class, _ := SizeToClass(64)
	head := a.classes[class].head
	a.blockBytes(head)[7] = 0

	require.ErrorIs(t, a.Validate(), ErrCorrupted)

	// Every subsequent operation fails loudly.
	_, err = a.Alloc(8, 0)
	require.ErrorIs(t, err, ErrCorrupted)
	require.ErrorIs(t, a.Free(b), ErrCorrupted)
	_, err = a.Realloc(nil, 8)
	require.ErrorIs(t, err, ErrCorrupted)
	require.ErrorIs(t, a.Validate(), ErrCorrupted)
	require.ErrorIs(t, a.Reset(), ErrCorrupted)
}

// Test_Pop_CanaryMismatchPoisons: corruption discovered during an
// allocation poisons the allocator too.
func Test_Pop_CanaryMismatchPoisons(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(32, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))

	class, _ := SizeToClass(32)
	a.blockBytes(a.classes[class].head)[7] = 0x11

	_, err = a.Alloc(32, 0)
	require.ErrorIs(t, err, ErrCorrupted)
	_, err = a.Alloc(8, 0)
	require.ErrorIs(t, err, ErrCorrupted)
}

// Test_Pop_BadLinkPoisons: an out-of-range next ref whose canary and
// class bytes survive still fails as corruption, never as a crash.
func Test_Pop_BadLinkPoisons(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(32, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))

	class, _ := SizeToClass(32)
	hb := a.blockBytes(a.classes[class].head)
	h := readHeader(hb)
	h.next = 0xFFFFFE // far past the carved arena
	writeHeader(hb, h)

	_, err = a.Alloc(32, 0)
	require.ErrorIs(t, err, ErrCorrupted)
	_, err = a.Alloc(8, 0)
	require.ErrorIs(t, err, ErrCorrupted)
}

// Test_Validate_DetectsBadLink: the walk rejects an out-of-range ref
// before dereferencing it.
func Test_Validate_DetectsBadLink(t *testing.T) {
	a := newTestAllocator(t)

	b1, err := a.Alloc(32, 0)
	require.NoError(t, err)
	b2, err := a.Alloc(32, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b1))
	require.NoError(t, a.Free(b2))

	class, _ := SizeToClass(32)
	hb := a.blockBytes(a.classes[class].head)
	h := readHeader(hb)
	h.next = 0xFFFFFE
	writeHeader(hb, h)

	require.ErrorIs(t, a.Validate(), ErrCorrupted)
	require.ErrorIs(t, a.Validate(), ErrCorrupted)
}

// Test_Validate_DetectsBrokenLink flips a prev pointer and expects the
// walk to notice the asymmetry.
func Test_Validate_DetectsBrokenLink(t *testing.T) {
	a := newTestAllocator(t)

	b1, err := a.Alloc(16, 0)
	require.NoError(t, err)
	b2, err := a.Alloc(16, 0)
	require.NoError(t, err)
	require.NoError(t, a.Free(b1))
	require.NoError(t, a.Free(b2))

	class, _ := SizeToClass(16)
	head := a.classes[class].head
	hb := a.blockBytes(head)
	h := readHeader(hb)
	h.prev = h.next // head's prev must be nil
	writeHeader(hb, h)

	require.ErrorIs(t, a.Validate(), ErrCorrupted)
}
