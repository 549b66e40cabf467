package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaReserveAndAppend(t *testing.T) {
	a := New[int, string]()
	require.EqualValues(t, 0, a.Cap())
	require.NoError(t, a.Reserve(4))
	require.EqualValues(t, 4, a.Cap())
	require.EqualValues(t, 0, a.Len())

	id0 := a.Append(1, "one", true, None)
	id1 := a.Append(2, "two", false, id0)
	require.EqualValues(t, 0, id0)
	require.EqualValues(t, 1, id1)
	require.True(t, a.IsRed(id0))
	require.True(t, a.IsBlack(id1))
	require.Equal(t, 1, a.Key(id0))
	require.Equal(t, "two", a.Value(id1))
	require.Equal(t, id0, a.ParentOf(id1))
}

func TestArenaAppendWithoutCapacityPanics(t *testing.T) {
	a := New[int, int]()
	require.NoError(t, a.Reserve(1))
	a.Append(1, 1, false, None)
	require.Panics(t, func() {
		a.Append(2, 2, false, None)
	})
}

func TestArenaSwapRemoveLastSlotNoMove(t *testing.T) {
	a := New[int, int]()
	require.NoError(t, a.Reserve(2))
	id0 := a.Append(1, 10, false, None)
	id1 := a.Append(2, 20, false, id0)

	k, v, moved := a.SwapRemove(id1)
	require.Equal(t, 2, k)
	require.Equal(t, 20, v)
	require.Equal(t, None, moved)
	require.EqualValues(t, 1, a.Len())
}

func TestArenaSwapRemoveMiddleSlotRelinksFamily(t *testing.T) {
	a := New[int, int]()
	require.NoError(t, a.Reserve(3))
	root := a.Append(2, 20, false, None)
	left := a.Append(1, 10, true, root)
	right := a.Append(3, 30, true, root)
	a.SetLeft(root, left)
	a.SetRight(root, right)

	// Detach the middle slot (left) from its parent, as the tree does
	// before compacting, then remove it; the last-appended slot (right)
	// moves into left's id.
	a.SetLeft(root, None)
	k, v, moved := a.SwapRemove(left)
	require.Equal(t, 1, k)
	require.Equal(t, 10, v)
	require.Equal(t, right, moved)
	require.EqualValues(t, 2, a.Len())

	// The moved slot now lives at `left`'s old id, carrying `right`'s
	// data and links, and its parent's child pointer must follow it.
	require.Equal(t, 3, a.Key(left))
	require.Equal(t, left, a.RightOf(root))
	require.Equal(t, root, a.ParentOf(left))
}

func TestArenaReserveAllocationFailureLeavesArenaUnchanged(t *testing.T) {
	boom := errors.New("boom")
	a := New[int, int](WithAllocator[int, int](func(oldCap, newCap uint32) error {
		return boom
	}))
	err := a.Reserve(8)
	require.ErrorIs(t, err, ErrAllocationFailed)
	require.EqualValues(t, 0, a.Cap())
	require.EqualValues(t, 0, a.Len())
}

func TestColorVectorDefaultsToBlack(t *testing.T) {
	a := New[int, int]()
	require.NoError(t, a.Reserve(64))
	require.True(t, a.IsBlack(0))
	id := a.Append(1, 1, false, None)
	require.True(t, a.IsBlack(id))
	a.SetRed(id)
	require.True(t, a.IsRed(id))
	a.ToggleColor(id)
	require.True(t, a.IsBlack(id))
}

func TestArenaResetReblackensExistingWordsAtSameCapacity(t *testing.T) {
	a := New[int, int]()
	require.NoError(t, a.Reserve(4))
	id := a.Append(1, 1, true, None)
	require.True(t, a.IsRed(id))

	a.Reset()
	require.EqualValues(t, 0, a.Len())
	require.EqualValues(t, 4, a.Cap())
	// Reset must not just skip re-allocation because the word count
	// already suffices; the bit left set by the prior red slot has to
	// be cleared back to the black default too.
	require.True(t, a.IsBlack(id))
}

func TestArenaNoneIsSafeForLinkAccessors(t *testing.T) {
	a := New[int, int]()
	require.Equal(t, None, a.LeftOf(None))
	require.Equal(t, None, a.RightOf(None))
	require.Equal(t, None, a.ParentOf(None))
	require.True(t, a.IsBlack(None))
	require.False(t, a.IsRed(None))
}
