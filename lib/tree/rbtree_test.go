package tree

import (
	"errors"
	randv2 "math/rand/v2"
	"sort"
	"testing"

	"github.com/benz9527/xrbtree/lib/arena"
	"github.com/stretchr/testify/require"
)

func intCmp(i, j uint64) int64 {
	switch {
	case i < j:
		return -1
	case i > j:
		return 1
	default:
		return 0
	}
}

func newIntTree() *Tree[uint64, uint64] {
	return New[uint64, uint64](intCmp)
}

func TestTreeInsertGetUpdateDelete(t *testing.T) {
	tr := newIntTree()

	present, err := tr.Insert(10, 100)
	require.NoError(t, err)
	require.False(t, present)
	require.Equal(t, uint32(1), tr.Len())

	present, err = tr.Insert(10, 999)
	require.NoError(t, err)
	require.True(t, present)
	v, ok := tr.Get(10)
	require.True(t, ok)
	require.Equal(t, uint64(100), v)

	old, err := tr.Update(10, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(100), old)
	v, ok = tr.Get(10)
	require.True(t, ok)
	require.Equal(t, uint64(200), v)

	_, err = tr.Update(11, 1)
	require.ErrorIs(t, err, ErrKeyNotFound)

	v, ok = tr.Delete(10)
	require.True(t, ok)
	require.Equal(t, uint64(200), v)
	require.Equal(t, uint32(0), tr.Len())

	_, ok = tr.Delete(10)
	require.False(t, ok)
}

func TestTreeComparatorArgumentOrder(t *testing.T) {
	var calls [][2]uint64
	cmp := func(i, j uint64) int64 {
		calls = append(calls, [2]uint64{i, j})
		return intCmp(i, j)
	}
	tr := New[uint64, uint64](cmp)
	_, err := tr.Insert(5, 0)
	require.NoError(t, err)
	_, err = tr.Insert(3, 0)
	require.NoError(t, err)

	calls = nil
	_, ok := tr.Get(3)
	require.True(t, ok)
	require.NotEmpty(t, calls)
	// The searched key must always be argument i, the resident node's
	// key argument j.
	require.Equal(t, uint64(3), calls[0][0])
	require.Equal(t, uint64(5), calls[0][1])
}

func TestTreeAscendingInsertionsStayBalanced(t *testing.T) {
	tr := newIntTree()
	const n = 512
	for i := uint64(0); i < n; i++ {
		present, err := tr.Insert(i, i*10)
		require.NoError(t, err)
		require.False(t, present)
		require.NoError(t, ValidateInvariants(tr))
	}
	require.Equal(t, uint32(n), tr.Len())
	for i := uint64(0); i < n; i++ {
		v, ok := tr.Get(i)
		require.True(t, ok)
		require.Equal(t, i*10, v)
	}
}

func TestTreeDescendingInsertionsStayBalanced(t *testing.T) {
	tr := newIntTree()
	const n = 512
	for i := uint64(n); i > 0; i-- {
		key := i - 1
		present, err := tr.Insert(key, key*10)
		require.NoError(t, err)
		require.False(t, present)
		require.NoError(t, ValidateInvariants(tr))
	}
	require.Equal(t, uint32(n), tr.Len())
}

func TestTreeRandomInsertDeleteMix(t *testing.T) {
	tr := newIntTree()
	rng := randv2.New(randv2.NewPCG(1, 2))
	model := map[uint64]uint64{}

	const ops = 4000
	for i := 0; i < ops; i++ {
		key := uint64(rng.IntN(600))
		if _, exists := model[key]; !exists || rng.IntN(3) == 0 {
			val := key * 7
			present, err := tr.Insert(key, val)
			require.NoError(t, err)
			require.Equal(t, exists, present)
			if !exists {
				model[key] = val
			}
		} else {
			delete(model, key)
			v, ok := tr.Delete(key)
			require.True(t, ok)
			require.Equal(t, key*7, v)
		}
		require.NoError(t, ValidateInvariants(tr))
	}

	require.Equal(t, uint32(len(model)), tr.Len())
	for k, v := range model {
		got, ok := tr.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestTreeDrainFromRoot(t *testing.T) {
	tr := newIntTree()
	keys := []uint64{50, 25, 75, 12, 37, 62, 87, 6, 18, 31, 43}
	for _, k := range keys {
		_, err := tr.Insert(k, k)
		require.NoError(t, err)
	}
	sorted := append([]uint64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var drained []uint64
	for tr.Len() > 0 {
		k := tr.arena.Key(tr.root)
		v, ok := tr.Delete(k)
		require.True(t, ok)
		require.Equal(t, k, v)
		require.NoError(t, ValidateInvariants(tr))
		drained = append(drained, k)
	}
	sort.Slice(drained, func(i, j int) bool { return drained[i] < drained[j] })
	require.Equal(t, sorted, drained)
	require.Equal(t, uint32(0), tr.Len())
}

func TestTreeDrainLeftSpine(t *testing.T) {
	tr := newIntTree()
	const n = 200
	for i := uint64(n); i > 0; i-- {
		_, err := tr.Insert(i-1, i-1)
		require.NoError(t, err)
	}
	for i := uint64(0); i < n; i++ {
		v, ok := tr.Delete(i)
		require.True(t, ok)
		require.Equal(t, i, v)
		require.NoError(t, ValidateInvariants(tr))
	}
}

func TestTreeRangeBuffer(t *testing.T) {
	tr := newIntTree()
	for i := uint64(0); i < 100; i++ {
		_, err := tr.Insert(i, i*2)
		require.NoError(t, err)
	}

	out := make([]uint64, 10)
	n, err := tr.Range(20, 90, out)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	for i := 0; i < 10; i++ {
		require.Equal(t, uint64(20+i), out[i])
	}

	out = make([]uint64, 200)
	n, err = tr.Range(20, 29, out)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, uint64(20), out[0])
	require.Equal(t, uint64(29), out[9])

	_, err = tr.Range(50, 10, out)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestTreeRangeIterator(t *testing.T) {
	tr := newIntTree()
	for i := uint64(0); i < 50; i++ {
		_, err := tr.Insert(i, i+1000)
		require.NoError(t, err)
	}

	it, err := tr.RangeIterator(10, 20)
	require.NoError(t, err)

	var got []uint64
	for it.HasNext() {
		k, v, ok := it.Next()
		require.True(t, ok)
		require.Equal(t, k+1000, v)
		got = append(got, k)
	}
	require.Len(t, got, 11)
	for i, k := range got {
		require.Equal(t, uint64(10+i), k)
	}

	_, _, ok := it.Next()
	require.False(t, ok)

	_, err = tr.RangeIterator(5, 1)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestTreeRangeIteratorOnEmptyTree(t *testing.T) {
	tr := newIntTree()
	it, err := tr.RangeIterator(0, 10)
	require.NoError(t, err)
	require.False(t, it.HasNext())
}

func TestTreeCapacityExhaustedWithoutAutoGrow(t *testing.T) {
	tr, err := NewWithCapacity[uint64, uint64](intCmp, 2)
	require.NoError(t, err)

	_, err = tr.Insert(1, 1)
	require.NoError(t, err)
	_, err = tr.Insert(2, 2)
	require.NoError(t, err)

	_, err = tr.Insert(3, 3)
	require.ErrorIs(t, err, ErrCapacityExhausted)
	require.Equal(t, uint32(2), tr.Len())
}

func TestTreeAutoGrowReservesOnDemand(t *testing.T) {
	tr, err := NewWithCapacity[uint64, uint64](intCmp, 1, WithAutoGrow[uint64, uint64](4))
	require.NoError(t, err)

	for i := uint64(0); i < 10; i++ {
		_, err := tr.Insert(i, i)
		require.NoError(t, err)
	}
	require.Equal(t, uint32(10), tr.Len())
	require.NoError(t, ValidateInvariants(tr))
}

func TestTreeAllocationFailureLeavesTreeUnchanged(t *testing.T) {
	boom := errors.New("boom")
	failNext := false
	hook := arena.Allocator(func(oldCap, newCap uint32) error {
		if failNext {
			return boom
		}
		return nil
	})

	tr := New[uint64, uint64](intCmp, WithAllocator[uint64, uint64](hook))
	require.NoError(t, tr.Reserve(4))
	_, err := tr.Insert(1, 1)
	require.NoError(t, err)

	failNext = true
	err = tr.Reserve(4)
	require.ErrorIs(t, err, ErrAllocationFailed)
	require.Equal(t, uint32(1), tr.Len())

	v, ok := tr.Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestTreeClearKeepsCapacityAndRestoresColorDefaults(t *testing.T) {
	tr, err := NewWithCapacity[uint64, uint64](intCmp, 64)
	require.NoError(t, err)
	for i := uint64(0); i < 40; i++ {
		_, err := tr.Insert(i, i)
		require.NoError(t, err)
	}
	require.Equal(t, uint32(40), tr.Len())

	tr.Clear()
	require.Equal(t, uint32(0), tr.Len())

	for i := uint64(0); i < 64; i++ {
		present, err := tr.Insert(i, i*2)
		require.NoError(t, err)
		require.False(t, present)
		require.NoError(t, ValidateInvariants(tr))
	}
	require.Equal(t, uint32(64), tr.Len())
	for i := uint64(0); i < 64; i++ {
		v, ok := tr.Get(i)
		require.True(t, ok)
		require.Equal(t, i*2, v)
	}
}

func TestTreeSwapRemoveKeepsRootReferenceCorrect(t *testing.T) {
	tr := newIntTree()
	for i := uint64(0); i < 30; i++ {
		_, err := tr.Insert(i, i)
		require.NoError(t, err)
	}
	for i := uint64(0); i < 25; i++ {
		_, ok := tr.Delete(i)
		require.True(t, ok)
		require.NoError(t, ValidateInvariants(tr))
	}
	for i := uint64(25); i < 30; i++ {
		v, ok := tr.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}
