package tree

import (
	"github.com/benz9527/xrbtree/lib/arena"
	"github.com/benz9527/xrbtree/lib/infra"
)

// Range copies every key in [min, max] into out, in ascending order,
// stopping once out is full. It reports how many keys were written.
func (t *Tree[K, V]) Range(min, max K, out []K) (int, error) {
	if t.cmp(min, max) > 0 {
		return 0, ErrInvalidRange
	}
	count := 0
	t.rangeWalk(t.root, min, max, out, &count)
	return count, nil
}

func (t *Tree[K, V]) rangeWalk(id arena.SlotID, min, max K, out []K, count *int) bool {
	if *count >= len(out) {
		return false
	}
	if id == arena.None {
		return true
	}
	a := t.arena
	key := a.Key(id)
	if t.cmp(min, key) < 0 {
		if !t.rangeWalk(a.LeftOf(id), min, max, out, count) {
			return false
		}
	}
	if *count >= len(out) {
		return false
	}
	if t.cmp(min, key) <= 0 && t.cmp(key, max) <= 0 {
		out[*count] = key
		*count++
	}
	if t.cmp(max, key) > 0 {
		return t.rangeWalk(a.RightOf(id), min, max, out, count)
	}
	return true
}

// Iterator pulls keys of a Tree in ascending order within [min, max]. A
// Tree must not be mutated while an Iterator over it is live.
type Iterator[K infra.OrderedKey, V any] struct {
	t     *Tree[K, V]
	max   K
	stack []arena.SlotID
	done  bool
}

// RangeIterator returns an Iterator over [min, max]. Unlike Range it
// does not require a preallocated buffer, at the cost of one call per
// key instead of one call per range.
func (t *Tree[K, V]) RangeIterator(min, max K) (*Iterator[K, V], error) {
	if t.cmp(min, max) > 0 {
		return nil, ErrInvalidRange
	}
	it := &Iterator[K, V]{t: t, max: max}
	id := t.root
	for id != arena.None {
		it.stack = append(it.stack, id)
		id = t.arena.LeftOf(id)
	}
	it.skipBelow(min)
	return it, nil
}

// skipBelow discards stack entries strictly less than min by repeatedly
// taking the in-order successor step, rather than re-walking from the
// root with a bound check at every node.
func (it *Iterator[K, V]) skipBelow(min K) {
	a := it.t.arena
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		if it.t.cmp(a.Key(top), min) >= 0 {
			return
		}
		it.stack = it.stack[:len(it.stack)-1]
		for id := a.RightOf(top); id != arena.None; id = a.LeftOf(id) {
			it.stack = append(it.stack, id)
		}
	}
}

// HasNext reports whether Next would yield another key within range.
func (it *Iterator[K, V]) HasNext() bool {
	if it.done || len(it.stack) == 0 {
		return false
	}
	top := it.stack[len(it.stack)-1]
	if it.t.cmp(it.t.arena.Key(top), it.max) > 0 {
		it.done = true
		return false
	}
	return true
}

// Next returns the next key/value pair in ascending order. ok is false
// once the range is exhausted.
func (it *Iterator[K, V]) Next() (key K, val V, ok bool) {
	if !it.HasNext() {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	a := it.t.arena
	id := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	key, val = a.Key(id), a.Value(id)
	for next := a.RightOf(id); next != arena.None; next = a.LeftOf(next) {
		it.stack = append(it.stack, next)
	}
	return key, val, true
}
