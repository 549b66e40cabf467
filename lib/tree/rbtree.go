package tree

import (
	"github.com/benz9527/xrbtree/lib/arena"
	"github.com/benz9527/xrbtree/lib/infra"
)

// Tree is an ordered key-value container backed by a left-leaning
// red-black tree whose nodes live in a dense, index-addressed arena
// instead of individually heap-allocated structs. It is not safe for
// concurrent use; callers that need concurrent access must provide
// their own synchronization around a Tree instance.
type Tree[K infra.OrderedKey, V any] struct {
	arena     *arena.Arena[K, V]
	root      arena.SlotID
	cmp       infra.OrderedKeyComparator[K]
	allocator arena.Allocator
	autoGrow  bool
	growBy    uint32
	rotations uint64
}

// Rotations reports the lifetime count of rotateLeft/rotateRight calls
// performed while rebalancing, for a caller to sample into a metrics
// counter; it does not reset.
func (t *Tree[K, V]) Rotations() uint64 { return t.rotations }

// defaultGrowBy is the auto-grow floor New falls back on when no
// WithAutoGrow option overrides it. Insert doubles past this floor once
// the tree has outgrown it, so growth is amortized rather than a fixed
// per-call reservation.
const defaultGrowBy = 8

// New builds an empty tree ordered by cmp, ready to Insert into
// immediately: it starts with zero capacity but auto-grows on demand,
// since a caller reaching for New instead of NewWithCapacity is asking
// for convenience over control. cmp must return negative when i < j,
// zero when equal, and positive when i > j; i is always the search or
// inserted key, j is always the resident node's key.
func New[K infra.OrderedKey, V any](cmp infra.OrderedKeyComparator[K], opts ...Option[K, V]) *Tree[K, V] {
	t := &Tree[K, V]{
		root:     arena.None,
		cmp:      cmp,
		autoGrow: true,
		growBy:   defaultGrowBy,
	}
	for _, o := range opts {
		o(t)
	}
	t.arena = newArena[K, V](t.allocator)
	return t
}

// NewWithCapacity builds a tree ordered by cmp with capacity pre-reserved
// for at least capacity slots. Unlike New, it does not auto-grow beyond
// that capacity unless WithAutoGrow is passed: an explicit capacity is
// taken as a deliberate bound.
func NewWithCapacity[K infra.OrderedKey, V any](cmp infra.OrderedKeyComparator[K], capacity uint32, opts ...Option[K, V]) (*Tree[K, V], error) {
	t := &Tree[K, V]{
		root: arena.None,
		cmp:  cmp,
	}
	for _, o := range opts {
		o(t)
	}
	t.arena = newArena[K, V](t.allocator)
	if err := t.Reserve(capacity); err != nil {
		return nil, err
	}
	return t, nil
}

func newArena[K infra.OrderedKey, V any](allocator arena.Allocator) *arena.Arena[K, V] {
	if allocator == nil {
		return arena.New[K, V]()
	}
	return arena.New[K, V](arena.WithAllocator[K, V](allocator))
}

// Len reports the number of key-value pairs currently stored.
func (t *Tree[K, V]) Len() uint32 { return t.arena.Len() }

// Reserve grows the tree's backing arena by n slots without mutating
// any existing content. It is the only operation on Tree allowed to
// allocate.
func (t *Tree[K, V]) Reserve(n uint32) error {
	if err := t.arena.Reserve(n); err != nil {
		return ErrAllocationFailed
	}
	return nil
}

// Release drops all backing storage. Every slot id previously observed
// is invalidated.
func (t *Tree[K, V]) Release() {
	t.arena = newArena[K, V](t.allocator)
	t.root = arena.None
}

// Clear empties the tree but keeps its reserved capacity, so a caller
// that plans to refill it right away can skip the Reserve a Release
// would otherwise force. Every slot id previously observed is
// invalidated.
func (t *Tree[K, V]) Clear() {
	t.arena.Reset()
	t.root = arena.None
}

func (t *Tree[K, V]) find(key K) arena.SlotID {
	a := t.arena
	id := t.root
	for id != arena.None {
		switch c := t.cmp(key, a.Key(id)); {
		case c < 0:
			id = a.LeftOf(id)
		case c > 0:
			id = a.RightOf(id)
		default:
			return id
		}
	}
	return arena.None
}

// Get returns the value stored under key, if any.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	id := t.find(key)
	if id == arena.None {
		var zero V
		return zero, false
	}
	return t.arena.Value(id), true
}

// Update overwrites the value stored under key without affecting tree
// shape. It fails with ErrKeyNotFound if key is absent.
func (t *Tree[K, V]) Update(key K, val V) (old V, err error) {
	id := t.find(key)
	if id == arena.None {
		var zero V
		return zero, ErrKeyNotFound
	}
	old = t.arena.Value(id)
	t.arena.SetValue(id, val)
	return old, nil
}

// descend locates the slot under which key must be inserted, assuming
// key is not already present. It returns the would-be parent and -1 if
// key belongs to its left, +1 if to its right.
func (t *Tree[K, V]) descend(key K) (parent arena.SlotID, dir int) {
	a := t.arena
	id := t.root
	for {
		if t.cmp(key, a.Key(id)) < 0 {
			if l := a.LeftOf(id); l != arena.None {
				id = l
				continue
			}
			return id, -1
		}
		if r := a.RightOf(id); r != arena.None {
			id = r
			continue
		}
		return id, 1
	}
}

// Insert adds key/val if key is not already present. alreadyPresent is
// true, and the tree is left unchanged, if key was already there — the
// LLRB never overwrites on insert; use Update for that.
func (t *Tree[K, V]) Insert(key K, val V) (alreadyPresent bool, err error) {
	if t.find(key) != arena.None {
		return true, nil
	}
	if t.arena.Len() >= arena.MaxLiveSlots {
		return false, ErrFullTree
	}
	if t.arena.Free() == 0 {
		if !t.autoGrow {
			return false, ErrCapacityExhausted
		}
		grow := t.growBy
		if cur := t.arena.Len(); cur > grow {
			grow = cur // double past the configured floor
		}
		if rerr := t.arena.Reserve(grow); rerr != nil {
			return false, ErrAllocationFailed
		}
	}

	if t.root == arena.None {
		t.root = t.arena.Append(key, val, false, arena.None)
		return false, nil
	}

	parent, dir := t.descend(key)
	leaf := t.arena.Append(key, val, true, parent)
	if dir < 0 {
		t.arena.SetLeft(parent, leaf)
	} else {
		t.arena.SetRight(parent, leaf)
	}

	t.insertRebalance(parent)
	return false, nil
}

// insertRebalance walks up from p, the new red leaf's parent, restoring
// LLRB shape. The case order matches the design notes exactly: it is
// not the textbook Sedgewick ordering, which checks the color-flip case
// last instead of first.
func (t *Tree[K, V]) insertRebalance(p arena.SlotID) {
	a := t.arena
	for p != arena.None {
		l, r := a.LeftOf(p), a.RightOf(p)
		if a.IsRed(l) && a.IsRed(r) {
			t.flipColors(p)
			if p == t.root {
				a.SetBlack(p)
				return
			}
			p = a.ParentOf(p)
			continue
		}
		if a.IsRed(r) {
			p = t.rotateLeft(p)
			continue
		}
		if a.IsRed(l) && a.IsRed(a.LeftOf(l)) {
			p = t.rotateRight(p)
			continue
		}
		if p == t.root {
			return
		}
		p = a.ParentOf(p)
	}
}

// replaceChild repoints parent's child pointer from oldChild to
// newChild, or sets the tree root if oldChild had no parent.
func (t *Tree[K, V]) replaceChild(parent, oldChild, newChild arena.SlotID) {
	if parent == arena.None {
		t.root = newChild
		return
	}
	a := t.arena
	switch oldChild {
	case a.LeftOf(parent):
		a.SetLeft(parent, newChild)
	case a.RightOf(parent):
		a.SetRight(parent, newChild)
	default:
		panic( /* debug assertion */ "[xrbtree] replaceChild: oldChild not linked from parent")
	}
}

// rotateLeft requires n.right != None. It returns the new subtree root.
func (t *Tree[K, V]) rotateLeft(n arena.SlotID) arena.SlotID {
	a := t.arena
	r := a.RightOf(n)
	if r == arena.None {
		panic( /* debug assertion */ "[xrbtree] left rotate: missing right child")
	}
	t.rotations++
	p := a.ParentOf(n)
	a.SetParent(r, p)
	t.replaceChild(p, n, r)

	a.SetRight(n, a.LeftOf(r))
	a.SetLeft(r, n)

	nRed, rRed := a.IsRed(n), a.IsRed(r)
	setColor(a, n, rRed)
	setColor(a, r, nRed)
	return r
}

// rotateRight requires n.left != None. It returns the new subtree root.
func (t *Tree[K, V]) rotateRight(n arena.SlotID) arena.SlotID {
	a := t.arena
	l := a.LeftOf(n)
	if l == arena.None {
		panic( /* debug assertion */ "[xrbtree] right rotate: missing left child")
	}
	t.rotations++
	p := a.ParentOf(n)
	a.SetParent(l, p)
	t.replaceChild(p, n, l)

	a.SetLeft(n, a.RightOf(l))
	a.SetRight(l, n)

	nRed, lRed := a.IsRed(n), a.IsRed(l)
	setColor(a, n, lRed)
	setColor(a, l, nRed)
	return l
}

func setColor[K infra.OrderedKey, V any](a *arena.Arena[K, V], id arena.SlotID, red bool) {
	if red {
		a.SetRed(id)
	} else {
		a.SetBlack(id)
	}
}

// flipColors requires both children of n to exist.
func (t *Tree[K, V]) flipColors(n arena.SlotID) {
	a := t.arena
	a.ToggleColor(n)
	a.ToggleColor(a.LeftOf(n))
	a.ToggleColor(a.RightOf(n))
}

func (t *Tree[K, V]) leftmost(n arena.SlotID) arena.SlotID {
	a := t.arena
	for a.LeftOf(n) != arena.None {
		n = a.LeftOf(n)
	}
	return n
}

// moveRedLeft ensures n.left or one of its children is red before the
// deletion search descends left, so removal never leaves the left
// subtree short a black link.
func (t *Tree[K, V]) moveRedLeft(n arena.SlotID) arena.SlotID {
	a := t.arena
	t.flipColors(n)
	if a.IsRed(a.LeftOf(a.RightOf(n))) {
		t.rotateRight(a.RightOf(n))
		n = t.rotateLeft(n)
		t.flipColors(n)
	}
	return n
}

// moveRedRight is the mirror of moveRedLeft for a rightward descent.
func (t *Tree[K, V]) moveRedRight(n arena.SlotID) arena.SlotID {
	a := t.arena
	t.flipColors(n)
	if a.IsRed(a.LeftOf(a.LeftOf(n))) {
		n = t.rotateRight(n)
		t.flipColors(n)
	}
	return n
}

// fixUp restores LLRB shape at n on the way back up from a deletion.
// The three checks are independent, applied in this exact order, and
// may cascade (a left-rotate can create the left-left-red shape the
// third check looks for).
func (t *Tree[K, V]) fixUp(n arena.SlotID) arena.SlotID {
	a := t.arena
	if a.IsRed(a.LeftOf(n)) && a.IsRed(a.RightOf(n)) {
		t.flipColors(n)
	}
	if a.IsRed(a.RightOf(n)) {
		n = t.rotateLeft(n)
	}
	if a.IsRed(a.LeftOf(n)) && a.IsRed(a.LeftOf(a.LeftOf(n))) {
		n = t.rotateRight(n)
		t.flipColors(n)
	}
	return n
}

// removeMin deletes the minimum-keyed node of the subtree rooted at n
// and returns the new subtree root.
func (t *Tree[K, V]) removeMin(n arena.SlotID) arena.SlotID {
	a := t.arena
	if a.LeftOf(n) == arena.None {
		return arena.None
	}
	if !a.IsRed(a.LeftOf(n)) && !a.IsRed(a.LeftOf(a.LeftOf(n))) {
		n = t.moveRedLeft(n)
	}
	a.SetLeft(n, t.removeMin(a.LeftOf(n)))
	return t.fixUp(n)
}

// deleteNode removes key from the subtree rooted at n and returns the
// new subtree root. It never copies a key or value between slots: when
// an internal node must be removed, the in-order successor's link
// record is spliced into the deleted node's tree position, and the
// deleted node's own slot id — still holding its original key/value —
// is left structurally detached for the caller to hand to arena
// SwapRemove.
func (t *Tree[K, V]) deleteNode(n arena.SlotID, key K) arena.SlotID {
	a := t.arena
	if t.cmp(key, a.Key(n)) < 0 {
		if !a.IsRed(a.LeftOf(n)) && !a.IsRed(a.LeftOf(a.LeftOf(n))) {
			n = t.moveRedLeft(n)
		}
		a.SetLeft(n, t.deleteNode(a.LeftOf(n), key))
		return t.fixUp(n)
	}

	if a.IsRed(a.LeftOf(n)) {
		n = t.rotateRight(n)
	}
	if t.cmp(key, a.Key(n)) == 0 && a.RightOf(n) == arena.None {
		return arena.None
	}
	if !a.IsRed(a.RightOf(n)) && !a.IsRed(a.LeftOf(a.RightOf(n))) {
		n = t.moveRedRight(n)
	}
	if t.cmp(key, a.Key(n)) == 0 {
		succ := t.leftmost(a.RightOf(n))
		left, parent, red := a.LeftOf(n), a.ParentOf(n), a.IsRed(n)
		newRight := t.removeMin(a.RightOf(n))
		a.SetLeft(succ, left)
		a.SetRight(succ, newRight)
		a.SetParent(succ, parent)
		setColor(a, succ, red)
		t.replaceChild(parent, n, succ)
		n = succ
	} else {
		a.SetRight(n, t.deleteNode(a.RightOf(n), key))
	}
	return t.fixUp(n)
}

// Delete removes key, returning its value and true if it was present.
func (t *Tree[K, V]) Delete(key K) (V, bool) {
	id := t.find(key)
	if id == arena.None {
		var zero V
		return zero, false
	}

	t.root = t.deleteNode(t.root, key)
	if t.root != arena.None {
		t.arena.SetBlack(t.root)
	}

	_, val, moved := t.arena.SwapRemove(id)
	if moved != arena.None && t.root == moved {
		t.root = id
	}
	return val, true
}
