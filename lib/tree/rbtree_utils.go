package tree

import (
	"errors"

	"github.com/benz9527/xrbtree/lib/arena"
	"github.com/benz9527/xrbtree/lib/infra"
)

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

// ValidateInvariants walks t once and checks every structural and color
// invariant a live tree must hold. It does not check the net-insertion
// count (I8 in the design notes): the tree only knows its live count,
// not how many Insert calls produced it, so that bookkeeping is left to
// the caller (tests track it alongside their own expected-state model).
func ValidateInvariants[K infra.OrderedKey, V any](t *Tree[K, V]) error {
	if err := validateSelfLinks(t); err != nil {
		return err
	}
	if err := validateColorRules(t); err != nil {
		return err
	}
	if err := validateInorder(t); err != nil {
		return err
	}
	if err := validateBlackHeight(t); err != nil {
		return err
	}
	return nil
}

// validateSelfLinks checks that every slot's Link.Self matches its own
// id, that every non-root slot is referenced by its recorded parent,
// and that the tree has exactly one parentless slot: the root.
func validateSelfLinks[K infra.OrderedKey, V any](t *Tree[K, V]) error {
	a := t.arena
	n := a.Len()
	for s := arena.SlotID(0); uint32(s) < n; s++ {
		link := a.Link(s)
		if link.Self != s {
			return errors.New("rbtree invariant violation: self link mismatch")
		}
		if link.Parent == arena.None {
			if t.root != s {
				return errors.New("rbtree invariant violation: parentless slot is not the root")
			}
			continue
		}
		p := a.Link(link.Parent)
		if p.Left != s && p.Right != s {
			return errors.New("rbtree invariant violation: parent does not reference its child")
		}
	}
	if t.root != arena.None && a.ParentOf(t.root) != arena.None {
		return errors.New("rbtree invariant violation: root has a parent")
	}
	return nil
}

// validateColorRules checks the root-is-black, no-red-right-link and
// no-consecutive-red-left-links invariants across every slot.
func validateColorRules[K infra.OrderedKey, V any](t *Tree[K, V]) error {
	a := t.arena
	if t.root != arena.None && a.IsRed(t.root) {
		return errors.New("rbtree invariant violation: root is red")
	}
	n := a.Len()
	for s := arena.SlotID(0); uint32(s) < n; s++ {
		link := a.Link(s)
		if link.Right != arena.None && a.IsRed(link.Right) {
			return errors.New("rbtree invariant violation: right-leaning red link")
		}
		if a.IsRed(s) && link.Left != arena.None && a.IsRed(link.Left) {
			return errors.New("rbtree invariant violation: consecutive red left links")
		}
	}
	return nil
}

// validateInorder walks the tree in key order with an explicit stack,
// the same shape as the reference RedViolationValidate traversal, and
// checks keys strictly increase.
func validateInorder[K infra.OrderedKey, V any](t *Tree[K, V]) error {
	a := t.arena
	stack := make([]arena.SlotID, 0, 32)
	id := t.root
	for id != arena.None {
		stack = append(stack, id)
		id = a.LeftOf(id)
	}

	var prev K
	havePrev := false
	for len(stack) > 0 {
		size := len(stack)
		id = stack[size-1]
		stack = stack[:size-1]

		key := a.Key(id)
		if havePrev && t.cmp(prev, key) >= 0 {
			return errors.New("rbtree invariant violation: inorder keys not strictly increasing")
		}
		prev, havePrev = key, true

		for r := a.RightOf(id); r != arena.None; r = a.LeftOf(r) {
			stack = append(stack, r)
		}
	}
	return nil
}

// validateBlackHeight loads every leaf via BFS, matching the reference
// bfsLeaves helper, then checks every leaf's black depth to the root
// agrees.
func validateBlackHeight[K infra.OrderedKey, V any](t *Tree[K, V]) error {
	leaves := bfsLeaves(t)
	if leaves == nil {
		return nil
	}
	want := blackDepthTo(t, leaves[0])
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo(t, leaves[i]) != want {
			return errors.New("rbtree invariant violation: unequal black height")
		}
	}
	return nil
}

func bfsLeaves[K infra.OrderedKey, V any](t *Tree[K, V]) []arena.SlotID {
	a := t.arena
	if t.root == arena.None {
		return nil
	}
	leaves := make([]arena.SlotID, 0)
	queue := []arena.SlotID{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		l, r := a.LeftOf(id), a.RightOf(id)
		if l == arena.None || r == arena.None {
			leaves = append(leaves, id)
		}
		if l != arena.None {
			queue = append(queue, l)
		}
		if r != arena.None {
			queue = append(queue, r)
		}
	}
	return leaves
}

// blackDepthTo counts the black nodes on the path from id up to and
// including the root, id itself included.
func blackDepthTo[K infra.OrderedKey, V any](t *Tree[K, V], id arena.SlotID) int {
	a := t.arena
	depth := 0
	for ; id != arena.None; id = a.ParentOf(id) {
		if a.IsBlack(id) {
			depth++
		}
	}
	return depth
}
