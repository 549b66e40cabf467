package tree

import (
	"github.com/benz9527/xrbtree/lib/arena"
	"github.com/benz9527/xrbtree/lib/infra"
)

// Option configures a Tree at construction time.
type Option[K infra.OrderedKey, V any] func(*Tree[K, V])

// WithAllocator installs a hook consulted before every capacity grow,
// so a caller can observe or veto Reserve requests (see arena.Allocator).
func WithAllocator[K infra.OrderedKey, V any](fn arena.Allocator) Option[K, V] {
	return func(t *Tree[K, V]) {
		t.allocator = fn
	}
}

// WithAutoGrow enables a convenience mode where Insert reserves growBy
// more slots itself (doubling past that floor as the tree outgrows it)
// instead of returning ErrFullTree-adjacent capacity errors, at the
// cost of Insert no longer being allocation-free on the growth step.
// New enables this by default; NewWithCapacity leaves it off unless
// this option is passed, since an explicit capacity is taken as a
// deliberate bound (see §5 of the design notes for the hot-path
// "assume capacity" contract this opts out of).
func WithAutoGrow[K infra.OrderedKey, V any](growBy uint32) Option[K, V] {
	return func(t *Tree[K, V]) {
		t.autoGrow = true
		if growBy == 0 {
			growBy = 1
		}
		t.growBy = growBy
	}
}
