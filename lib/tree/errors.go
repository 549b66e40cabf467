package tree

import "errors"

var (
	// ErrFullTree is returned by Insert when the arena's slot id space
	// is exhausted (N would reach the sentinel id). The tree is left
	// unchanged.
	ErrFullTree = errors.New("[xrbtree] tree is full, slot id space exhausted")

	// ErrCapacityExhausted is returned by Insert on a tree without
	// auto-growth (NewWithCapacity without WithAutoGrow) when no reserved
	// slot remains. Call Reserve first, or construct the tree with
	// WithAutoGrow.
	ErrCapacityExhausted = errors.New("[xrbtree] insert without reserved capacity, call Reserve first")

	// ErrKeyNotFound is returned by Update when the key is absent.
	ErrKeyNotFound = errors.New("[xrbtree] key not found")

	// ErrAllocationFailed is returned by Reserve, capacity-taking
	// constructors and auto-growing Insert when the arena's Allocator
	// hook rejects a capacity request. The tree is left unchanged.
	ErrAllocationFailed = errors.New("[xrbtree] allocation failed")

	// ErrInvalidRange is returned by Range and RangeIterator when min
	// compares greater than max under the tree's comparator.
	ErrInvalidRange = errors.New("[xrbtree] invalid range, min > max")
)
