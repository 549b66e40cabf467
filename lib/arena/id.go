package arena

// SlotID addresses a position in an Arena's parallel containers.
// The sentinel None is all-ones and never names a live slot; the
// largest addressable live slot is MaxLiveSlots-1.
type SlotID uint32

// None is the sentinel slot id, all bits set.
const None SlotID = SlotID(^uint32(0))

// MaxLiveSlots is the largest number of slots an Arena can hold. It
// equals the sentinel's value, so the largest live id (MaxLiveSlots-1)
// is one less than None and every live id remains distinguishable
// from None.
const MaxLiveSlots = uint32(None)

// Link is the per-slot structural record threaded through the tree
// engines. Self duplicates the slot's own array index; it is kept
// because engines pass link records by value without carrying the
// index alongside them, and because it lets a moved-in record (see
// Arena.SwapRemove) assert its own identity after relocation.
type Link struct {
	Self, Left, Right, Parent SlotID
}
