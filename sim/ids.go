package sim

// IDAllocator issues identifiers for populations, birds and pipes.
// IDs start at 0, strictly increase and are never reused within a run.
type IDAllocator struct {
	next uint64
}

// NewIDAllocator creates an allocator starting at 0.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next unused ID.
func (a *IDAllocator) Next() uint64 {
	id := a.next
	a.next++
	return id
}
