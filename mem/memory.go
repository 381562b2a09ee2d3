// Package mem defines the contract shared by every level of the simulated
// memory hierarchy.
package mem

// A LineAddress identifies one line-sized block of memory. It is already
// shifted by log2 of the line size; byte offsets are never represented.
type LineAddress uint64

// Memory is a level of the hierarchy that can serve line accesses.
//
// Load and Store return the number of cycles the access takes, including
// the time spent in every level above the one being accessed. Invalidate
// returns nothing, as invalidations are assumed to be off the critical path.
type Memory interface {
	Load(addr LineAddress) uint64
	Store(addr LineAddress) uint64
	Invalidate(addr LineAddress)
}

// A Level is a named Memory that reports counters.
type Level interface {
	Memory
	Name() string
	Counters() Counters
}

// NodeID is a stable handle to a level registered in a hierarchy arena.
type NodeID int

// NoNode marks the absence of a link.
const NoNode NodeID = -1

// A Resolver maps node ids to the levels they name.
type Resolver interface {
	Node(id NodeID) Memory
}

// Linkable is implemented by levels whose parent and children are assigned
// after construction, when the topology is assembled.
type Linkable interface {
	SetParent(r Resolver, parent NodeID)
	AddChild(child NodeID)
}
