// Package mainmemory provides the terminal level of the hierarchy.
package mainmemory

import "github.com/sarchlab/memhier/mem"

// Comp is a main memory that serves every access with a fixed latency. It
// holds no tags, so every access counts as a hit.
type Comp struct {
	name    string
	latency uint64

	loads  uint64
	stores uint64
}

// Builder can build main memories.
type Builder struct {
	latency uint64
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{
		latency: 100,
	}
}

// WithLatency sets the latency of the memory.
func (b Builder) WithLatency(latency uint64) Builder {
	b.latency = latency
	return b
}

// Build creates a main memory.
func (b Builder) Build(name string) *Comp {
	return &Comp{
		name:    name,
		latency: b.latency,
	}
}

// Name returns the name of the memory.
func (c *Comp) Name() string {
	return c.name
}

// Latency returns the access latency.
func (c *Comp) Latency() uint64 {
	return c.latency
}

// Load returns the fixed latency.
func (c *Comp) Load(mem.LineAddress) uint64 {
	c.loads++
	return c.latency
}

// Store returns the fixed latency.
func (c *Comp) Store(mem.LineAddress) uint64 {
	c.stores++
	return c.latency
}

// Invalidate does nothing; main memory always holds every line.
func (c *Comp) Invalidate(mem.LineAddress) {}

// Loads returns the number of loads served.
func (c *Comp) Loads() uint64 {
	return c.loads
}

// Stores returns the number of stores served, which are the writebacks of
// the level above.
func (c *Comp) Stores() uint64 {
	return c.stores
}

// Counters reports every access as a hit.
func (c *Comp) Counters() mem.Counters {
	return mem.Counters{Hits: c.loads + c.stores}
}
