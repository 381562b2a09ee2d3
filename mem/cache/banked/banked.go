// Package banked provides a shared last-level cache split into independent
// banks selected by line address.
package banked

import (
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/sim/hooking"
)

// Comp is a banked cache. Every line lives in exactly one bank, so the
// banks never share state.
type Comp struct {
	name         string
	banks        []*cache.Cache
	bankSelector BankSelector

	accesses uint64
}

// Name returns the name of the cache.
func (c *Comp) Name() string {
	return c.name
}

// Banks returns the banks.
func (c *Comp) Banks() []*cache.Cache {
	return c.banks
}

// Bank returns the bank that serves a line.
func (c *Comp) Bank(addr mem.LineAddress) *cache.Cache {
	return c.banks[c.bankSelector(addr, len(c.banks))]
}

// Accesses returns the number of loads and stores the cache received.
func (c *Comp) Accesses() uint64 {
	return c.accesses
}

// Counters sums the counters of all the banks.
func (c *Comp) Counters() mem.Counters {
	var total mem.Counters
	for _, b := range c.banks {
		total = total.Add(b.Counters())
	}

	return total
}

// SetParent links every bank to the same parent.
func (c *Comp) SetParent(r mem.Resolver, parent mem.NodeID) {
	for _, b := range c.banks {
		b.SetParent(r, parent)
	}
}

// AddChild registers a child with every bank.
func (c *Comp) AddChild(child mem.NodeID) {
	for _, b := range c.banks {
		b.AddChild(child)
	}
}

// AcceptHook registers a hook with every bank. The hook sees each bank as
// the domain of the events it publishes.
func (c *Comp) AcceptHook(hook hooking.Hook) {
	for _, b := range c.banks {
		b.AcceptHook(hook)
	}
}

// Load reads a line from its bank.
func (c *Comp) Load(addr mem.LineAddress) uint64 {
	return c.Access(addr, false)
}

// Store writes a line to its bank.
func (c *Comp) Store(addr mem.LineAddress) uint64 {
	return c.Access(addr, true)
}

// Access routes an access to the bank that owns the line.
func (c *Comp) Access(addr mem.LineAddress, isWrite bool) uint64 {
	c.accesses++
	return c.Bank(addr).Access(addr, isWrite)
}

// Invalidate routes an invalidation to the bank that owns the line.
func (c *Comp) Invalidate(addr mem.LineAddress) {
	c.Bank(addr).Invalidate(addr)
}

// Probe tells if the owning bank holds a line and whether it is dirty.
func (c *Comp) Probe(addr mem.LineAddress) (resident, dirty bool) {
	return c.Bank(addr).Probe(addr)
}

// ResidentLines lists the lines held by all the banks.
func (c *Comp) ResidentLines() []mem.LineAddress {
	var lines []mem.LineAddress
	for _, b := range c.banks {
		lines = append(lines, b.ResidentLines()...)
	}

	return lines
}

// CheckInvariants checks every bank and also that each bank only holds
// lines routed to it.
func (c *Comp) CheckInvariants() error {
	for i, b := range c.banks {
		if err := b.CheckInvariants(); err != nil {
			return err
		}

		for _, line := range b.ResidentLines() {
			if owner := c.bankSelector(line, len(c.banks)); owner != i {
				return &mem.InvariantViolation{
					Level:  b.Name(),
					Set:    -1,
					Way:    -1,
					Reason: "holds a line owned by bank " + c.banks[owner].Name(),
				}
			}
		}
	}

	return nil
}
