package replay

import (
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/trace"
)

// A Core replays one reference stream into its private instruction and
// data ports.
type Core struct {
	id          int
	inst        mem.Memory
	data        mem.Memory
	stream      *trace.Stream
	phaseLength uint64
	lineSize    uint64

	cycles uint64
	instrs uint64
	done   bool
}

// ID returns the index of the core.
func (c *Core) ID() int {
	return c.id
}

// Cycles returns the cycles the core has spent so far.
func (c *Core) Cycles() uint64 {
	return c.cycles
}

// Instrs returns the instructions the core has retired so far.
func (c *Core) Instrs() uint64 {
	return c.instrs
}

// PhaseCycles returns how far the core is into its current phase.
func (c *Core) PhaseCycles() uint64 {
	return c.cycles % c.phaseLength
}

// Pending returns the number of records not replayed yet.
func (c *Core) Pending() int {
	return c.stream.Len()
}

// Done tells if the core has run out of records.
func (c *Core) Done() bool {
	return c.done
}

// issue sends a record to the memory system and returns its latency.
// Instruction blocks load every line they cover and take one more cycle
// per instruction.
func (c *Core) issue(r trace.Record) uint64 {
	switch r.Kind {
	case trace.KindLoad:
		return c.data.Load(r.Addr)
	case trace.KindStore:
		return c.data.Store(r.Addr)
	case trace.KindBlock:
		var lat uint64

		n := r.NumLines(c.lineSize)
		for i := uint64(0); i < n; i++ {
			lat += c.inst.Load(r.Addr + mem.LineAddress(i))
		}

		lat += uint64(r.Instrs)
		c.instrs += uint64(r.Instrs)

		return lat
	default:
		panic("invalid trace record kind " + r.Kind.String())
	}
}
