// Package replay drives per-core reference streams through a memory
// hierarchy in global cycle order.
package replay

import (
	"log"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/sim/hooking"
	"github.com/sarchlab/memhier/trace"
)

// Hook positions published by the engine.
var (
	// HookPosPhaseEnd is invoked after every phase. The item is the index
	// of the phase that ended.
	HookPosPhaseEnd = &hooking.HookPos{Name: "Phase End"}

	// HookPosCoreDone is invoked once when a core runs out of records. The
	// item is the core.
	HookPosCoreDone = &hooking.HookPos{Name: "Core Done"}
)

// An Engine replays the streams of all its cores phase by phase. Within a
// phase, it always advances the core with the earliest pending cycle.
type Engine struct {
	hooking.HookableBase

	queue       sim.EventQueue
	cores       []*Core
	phaseLength uint64
	lineSize    uint64
	logger      *log.Logger

	phase uint64
}

// Builder can build engines.
type Builder struct {
	phaseLength uint64
	lineSize    uint64
	queue       sim.EventQueue
	logger      *log.Logger
}

// MakeBuilder returns a builder with phases of 10000 cycles over 64-byte
// lines.
func MakeBuilder() Builder {
	return Builder{
		phaseLength: 10000,
		lineSize:    64,
	}
}

// WithPhaseLength sets the number of cycles per phase.
func (b Builder) WithPhaseLength(n uint64) Builder {
	b.phaseLength = n
	return b
}

// WithLineSize sets the line size used to split instruction blocks.
func (b Builder) WithLineSize(n uint64) Builder {
	b.lineSize = n
	return b
}

// WithQueue sets the event queue. A timing wheel is used by default.
func (b Builder) WithQueue(q sim.EventQueue) Builder {
	b.queue = q
	return b
}

// WithLogger sets the logger that reports cores running out of records.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates an engine.
func (b Builder) Build() *Engine {
	if b.phaseLength == 0 {
		log.Panic("phase length must be positive")
	}

	if b.lineSize == 0 {
		log.Panic("line size must be positive")
	}

	e := &Engine{
		queue:       b.queue,
		phaseLength: b.phaseLength,
		lineSize:    b.lineSize,
		logger:      b.logger,
	}

	if e.queue == nil {
		e.queue = sim.NewTimingWheel()
	}

	if e.logger == nil {
		e.logger = log.Default()
	}

	return e
}

// AddCore registers a core and schedules it at cycle 0. Cores can only be
// added before the first phase.
func (e *Engine) AddCore(inst, data mem.Memory, stream *trace.Stream) *Core {
	if e.phase > 0 {
		log.Panic("cannot add a core after the replay started")
	}

	c := &Core{
		id:          len(e.cores),
		inst:        inst,
		data:        data,
		stream:      stream,
		phaseLength: e.phaseLength,
		lineSize:    e.lineSize,
	}
	e.cores = append(e.cores, c)
	e.queue.Enqueue(c.id, 0)

	return c
}

// Cores returns the cores in the order they were added.
func (e *Engine) Cores() []*Core {
	return e.cores
}

// Phase returns the number of phases simulated so far.
func (e *Engine) Phase() uint64 {
	return e.phase
}

// PhaseLength returns the number of cycles per phase.
func (e *Engine) PhaseLength() uint64 {
	return e.phaseLength
}

// Done tells if every core has run out of records.
func (e *Engine) Done() bool {
	return e.queue.Len() == 0
}

// SimPhase replays every event that falls in the current phase and moves
// to the next phase.
func (e *Engine) SimPhase() {
	endCycle := (e.phase + 1) * e.phaseLength

	for e.queue.Len() > 0 && e.queue.PeekEarliestCycle() < endCycle {
		id, cycle := e.queue.Dequeue()
		c := e.cores[id]

		rec, ok := c.stream.Pop()
		if !ok {
			e.retire(c)
			continue
		}

		lat := c.issue(rec)
		c.cycles += lat
		e.queue.Enqueue(id, cycle+lat)
	}

	e.invokeHook(HookPosPhaseEnd, e.phase)
	e.phase++
}

// Run simulates phases until every core is done or maxPhases phases have
// run. A maxPhases of 0 means no limit. It returns the number of phases
// simulated by this call.
func (e *Engine) Run(maxPhases uint64) uint64 {
	var n uint64

	for !e.Done() && (maxPhases == 0 || n < maxPhases) {
		e.SimPhase()
		n++
	}

	return n
}

func (e *Engine) retire(c *Core) {
	if c.done {
		return
	}

	c.done = true
	e.logger.Printf("done simulating core %d", c.id)
	e.invokeHook(HookPosCoreDone, c)
}

func (e *Engine) invokeHook(pos *hooking.HookPos, item any) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    pos,
		Item:   item,
	})
}
