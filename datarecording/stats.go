package datarecording

import (
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/replay"
	"github.com/sarchlab/memhier/sim/hooking"
)

// CacheCounterRow is a snapshot of one level's counters at the end of a
// phase.
type CacheCounterRow struct {
	Phase         uint64
	Level         string
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	Evictions     uint64
}

// CoreCounterRow is a snapshot of one core's progress at the end of a phase.
type CoreCounterRow struct {
	Phase  uint64
	Core   int
	Cycles uint64
	Instrs uint64
}

const (
	cacheCounterTable = "cache_counters"
	coreCounterTable  = "core_counters"
)

// PhaseRecorder is a hook that records counters every few phases. It is
// attached to the replay engine.
type PhaseRecorder struct {
	recorder DataRecorder
	levels   []mem.Level
	interval uint64

	recorded bool
	last     uint64
}

// NewPhaseRecorder creates the counter tables and returns a hook that fills
// them. An interval of 0 is treated as 1.
func NewPhaseRecorder(
	recorder DataRecorder,
	levels []mem.Level,
	interval uint64,
) *PhaseRecorder {
	if interval == 0 {
		interval = 1
	}

	recorder.CreateTable(cacheCounterTable, CacheCounterRow{})
	recorder.CreateTable(coreCounterTable, CoreCounterRow{})

	return &PhaseRecorder{
		recorder: recorder,
		levels:   levels,
		interval: interval,
	}
}

// Func records the counters if the phase is a multiple of the interval.
func (r *PhaseRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != replay.HookPosPhaseEnd {
		return
	}

	phase := ctx.Item.(uint64)
	if phase%r.interval != 0 {
		return
	}

	var cores []*replay.Core
	if engine, ok := ctx.Domain.(*replay.Engine); ok {
		cores = engine.Cores()
	}

	r.record(phase, cores)
}

// Finish records the last phase of a run unless the interval already
// covered it. It does nothing if no phase has run.
func (r *PhaseRecorder) Finish(engine *replay.Engine) {
	if engine.Phase() == 0 {
		return
	}

	last := engine.Phase() - 1
	if r.recorded && r.last == last {
		return
	}

	r.record(last, engine.Cores())
}

func (r *PhaseRecorder) record(phase uint64, cores []*replay.Core) {
	r.RecordLevels(phase)
	r.RecordCores(phase, cores)

	r.recorded = true
	r.last = phase
}

// RecordLevels writes one row per level.
func (r *PhaseRecorder) RecordLevels(phase uint64) {
	for _, l := range r.levels {
		c := l.Counters()
		r.recorder.InsertData(cacheCounterTable, CacheCounterRow{
			Phase:         phase,
			Level:         l.Name(),
			Hits:          c.Hits,
			Misses:        c.Misses,
			Invalidations: c.Invalidations,
			Evictions:     c.Evictions,
		})
	}
}

// RecordCores writes one row per core.
func (r *PhaseRecorder) RecordCores(phase uint64, cores []*replay.Core) {
	for _, c := range cores {
		r.recorder.InsertData(coreCounterTable, CoreCounterRow{
			Phase:  phase,
			Core:   c.ID(),
			Cycles: c.Cycles(),
			Instrs: c.Instrs(),
		})
	}
}
