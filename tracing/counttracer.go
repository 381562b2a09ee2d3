package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/memhier/sim/hooking"
	"github.com/sarchlab/memhier/sim/naming"
)

// CountTracer counts how many times each hook position fires at each
// level. It is safe to read while another goroutine runs the simulation.
type CountTracer struct {
	lock   sync.Mutex
	counts map[string]map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: make(map[string]map[string]uint64),
	}
}

// Func counts the event.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	name := naming.NameOf(ctx.Domain, "")

	t.lock.Lock()
	defer t.lock.Unlock()

	perPos, ok := t.counts[name]
	if !ok {
		perPos = make(map[string]uint64)
		t.counts[name] = perPos
	}

	perPos[ctx.Pos.Name]++
}

// Count returns the number of times the position fired at the level.
func (t *CountTracer) Count(level string, pos *hooking.HookPos) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[level][pos.Name]
}

// Total returns the number of times the position fired at any level.
func (t *CountTracer) Total(pos *hooking.HookPos) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	var total uint64
	for _, perPos := range t.counts {
		total += perPos[pos.Name]
	}

	return total
}

// Levels returns the names of the levels seen so far, sorted.
func (t *CountTracer) Levels() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, 0, len(t.counts))
	for name := range t.counts {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Reset clears all counts.
func (t *CountTracer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.counts = make(map[string]map[string]uint64)
}
