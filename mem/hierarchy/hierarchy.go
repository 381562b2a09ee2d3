// Package hierarchy assembles main memory and the cache levels into the
// topology the replay drives.
package hierarchy

import (
	"fmt"

	"github.com/sarchlab/memhier/config"
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/mem/cache/banked"
	"github.com/sarchlab/memhier/mem/mainmemory"
	"github.com/sarchlab/memhier/sim/hooking"
)

// Hierarchy is a built memory system: main memory, a banked last level,
// and per core an optional private L2 above a pair of private L1s.
type Hierarchy struct {
	arena *Arena

	Memory *mainmemory.Comp
	LLC    *banked.Comp
	L2s    []*cache.Cache
	L1Is   []*cache.Cache
	L1Ds   []*cache.Cache
}

// Build creates the hierarchy a configuration describes.
func Build(cfg config.Config) (*Hierarchy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Hierarchy{arena: NewArena()}

	h.Memory = mainmemory.MakeBuilder().
		WithLatency(cfg.Memory.Main.Latency).
		Build("mem")
	memID := h.arena.Add(h.Memory)

	h.LLC = cfg.BankedBuilder().Build("llc")
	llcID := h.arena.Add(h.LLC)

	if err := h.arena.Link(memID, llcID); err != nil {
		return nil, err
	}

	for core := 0; core < cfg.Sys.NumCores; core++ {
		if err := h.buildCore(cfg, core, llcID); err != nil {
			return nil, err
		}
	}

	if err := h.arena.Seal(); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Hierarchy) buildCore(
	cfg config.Config,
	core int,
	llcID mem.NodeID,
) error {
	l1Parent := llcID

	if cfg.Memory.L2.Present() {
		l2 := cfg.CacheBuilder(cfg.Memory.L2).
			WithRole(cache.RolePrivateL2).
			Build(fmt.Sprintf("l2-%d", core))
		h.L2s = append(h.L2s, l2)

		l1Parent = h.arena.Add(l2)
		if err := h.arena.Link(llcID, l1Parent); err != nil {
			return err
		}
	}

	seed := cfg.Sim.Seed + int64(2*core)

	l1i := cfg.CacheBuilder(cfg.Memory.L1I).
		WithRole(cache.RolePrivateL1).
		WithSeed(seed).
		Build(fmt.Sprintf("l1i-%d", core))
	l1d := cfg.CacheBuilder(cfg.Memory.L1D).
		WithRole(cache.RolePrivateL1).
		WithSeed(seed + 1).
		Build(fmt.Sprintf("l1d-%d", core))
	h.L1Is = append(h.L1Is, l1i)
	h.L1Ds = append(h.L1Ds, l1d)

	for _, l1 := range []*cache.Cache{l1i, l1d} {
		if err := h.arena.Link(l1Parent, h.arena.Add(l1)); err != nil {
			return err
		}
	}

	return nil
}

// Arena returns the arena that owns the levels.
func (h *Hierarchy) Arena() *Arena {
	return h.arena
}

// NumCores returns the number of cores the hierarchy serves.
func (h *Hierarchy) NumCores() int {
	return len(h.L1Ds)
}

// Ports returns the instruction and data L1s of a core.
func (h *Hierarchy) Ports(core int) (inst, data mem.Memory) {
	return h.L1Is[core], h.L1Ds[core]
}

// Levels lists every level, core by core from the L1s down, then the last
// level and main memory.
func (h *Hierarchy) Levels() []mem.Level {
	levels := make([]mem.Level, 0, h.arena.Len())

	for core := range h.L1Ds {
		levels = append(levels, h.L1Is[core], h.L1Ds[core])
		if len(h.L2s) > 0 {
			levels = append(levels, h.L2s[core])
		}
	}

	return append(levels, h.LLC, h.Memory)
}

// Level finds a level by name. Last-level banks can be found by their own
// names as well.
func (h *Hierarchy) Level(name string) (mem.Level, bool) {
	if id, ok := h.arena.Lookup(name); ok {
		return h.arena.Level(id), true
	}

	for _, b := range h.LLC.Banks() {
		if b.Name() == name {
			return b, true
		}
	}

	return nil, false
}

// Caches lists every cache level, including the last-level banks.
func (h *Hierarchy) Caches() []*cache.Cache {
	var caches []*cache.Cache

	for core := range h.L1Ds {
		caches = append(caches, h.L1Is[core], h.L1Ds[core])
		if len(h.L2s) > 0 {
			caches = append(caches, h.L2s[core])
		}
	}

	return append(caches, h.LLC.Banks()...)
}

// AcceptHook registers a hook with every cache level.
func (h *Hierarchy) AcceptHook(hook hooking.Hook) {
	for _, c := range h.Caches() {
		c.AcceptHook(hook)
	}
}

// CheckInvariants checks every level and returns the first violation.
func (h *Hierarchy) CheckInvariants() error {
	for _, c := range h.Caches() {
		if err := c.CheckInvariants(); err != nil {
			return err
		}
	}

	return h.LLC.CheckInvariants()
}
