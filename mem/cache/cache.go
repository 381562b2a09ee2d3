// Package cache implements one level of the simulated cache hierarchy.
package cache

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache/internal/tagging"
	"github.com/sarchlab/memhier/mem/cache/replacement"
	"github.com/sarchlab/memhier/sim/hooking"
)

// A Cache is one level of the hierarchy. Misses and writebacks go to the
// parent and invalidations of evicted lines go to the children. Links are
// node ids resolved through the arena that owns the hierarchy.
type Cache struct {
	hooking.HookableBase

	name    string
	role    Role
	latency uint64

	tags     *tagging.TagArray
	policies []replacement.Policy
	rng      *rand.Rand

	resolver mem.Resolver
	parent   mem.NodeID
	children []mem.NodeID

	counters mem.Counters
}

// Name returns the name of the level.
func (c *Cache) Name() string {
	return c.name
}

// Role returns the inclusion role of the level.
func (c *Cache) Role() Role {
	return c.role
}

// Latency returns the hit latency of the level.
func (c *Cache) Latency() uint64 {
	return c.latency
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() int {
	return c.tags.NumSets()
}

// NumWays returns the associativity.
func (c *Cache) NumWays() int {
	return c.tags.NumWays()
}

// Counters returns a copy of the level's counters.
func (c *Cache) Counters() mem.Counters {
	return c.counters
}

// Parent returns the id of the parent level.
func (c *Cache) Parent() mem.NodeID {
	return c.parent
}

// Children returns the ids of the child levels.
func (c *Cache) Children() []mem.NodeID {
	return c.children
}

// SetParent links the level to its parent.
func (c *Cache) SetParent(r mem.Resolver, parent mem.NodeID) {
	if c.parent != mem.NoNode {
		log.Panicf("cache %s already has a parent", c.name)
	}

	c.resolver = r
	c.parent = parent
}

// AddChild registers a level whose copies must be invalidated when this
// level evicts a line.
func (c *Cache) AddChild(child mem.NodeID) {
	for _, ch := range c.children {
		if ch == child {
			log.Panicf("cache %s: child %d added twice", c.name, child)
		}
	}

	c.children = append(c.children, child)
}

// Load reads a line.
func (c *Cache) Load(addr mem.LineAddress) uint64 {
	return c.Access(addr, false)
}

// Store writes a line.
func (c *Cache) Store(addr mem.LineAddress) uint64 {
	return c.Access(addr, true)
}

// Access serves one access and returns its latency in cycles.
func (c *Cache) Access(addr mem.LineAddress, isWrite bool) uint64 {
	c.mustBeLinked()

	setID, tag := c.tags.Codec().Split(addr)
	cycles := c.latency

	way, found := c.lookup(setID, tag)
	if found {
		c.counters.Hits++
		c.invokeHook(HookPosHit, addr, setID, way, isWrite)

		if c.role == RoleSharedLastLevel {
			c.evictOnHit(addr, setID, way, tag, isWrite)
			return cycles
		}
	} else {
		c.counters.Misses++
		c.invokeHook(HookPosMiss, addr, setID, -1, isWrite)

		if c.role == RoleSharedLastLevel && !isWrite {
			return cycles + c.parentLevel().Load(addr)
		}

		way = c.fill(addr, setID, tag)
		cycles += c.parentLevel().Load(addr)
	}

	if isWrite {
		c.tags.MarkDirty(setID, way)
	}

	c.policies[setID].Update(way, tag, !found)

	return cycles
}

// evictOnHit removes a line that was just hit in the last level, so that the
// level keeps no copy of what the levels above hold.
func (c *Cache) evictOnHit(
	addr mem.LineAddress,
	setID, way int,
	tag uint64,
	isWrite bool,
) {
	if isWrite {
		c.tags.MarkDirty(setID, way)
	}

	c.tags.Invalidate(setID, way)
	c.counters.Invalidations++
	c.invokeHook(HookPosInvalidation, addr, setID, way, isWrite)

	c.policies[setID].Update(way, tag, false)
	c.policies[setID].Invalidate(way)
}

// fill installs a line, writing back and invalidating the victim as the
// role requires, and returns the way it went to.
func (c *Cache) fill(addr mem.LineAddress, setID int, tag uint64) int {
	if tag > tagging.MaxTag {
		c.panicInvariant(setID, -1, "tag of %#x does not fit a tag entry", addr)
	}

	way := c.chooseVictim(setID, tag)

	victim := c.tags.Entry(setID, way)
	if victim.Valid() {
		c.counters.Evictions++
		victimAddr := c.reconstruct(setID, way, victim.Tag())
		c.invokeHook(HookPosEviction, victimAddr, setID, way, false)

		if victim.Dirty() || c.role == RolePrivateL2 {
			c.writeback(victimAddr, setID, way)
		}
	}

	c.tags.Install(setID, way, tag)

	return way
}

func (c *Cache) writeback(victimAddr mem.LineAddress, setID, way int) {
	c.invokeHook(HookPosWriteback, victimAddr, setID, way, true)
	c.parentLevel().Store(victimAddr)

	if c.role == RoleSharedLastLevel {
		return
	}

	for _, child := range c.children {
		c.resolver.Node(child).Invalidate(victimAddr)
	}
}

func (c *Cache) chooseVictim(setID int, tag uint64) int {
	numWays := c.tags.NumWays()

	if c.role == RolePrivateL1 {
		return c.rng.Intn(numWays)
	}

	if way, ok := c.tags.FirstInvalid(setID); ok {
		return way
	}

	way := c.policies[setID].ChooseVictim(tag)
	if way < 0 || way >= numWays {
		c.panicInvariant(setID, way, "replacement policy chose a way out of range")
	}

	return way
}

// Invalidate removes a line from this level and from every level below it.
// The invalidation is forwarded even when this level does not hold the line.
func (c *Cache) Invalidate(addr mem.LineAddress) {
	setID, tag := c.tags.Codec().Split(addr)

	if way, found := c.lookup(setID, tag); found {
		c.tags.Invalidate(setID, way)
		c.policies[setID].Invalidate(way)
		c.counters.Invalidations++
		c.invokeHook(HookPosInvalidation, addr, setID, way, false)
	}

	for _, child := range c.children {
		c.resolver.Node(child).Invalidate(addr)
	}
}

// Probe tells if the level holds a line and whether it is dirty. It has no
// side effects.
func (c *Cache) Probe(addr mem.LineAddress) (resident, dirty bool) {
	setID, tag := c.tags.Codec().Split(addr)

	way, found := c.lookup(setID, tag)
	if !found {
		return false, false
	}

	return true, c.tags.Entry(setID, way).Dirty()
}

// ResidentLines lists the addresses of all the lines the level holds.
func (c *Cache) ResidentLines() []mem.LineAddress {
	var lines []mem.LineAddress

	c.tags.Visit(func(setID, wayID int, e tagging.Entry) {
		lines = append(lines, c.reconstruct(setID, wayID, e.Tag()))
	})

	return lines
}

// CheckInvariants scans the whole tag array and reports the first valid way
// that shares its tag with another way of its set or that does not survive
// the set/tag round trip.
func (c *Cache) CheckInvariants() error {
	var violation error

	codec := c.tags.Codec()
	c.tags.Visit(func(setID, wayID int, e tagging.Entry) {
		if violation != nil {
			return
		}

		if _, _, err := c.tags.Lookup(setID, e.Tag()); err != nil {
			violation = c.invariant(setID, wayID, "%v", err)
			return
		}

		s, t := codec.Split(codec.Join(setID, e.Tag()))
		if s != setID || t != e.Tag() {
			violation = c.invariant(setID, wayID,
				"address does not round trip to set %d tag %#x", s, t)
		}
	})

	return violation
}

func (c *Cache) lookup(setID int, tag uint64) (int, bool) {
	way, found, err := c.tags.Lookup(setID, tag)
	if err != nil {
		c.panicInvariant(setID, way, "%v", err)
	}

	return way, found
}

func (c *Cache) reconstruct(setID, way int, tag uint64) mem.LineAddress {
	codec := c.tags.Codec()
	addr := codec.Join(setID, tag)

	s, t := codec.Split(addr)
	if s != setID || t != tag {
		c.panicInvariant(setID, way,
			"address %#x does not round trip to set %d tag %#x", addr, s, t)
	}

	return addr
}

func (c *Cache) parentLevel() mem.Memory {
	return c.resolver.Node(c.parent)
}

func (c *Cache) mustBeLinked() {
	if c.resolver == nil || c.parent == mem.NoNode {
		panic(mem.NewConfigError(c.name, "level has no parent"))
	}
}

func (c *Cache) invokeHook(
	pos *hooking.HookPos,
	addr mem.LineAddress,
	setID, way int,
	isWrite bool,
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   addr,
		Detail: AccessDetail{Set: setID, Way: way, IsWrite: isWrite},
	})
}

func (c *Cache) invariant(
	setID, way int,
	format string,
	args ...any,
) *mem.InvariantViolation {
	return &mem.InvariantViolation{
		Level:  c.name,
		Set:    setID,
		Way:    way,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (c *Cache) panicInvariant(setID, way int, format string, args ...any) {
	panic(c.invariant(setID, way, format, args...))
}
