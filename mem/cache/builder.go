package cache

import (
	"math/bits"
	"math/rand"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache/internal/tagging"
	"github.com/sarchlab/memhier/mem/cache/replacement"
)

// MinSets is the smallest number of sets a cache can have. With fewer sets
// the tag of a 64-bit line address would not fit a tag entry.
const MinSets = 4

// Builder can build caches.
type Builder struct {
	lineSize         uint64
	byteSize         uint64
	wayAssociativity int
	latency          uint64
	role             Role
	replaceStrategy  string
	policyFactory    replacement.Factory
	seed             int64
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		lineSize:         64,
		byteSize:         32 * mem.KB,
		wayAssociativity: 4,
		latency:          1,
		role:             RolePrivateL1,
		replaceStrategy:  "lru",
		seed:             1,
	}
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithByteSize sets the capacity of the cache in bytes.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the number of ways per set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithLatency sets the hit latency in cycles.
func (b Builder) WithLatency(latency uint64) Builder {
	b.latency = latency
	return b
}

// WithRole sets the inclusion role of the level.
func (b Builder) WithRole(role Role) Builder {
	b.role = role
	return b
}

// WithReplacementPolicy selects a registered replacement policy by name.
func (b Builder) WithReplacementPolicy(name string) Builder {
	b.replaceStrategy = name
	b.policyFactory = nil

	return b
}

// WithPolicyFactory sets the factory that creates the policy of each set.
func (b Builder) WithPolicyFactory(f replacement.Factory) Builder {
	b.policyFactory = f
	return b
}

// WithSeed sets the seed of the random victim selection of L1 levels.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// NumSets returns the number of sets the configured geometry yields.
func (b Builder) NumSets() int {
	return int(b.byteSize / (b.lineSize * uint64(b.wayAssociativity)))
}

// Validate checks the geometry and returns a *mem.ConfigError describing
// the first problem found.
func (b Builder) Validate(name string) error {
	if b.lineSize == 0 || bits.OnesCount64(b.lineSize) != 1 {
		return mem.NewConfigError(name,
			"line size %d is not a power of two", b.lineSize)
	}

	if b.wayAssociativity <= 0 {
		return mem.NewConfigError(name,
			"associativity must be positive, got %d", b.wayAssociativity)
	}

	setSize := b.lineSize * uint64(b.wayAssociativity)
	if b.byteSize == 0 || b.byteSize%setSize != 0 {
		return mem.NewConfigError(name,
			"size %d is not a multiple of line size x ways (%d)",
			b.byteSize, setSize)
	}

	if numSets := b.NumSets(); numSets < MinSets {
		return mem.NewConfigError(name,
			"%d sets is below the minimum of %d", numSets, MinSets)
	}

	if b.role < RolePrivateL1 || b.role > RoleSharedLastLevel {
		return mem.NewConfigError(name, "unknown role %d", int(b.role))
	}

	if b.policyFactory == nil {
		if _, err := replacement.Lookup(b.replaceStrategy); err != nil {
			return mem.NewConfigError(name, "%v", err)
		}
	}

	return nil
}

// Build builds a cache. It panics with a *mem.ConfigError if the geometry
// is invalid.
func (b Builder) Build(name string) *Cache {
	if err := b.Validate(name); err != nil {
		panic(err)
	}

	numSets := b.NumSets()

	c := &Cache{
		name:     name,
		role:     b.role,
		latency:  b.latency,
		tags:     tagging.NewTagArray(numSets, b.wayAssociativity),
		rng:      rand.New(rand.NewSource(b.seed)),
		parent:   mem.NoNode,
		policies: make([]replacement.Policy, numSets),
	}

	factory := b.createPolicyFactory()
	for i := range c.policies {
		c.policies[i] = factory(b.wayAssociativity)
	}

	return c
}

func (b Builder) createPolicyFactory() replacement.Factory {
	if b.policyFactory != nil {
		return b.policyFactory
	}

	f, err := replacement.Lookup(b.replaceStrategy)
	if err != nil {
		panic("unknown replace strategy: " + b.replaceStrategy)
	}

	return f
}
