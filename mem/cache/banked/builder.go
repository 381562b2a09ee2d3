package banked

import (
	"fmt"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
)

// Builder constructs banked caches.
type Builder struct {
	lineSize         uint64
	byteSize         uint64
	bankSize         uint64
	wayAssociativity int
	latency          uint64
	replaceStrategy  string
	seed             int64
	bankSelector     BankSelector
}

// MakeBuilder creates a builder with the defaults of a 2 MiB last level
// split into 1 MiB banks.
func MakeBuilder() Builder {
	return Builder{
		lineSize:         64,
		byteSize:         2 * mem.MB,
		bankSize:         1 * mem.MB,
		wayAssociativity: 16,
		latency:          15,
		replaceStrategy:  "lru",
		seed:             1,
	}
}

// WithLineSize sets the line size in bytes.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithByteSize sets the total capacity in bytes.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithBankSize sets the capacity of each bank in bytes.
func (b Builder) WithBankSize(bankSize uint64) Builder {
	b.bankSize = bankSize
	return b
}

// WithWayAssociativity sets the associativity of every bank.
func (b Builder) WithWayAssociativity(ways int) Builder {
	b.wayAssociativity = ways
	return b
}

// WithLatency sets the hit latency of every bank.
func (b Builder) WithLatency(latency uint64) Builder {
	b.latency = latency
	return b
}

// WithReplacementPolicy selects the replacement policy of every bank.
func (b Builder) WithReplacementPolicy(name string) Builder {
	b.replaceStrategy = name
	return b
}

// WithSeed sets the seed handed to the banks.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithBankSelector overrides the default interleaving selector.
func (b Builder) WithBankSelector(selector BankSelector) Builder {
	b.bankSelector = selector
	return b
}

// NumBanks returns the number of banks the configuration yields.
func (b Builder) NumBanks() int {
	if b.bankSize == 0 {
		return 0
	}

	return int(b.byteSize / b.bankSize)
}

// Validate checks the configuration and returns a *mem.ConfigError
// describing the first problem found.
func (b Builder) Validate(name string) error {
	if b.bankSize == 0 || b.byteSize == 0 || b.byteSize%b.bankSize != 0 {
		return mem.NewConfigError(name,
			"size %d is not a positive multiple of bank size %d",
			b.byteSize, b.bankSize)
	}

	return b.bankBuilder().Validate(bankName(name, 0))
}

// Build creates a banked cache. It panics with a *mem.ConfigError if the
// configuration is invalid.
func (b Builder) Build(name string) *Comp {
	if err := b.Validate(name); err != nil {
		panic(err)
	}

	selector := b.bankSelector
	if selector == nil {
		selector = InterleaveSelector
	}

	c := &Comp{
		name:         name,
		bankSelector: selector,
		banks:        make([]*cache.Cache, b.NumBanks()),
	}

	bb := b.bankBuilder()
	for i := range c.banks {
		c.banks[i] = bb.WithSeed(b.seed + int64(i)).Build(bankName(name, i))
	}

	return c
}

func (b Builder) bankBuilder() cache.Builder {
	return cache.MakeBuilder().
		WithLineSize(b.lineSize).
		WithByteSize(b.bankSize).
		WithWayAssociativity(b.wayAssociativity).
		WithLatency(b.latency).
		WithRole(cache.RoleSharedLastLevel).
		WithReplacementPolicy(b.replaceStrategy)
}

func bankName(name string, i int) string {
	return fmt.Sprintf("%s-b-%d", name, i)
}
