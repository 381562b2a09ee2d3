// Package replacement provides the victim selection policies used by the
// caches. Each set owns one policy instance.
package replacement

import (
	"fmt"
	"sort"
)

// A Policy decides which way of a set to evict and keeps the per-set
// metadata it needs to do so.
type Policy interface {
	// ChooseVictim returns the way to evict for an install of tag. It is
	// only called on misses that install a line.
	ChooseVictim(tag uint64) int

	// Update records an access that resolved to way. It is called exactly
	// once for every access that resolves a way.
	Update(way int, tag uint64, wasMiss bool)

	// Invalidate tells the policy that the line in way was dropped without
	// being replaced. The way stops counting as a use of its old tag.
	Invalidate(way int)
}

// A Factory creates the policy of one set.
type Factory func(numWays int) Policy

var factories = map[string]Factory{
	"lru": func(numWays int) Policy { return NewLRU(numWays) },
	"arc": func(numWays int) Policy { return NewARC(numWays) },
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown replacement policy %q", name)
	}

	return f, nil
}

// Register makes a policy available by name. It panics if the name is
// taken.
func Register(name string, f Factory) {
	if _, ok := factories[name]; ok {
		panic("replacement policy " + name + " already registered")
	}

	factories[name] = f
}

// Names lists the registered policies.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
