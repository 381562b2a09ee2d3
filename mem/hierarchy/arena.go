package hierarchy

import (
	"log"

	"github.com/sarchlab/memhier/mem"
)

// An Arena owns the levels of a hierarchy and hands out the stable ids the
// levels use to reach each other.
type Arena struct {
	levels   []mem.Level
	byName   map[string]mem.NodeID
	parents  []mem.NodeID
	children [][]mem.NodeID
	sealed   bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		byName: make(map[string]mem.NodeID),
	}
}

// Add registers a level and returns its id. Level names must be unique.
func (a *Arena) Add(l mem.Level) mem.NodeID {
	a.mustNotBeSealed()

	if _, ok := a.byName[l.Name()]; ok {
		log.Panicf("level %s added twice", l.Name())
	}

	id := mem.NodeID(len(a.levels))
	a.levels = append(a.levels, l)
	a.byName[l.Name()] = id
	a.parents = append(a.parents, mem.NoNode)
	a.children = append(a.children, nil)

	return id
}

// Node returns the level with the given id.
func (a *Arena) Node(id mem.NodeID) mem.Memory {
	return a.Level(id)
}

// Level returns the level with the given id.
func (a *Arena) Level(id mem.NodeID) mem.Level {
	if !a.contains(id) {
		log.Panicf("no level with id %d", id)
	}

	return a.levels[id]
}

// Lookup finds a level by name.
func (a *Arena) Lookup(name string) (mem.NodeID, bool) {
	id, ok := a.byName[name]
	return id, ok
}

// Len returns the number of levels.
func (a *Arena) Len() int {
	return len(a.levels)
}

// Parent returns the parent of a level, or mem.NoNode for the root.
func (a *Arena) Parent(id mem.NodeID) mem.NodeID {
	return a.parents[id]
}

// Children returns the children of a level.
func (a *Arena) Children(id mem.NodeID) []mem.NodeID {
	return a.children[id]
}

// Link makes parent serve the misses and writebacks of child, and makes
// child receive the invalidations of parent. The child must be linkable;
// the parent is told about the child only if it is linkable too.
func (a *Arena) Link(parent, child mem.NodeID) error {
	a.mustNotBeSealed()

	if !a.contains(parent) || !a.contains(child) {
		return mem.NewConfigError("hierarchy",
			"cannot link unknown ids %d -> %d", parent, child)
	}

	childName := a.levels[child].Name()

	if a.parents[child] != mem.NoNode {
		return mem.NewConfigError(childName, "level already has a parent")
	}

	for p := parent; p != mem.NoNode; p = a.parents[p] {
		if p == child {
			return mem.NewConfigError(childName,
				"linking under %s creates a cycle", a.levels[parent].Name())
		}
	}

	linkable, ok := a.levels[child].(mem.Linkable)
	if !ok {
		return mem.NewConfigError(childName, "level cannot have a parent")
	}

	linkable.SetParent(a, parent)
	if p, ok := a.levels[parent].(mem.Linkable); ok {
		p.AddChild(child)
	}

	a.parents[child] = parent
	a.children[parent] = append(a.children[parent], child)

	return nil
}

// Validate checks that every linkable level has a parent, that parent and
// child links agree, and that there is exactly one root.
func (a *Arena) Validate() error {
	roots := 0

	for i, l := range a.levels {
		id := mem.NodeID(i)
		parent := a.parents[id]

		if parent == mem.NoNode {
			if _, ok := l.(mem.Linkable); ok {
				return mem.NewConfigError(l.Name(), "level has no parent")
			}

			roots++

			continue
		}

		if !a.hasChild(parent, id) {
			return mem.NewConfigError(l.Name(),
				"parent %s does not list the level as a child",
				a.levels[parent].Name())
		}
	}

	if roots != 1 {
		return mem.NewConfigError("hierarchy",
			"expected exactly one root level, found %d", roots)
	}

	return nil
}

// Seal validates the arena and forbids any further change.
func (a *Arena) Seal() error {
	if err := a.Validate(); err != nil {
		return err
	}

	a.sealed = true

	return nil
}

func (a *Arena) hasChild(parent, child mem.NodeID) bool {
	for _, c := range a.children[parent] {
		if c == child {
			return true
		}
	}

	return false
}

func (a *Arena) contains(id mem.NodeID) bool {
	return id >= 0 && int(id) < len(a.levels)
}

func (a *Arena) mustNotBeSealed() {
	if a.sealed {
		log.Panic("hierarchy is sealed")
	}
}
