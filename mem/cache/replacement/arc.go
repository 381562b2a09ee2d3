package replacement

type arcList uint8

const (
	listNone arcList = iota
	listT1
	listT2
)

// ARC is an adaptive replacement policy for one set. Resident ways are split
// into T1, lines seen once since they were installed, and T2, lines seen
// again. B1 and B2 remember the tags recently evicted from T1 and T2. A miss
// whose tag is in B1 grows the target size of T1, and one whose tag is in B2
// shrinks it.
//
// All lists are ordered from least to most recently used.
type ARC struct {
	numWays int
	target  int

	t1, t2 []int
	b1, b2 []uint64

	wayTag  []uint64
	wayList []arcList
}

// NewARC creates an ARC policy for a set of numWays ways.
func NewARC(numWays int) *ARC {
	return &ARC{
		numWays: numWays,
		t1:      make([]int, 0, numWays),
		t2:      make([]int, 0, numWays),
		b1:      make([]uint64, 0, numWays),
		b2:      make([]uint64, 0, numWays),
		wayTag:  make([]uint64, numWays),
		wayList: make([]arcList, numWays),
	}
}

// ChooseVictim picks the LRU way of T1 when T1 is larger than its target,
// and the LRU way of T2 otherwise. Ways that were never filled go first.
func (a *ARC) ChooseVictim(tag uint64) int {
	for w, l := range a.wayList {
		if l == listNone {
			return w
		}
	}

	if len(a.t2) == 0 {
		return a.t1[0]
	}

	if len(a.t1) > 0 {
		if len(a.t1) > a.target {
			return a.t1[0]
		}

		if len(a.t1) == a.target && indexOfTag(a.b2, tag) >= 0 {
			return a.t1[0]
		}
	}

	return a.t2[0]
}

// Update records an access. On a miss, the tag previously held by the way
// becomes a ghost entry.
func (a *ARC) Update(way int, tag uint64, wasMiss bool) {
	if !wasMiss {
		a.detach(way)
		a.t2 = append(a.t2, way)
		a.wayList[way] = listT2
		a.wayTag[way] = tag

		return
	}

	toT2 := a.adapt(tag)

	switch a.wayList[way] {
	case listT1:
		a.detach(way)
		a.b1 = append(a.b1, a.wayTag[way])
	case listT2:
		a.detach(way)
		a.b2 = append(a.b2, a.wayTag[way])
	}

	if toT2 {
		a.t2 = append(a.t2, way)
		a.wayList[way] = listT2
	} else {
		a.t1 = append(a.t1, way)
		a.wayList[way] = listT1
	}

	a.wayTag[way] = tag
	a.trimGhosts()
}

// Invalidate takes way out of T1 and T2 without leaving a ghost, so that
// the next fill of the way does not count its old tag as an eviction.
func (a *ARC) Invalidate(way int) {
	a.detach(way)
}

// Target returns the current target size of T1.
func (a *ARC) Target() int {
	return a.target
}

// adapt moves the target on a ghost hit and removes the ghost. It reports
// whether the tag had been seen before.
func (a *ARC) adapt(tag uint64) bool {
	if i := indexOfTag(a.b1, tag); i >= 0 {
		a.target = min(a.numWays, a.target+max(1, len(a.b2)/len(a.b1)))
		a.b1 = removeTag(a.b1, i)

		return true
	}

	if i := indexOfTag(a.b2, tag); i >= 0 {
		a.target = max(0, a.target-max(1, len(a.b1)/len(a.b2)))
		a.b2 = removeTag(a.b2, i)

		return true
	}

	return false
}

func (a *ARC) trimGhosts() {
	for len(a.t1)+len(a.b1) > a.numWays && len(a.b1) > 0 {
		a.b1 = a.b1[1:]
	}

	for len(a.t1)+len(a.t2)+len(a.b1)+len(a.b2) > 2*a.numWays {
		if len(a.b2) > 0 {
			a.b2 = a.b2[1:]
		} else {
			a.b1 = a.b1[1:]
		}
	}
}

func (a *ARC) detach(way int) {
	switch a.wayList[way] {
	case listT1:
		a.t1 = removeWay(a.t1, way)
	case listT2:
		a.t2 = removeWay(a.t2, way)
	}

	a.wayList[way] = listNone
}

func removeWay(list []int, way int) []int {
	for i, w := range list {
		if w == way {
			return append(list[:i], list[i+1:]...)
		}
	}

	return list
}

func indexOfTag(list []uint64, tag uint64) int {
	for i, t := range list {
		if t == tag {
			return i
		}
	}

	return -1
}

func removeTag(list []uint64, i int) []uint64 {
	return append(list[:i], list[i+1:]...)
}
