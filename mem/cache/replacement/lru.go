package replacement

// LRU evicts the least recently used way.
type LRU struct {
	// queue lists ways from least to most recently used.
	queue []int
}

// NewLRU creates an LRU policy for a set of numWays ways. Untouched ways
// are ordered by index, so way 0 is the first victim.
func NewLRU(numWays int) *LRU {
	l := &LRU{queue: make([]int, numWays)}
	for i := range l.queue {
		l.queue[i] = i
	}

	return l
}

// ChooseVictim returns the least recently used way.
func (l *LRU) ChooseVictim(uint64) int {
	return l.queue[0]
}

// Update moves way to the most recently used end.
func (l *LRU) Update(way int, _ uint64, _ bool) {
	l.visit(way)
}

// Invalidate moves way to the least recently used end.
func (l *LRU) Invalidate(way int) {
	l.visit(way)

	copy(l.queue[1:], l.queue[:len(l.queue)-1])
	l.queue[0] = way
}

// Order returns the ways from least to most recently used.
func (l *LRU) Order() []int {
	out := make([]int, len(l.queue))
	copy(out, l.queue)

	return out
}

func (l *LRU) visit(way int) {
	pos := -1

	for i, w := range l.queue {
		if w == way {
			pos = i
			break
		}
	}

	if pos < 0 {
		panic("replacement: way not tracked by LRU")
	}

	copy(l.queue[pos:], l.queue[pos+1:])
	l.queue[len(l.queue)-1] = way
}
