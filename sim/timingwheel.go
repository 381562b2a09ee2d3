package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"log"
	"math/bits"
	"sync"
)

// ErrOverflowFull is raised when an event has to be held beyond the horizon
// of a timing wheel whose overflow is already at capacity.
var ErrOverflowFull = errors.New("timing wheel overflow is full")

const slotsPerBlock = 64

// A TimingWheel is an EventQueue built from a ring of blocks of 64 cycles.
// The ring covers a window of cycles that rolls forward with the wheel.
// Events beyond the window wait in an overflow heap and are moved into the
// ring every time the wheel crosses half a ring.
type TimingWheel struct {
	sync.Mutex

	blocks   []wheelBlock
	overflow eventHeap
	capacity int

	curBlock   uint64
	migratedTo uint64
	ringLen    int
	nextSeq    uint64
	now        uint64
}

type wheelBlock struct {
	occ   uint64
	slots [slotsPerBlock]wheelSlot
}

type wheelSlot struct {
	cores []int
	head  int
}

func (s *wheelSlot) push(core int) {
	s.cores = append(s.cores, core)
}

func (s *wheelSlot) pop() (core int, empty bool) {
	core = s.cores[s.head]
	s.head++

	if s.head == len(s.cores) {
		s.cores = s.cores[:0]
		s.head = 0

		return core, true
	}

	return core, false
}

// TimingWheelBuilder can build timing wheels.
type TimingWheelBuilder struct {
	numBlocks        int
	overflowCapacity int
}

// MakeTimingWheelBuilder returns a builder for a wheel of 1024 blocks with
// an unbounded overflow.
func MakeTimingWheelBuilder() TimingWheelBuilder {
	return TimingWheelBuilder{
		numBlocks: 1024,
	}
}

// WithNumBlocks sets the number of 64-cycle blocks in the ring. It must be
// even and at least 2.
func (b TimingWheelBuilder) WithNumBlocks(n int) TimingWheelBuilder {
	b.numBlocks = n
	return b
}

// WithOverflowCapacity bounds the number of events held beyond the
// horizon. Zero means unbounded.
func (b TimingWheelBuilder) WithOverflowCapacity(n int) TimingWheelBuilder {
	b.overflowCapacity = n
	return b
}

// Build creates a timing wheel.
func (b TimingWheelBuilder) Build() *TimingWheel {
	if b.numBlocks < 2 || b.numBlocks%2 != 0 {
		log.Panicf("timing wheel needs an even number of blocks, got %d",
			b.numBlocks)
	}

	return &TimingWheel{
		blocks:     make([]wheelBlock, b.numBlocks),
		overflow:   make(eventHeap, 0),
		capacity:   b.overflowCapacity,
		migratedTo: uint64(b.numBlocks),
	}
}

// NewTimingWheel creates a timing wheel with the default geometry.
func NewTimingWheel() *TimingWheel {
	return MakeTimingWheelBuilder().Build()
}

// Enqueue schedules a core at a cycle.
func (w *TimingWheel) Enqueue(core int, cycle uint64) {
	w.Lock()
	defer w.Unlock()

	mustNotBeInThePast(cycle, w.now)

	seq := w.nextSeq
	w.nextSeq++

	if cycle/slotsPerBlock < w.migratedTo {
		w.insert(core, cycle)
		return
	}

	if w.capacity > 0 && w.overflow.Len() >= w.capacity {
		panic(fmt.Errorf("%w: cannot hold cycle %d", ErrOverflowFull, cycle))
	}

	heap.Push(&w.overflow, Event{Core: core, Cycle: cycle, seq: seq})
}

// Dequeue removes and returns the earliest event.
func (w *TimingWheel) Dequeue() (int, uint64) {
	w.Lock()
	defer w.Unlock()

	mustNotBeEmpty(w.len())

	if w.ringLen == 0 {
		w.jumpToOverflow()
	}

	for w.blocks[w.curBlock%w.numBlocks()].occ == 0 {
		w.curBlock++
		if w.curBlock%(w.numBlocks()/2) == 0 {
			w.migrate()
		}
	}

	block := &w.blocks[w.curBlock%w.numBlocks()]
	offset := bits.TrailingZeros64(block.occ)

	core, empty := block.slots[offset].pop()
	if empty {
		block.occ &^= 1 << offset
	}

	w.ringLen--
	w.now = w.curBlock*slotsPerBlock + uint64(offset)

	return core, w.now
}

// PeekEarliestCycle returns the cycle of the earliest event.
func (w *TimingWheel) PeekEarliestCycle() uint64 {
	w.Lock()
	defer w.Unlock()

	mustNotBeEmpty(w.len())

	if w.ringLen == 0 {
		return w.overflow[0].Cycle
	}

	for b := w.curBlock; b < w.migratedTo; b++ {
		occ := w.blocks[b%w.numBlocks()].occ
		if occ != 0 {
			return b*slotsPerBlock + uint64(bits.TrailingZeros64(occ))
		}
	}

	panic("timing wheel lost track of its events")
}

// Len returns the number of pending events.
func (w *TimingWheel) Len() int {
	w.Lock()
	defer w.Unlock()

	return w.len()
}

// OverflowLen returns the number of events held beyond the horizon.
func (w *TimingWheel) OverflowLen() int {
	w.Lock()
	defer w.Unlock()

	return w.overflow.Len()
}

// Horizon returns the first cycle that is not covered by the ring.
func (w *TimingWheel) Horizon() uint64 {
	w.Lock()
	defer w.Unlock()

	return w.migratedTo * slotsPerBlock
}

func (w *TimingWheel) len() int {
	return w.ringLen + w.overflow.Len()
}

func (w *TimingWheel) numBlocks() uint64 {
	return uint64(len(w.blocks))
}

func (w *TimingWheel) insert(core int, cycle uint64) {
	block := &w.blocks[(cycle/slotsPerBlock)%w.numBlocks()]
	offset := cycle % slotsPerBlock

	block.slots[offset].push(core)
	block.occ |= 1 << offset
	w.ringLen++
}

// jumpToOverflow moves an empty ring straight to the block of the earliest
// overflow event.
func (w *TimingWheel) jumpToOverflow() {
	w.curBlock = w.overflow[0].Cycle / slotsPerBlock
	w.migrate()
}

// migrate extends the horizon to a full ring ahead of the current block and
// moves every overflow event that now falls inside it into the ring, in
// cycle and then enqueue order.
func (w *TimingWheel) migrate() {
	horizon := w.curBlock + w.numBlocks()
	if horizon > w.migratedTo {
		w.migratedTo = horizon
	}

	for w.overflow.Len() > 0 &&
		w.overflow[0].Cycle/slotsPerBlock < w.migratedTo {
		e := heap.Pop(&w.overflow).(Event)
		w.insert(e.Core, e.Cycle)
	}
}
