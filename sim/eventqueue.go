package sim

import (
	"container/heap"
	"container/list"
	"log"
	"sync"
)

// EventQueue orders core wake-up events by cycle. Events of the same cycle
// come out in the order they went in.
type EventQueue interface {
	// Enqueue schedules a core at a cycle. The cycle must not be earlier
	// than the cycle of the last dequeued event.
	Enqueue(core int, cycle uint64)

	// Dequeue removes and returns the earliest event. It panics if the
	// queue is empty.
	Dequeue() (core int, cycle uint64)

	// PeekEarliestCycle returns the cycle of the earliest event. It panics
	// if the queue is empty.
	PeekEarliestCycle() uint64

	// Len returns the number of pending events.
	Len() int
}

// Event is a core scheduled at a cycle.
type Event struct {
	Core  int
	Cycle uint64

	seq uint64
}

// HeapQueue is a thread safe event queue backed by a binary heap.
type HeapQueue struct {
	sync.Mutex
	events  eventHeap
	nextSeq uint64
	now     uint64
}

// NewHeapQueue creates and returns a newly created HeapQueue.
func NewHeapQueue() *HeapQueue {
	q := new(HeapQueue)
	q.events = make([]Event, 0)
	heap.Init(&q.events)

	return q
}

// Enqueue adds an event to the queue.
func (q *HeapQueue) Enqueue(core int, cycle uint64) {
	q.Lock()
	defer q.Unlock()

	mustNotBeInThePast(cycle, q.now)

	heap.Push(&q.events, Event{Core: core, Cycle: cycle, seq: q.nextSeq})
	q.nextSeq++
}

// Dequeue returns the next earliest event.
func (q *HeapQueue) Dequeue() (int, uint64) {
	q.Lock()
	defer q.Unlock()

	mustNotBeEmpty(q.events.Len())

	e := heap.Pop(&q.events).(Event)
	q.now = e.Cycle

	return e.Core, e.Cycle
}

// PeekEarliestCycle returns the cycle of the event in front of the queue.
func (q *HeapQueue) PeekEarliestCycle() uint64 {
	q.Lock()
	defer q.Unlock()

	mustNotBeEmpty(q.events.Len())

	return q.events[0].Cycle
}

// Len returns the number of events in the queue.
func (q *HeapQueue) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()

	return l
}

type eventHeap []Event

func (h eventHeap) Len() int {
	return len(h)
}

// Less orders by cycle, then by enqueue order.
func (h eventHeap) Less(i, j int) bool {
	if h[i].Cycle != h[j].Cycle {
		return h[i].Cycle < h[j].Cycle
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	event := old[n-1]
	*h = old[0 : n-1]

	return event
}

// InsertionQueue is a queue that is based on insertion sort. It is only
// fast when few cores are pending.
type InsertionQueue struct {
	lock sync.RWMutex
	l    *list.List
	now  uint64
}

// NewInsertionQueue returns a new InsertionQueue.
func NewInsertionQueue() *InsertionQueue {
	q := new(InsertionQueue)
	q.l = list.New()

	return q
}

// Enqueue adds an event behind every event of the same or an earlier
// cycle.
func (q *InsertionQueue) Enqueue(core int, cycle uint64) {
	q.lock.Lock()
	defer q.lock.Unlock()

	mustNotBeInThePast(cycle, q.now)

	evt := Event{Core: core, Cycle: cycle}

	var ele *list.Element
	for ele = q.l.Back(); ele != nil; ele = ele.Prev() {
		if ele.Value.(Event).Cycle <= cycle {
			break
		}
	}

	if ele != nil {
		q.l.InsertAfter(evt, ele)
	} else {
		q.l.PushFront(evt)
	}
}

// Dequeue returns the event with the smallest cycle and removes it from the
// queue.
func (q *InsertionQueue) Dequeue() (int, uint64) {
	q.lock.Lock()
	defer q.lock.Unlock()

	mustNotBeEmpty(q.l.Len())

	evt := q.l.Remove(q.l.Front()).(Event)
	q.now = evt.Cycle

	return evt.Core, evt.Cycle
}

// Len return the number of events in the queue.
func (q *InsertionQueue) Len() int {
	q.lock.RLock()
	l := q.l.Len()
	q.lock.RUnlock()

	return l
}

// PeekEarliestCycle returns the cycle of the event at the front of the
// queue.
func (q *InsertionQueue) PeekEarliestCycle() uint64 {
	q.lock.RLock()
	defer q.lock.RUnlock()

	mustNotBeEmpty(q.l.Len())

	return q.l.Front().Value.(Event).Cycle
}

func mustNotBeInThePast(cycle, now uint64) {
	if cycle < now {
		log.Panicf("cannot schedule an event at cycle %d, "+
			"the queue is already at cycle %d", cycle, now)
	}
}

func mustNotBeEmpty(n int) {
	if n == 0 {
		log.Panic("event queue is empty")
	}
}
