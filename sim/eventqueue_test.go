package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type dequeued struct {
	core  int
	cycle uint64
}

func drain(q EventQueue) []dequeued {
	var out []dequeued
	for q.Len() > 0 {
		peek := q.PeekEarliestCycle()
		core, cycle := q.Dequeue()
		Expect(cycle).To(Equal(peek))
		out = append(out, dequeued{core, cycle})
	}

	return out
}

var _ = DescribeTable("EventQueue implementations",
	func(newQueue func() EventQueue) {
		By("popping in order")
		q := newQueue()
		for i := 0; i < 100; i++ {
			q.Enqueue(i, uint64(rand.Intn(10000)))
		}

		out := drain(q)
		Expect(out).To(HaveLen(100))
		for i := 1; i < len(out); i++ {
			Expect(out[i].cycle).To(BeNumerically(">=", out[i-1].cycle))
		}

		By("breaking ties by enqueue order")
		q = newQueue()
		q.Enqueue(3, 20)
		q.Enqueue(1, 10)
		q.Enqueue(2, 20)
		q.Enqueue(0, 10)

		Expect(drain(q)).To(Equal([]dequeued{
			{1, 10}, {0, 10}, {3, 20}, {2, 20},
		}))

		By("refusing the past and the empty queue")
		q = newQueue()
		q.Enqueue(0, 50)
		q.Dequeue()
		Expect(func() { q.Enqueue(0, 49) }).To(Panic())
		Expect(func() { q.Dequeue() }).To(Panic())
		Expect(func() { q.PeekEarliestCycle() }).To(Panic())
		q.Enqueue(0, 50)
		Expect(q.Len()).To(Equal(1))
	},
	Entry("heap", func() EventQueue { return NewHeapQueue() }),
	Entry("insertion", func() EventQueue { return NewInsertionQueue() }),
	Entry("timing wheel", func() EventQueue { return NewTimingWheel() }),
	Entry("small timing wheel", func() EventQueue {
		return MakeTimingWheelBuilder().WithNumBlocks(2).Build()
	}),
)
