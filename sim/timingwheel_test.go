package sim

import (
	"errors"
	"math/rand"
	"sort"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimingWheel", func() {
	It("should migrate a far event from the overflow", func() {
		w := NewTimingWheel()

		w.Enqueue(0, 5)
		w.Enqueue(1, 1000000)
		w.Enqueue(2, 7)
		Expect(w.OverflowLen()).To(Equal(1))

		Expect(drain(w)).To(Equal([]dequeued{
			{0, 5}, {2, 7}, {1, 1000000},
		}))
		Expect(w.OverflowLen()).To(Equal(0))
	})

	It("should migrate when crossing half of the ring", func() {
		w := MakeTimingWheelBuilder().WithNumBlocks(4).Build()
		Expect(w.Horizon()).To(Equal(uint64(256)))

		w.Enqueue(0, 10)
		w.Enqueue(1, 200)
		w.Enqueue(2, 300)
		Expect(w.OverflowLen()).To(Equal(1))

		core, cycle := w.Dequeue()
		Expect(core).To(Equal(0))
		Expect(cycle).To(Equal(uint64(10)))

		core, cycle = w.Dequeue()
		Expect(core).To(Equal(1))
		Expect(cycle).To(Equal(uint64(200)))
		Expect(w.OverflowLen()).To(Equal(0))
		Expect(w.Horizon()).To(Equal(uint64(6 * 64)))

		core, cycle = w.Dequeue()
		Expect(core).To(Equal(2))
		Expect(cycle).To(Equal(uint64(300)))
	})

	It("should keep enqueue order for a cycle split across ring and overflow", func() {
		w := MakeTimingWheelBuilder().WithNumBlocks(2).Build()

		w.Enqueue(0, 1000)
		w.Enqueue(1, 1000)
		w.Enqueue(2, 990)
		core, cycle := w.Dequeue()
		Expect(core).To(Equal(2))
		Expect(cycle).To(Equal(uint64(990)))
		w.Enqueue(3, 1000)

		Expect(drain(w)).To(Equal([]dequeued{
			{0, 1000}, {1, 1000}, {3, 1000},
		}))
	})

	It("should accept events right at the current cycle", func() {
		w := MakeTimingWheelBuilder().WithNumBlocks(2).Build()

		w.Enqueue(0, 1<<40)
		w.Dequeue()
		w.Enqueue(1, 1<<40)
		w.Enqueue(2, 1<<40+1)
		w.Enqueue(3, 1<<41)

		Expect(drain(w)).To(Equal([]dequeued{
			{1, 1 << 40}, {2, 1<<40 + 1}, {3, 1 << 41},
		}))
	})

	It("should jump over long idle spans", func() {
		w := NewTimingWheel()

		w.Enqueue(0, 1e12)
		w.Enqueue(1, 3e12)

		Expect(w.PeekEarliestCycle()).To(Equal(uint64(1e12)))
		_, cycle := w.Dequeue()
		Expect(cycle).To(Equal(uint64(1e12)))

		w.Enqueue(2, 1e12+100)
		Expect(w.PeekEarliestCycle()).To(Equal(uint64(1e12 + 100)))
		Expect(drain(w)).To(Equal([]dequeued{{2, 1e12 + 100}, {1, 3e12}}))
	})

	It("should fail when the overflow is full", func() {
		w := MakeTimingWheelBuilder().
			WithNumBlocks(2).
			WithOverflowCapacity(1).
			Build()

		w.Enqueue(0, 1000)

		defer func() {
			err, ok := recover().(error)
			Expect(ok).To(BeTrue())
			Expect(errors.Is(err, ErrOverflowFull)).To(BeTrue())
		}()

		w.Enqueue(1, 2000)
	})

	It("should refuse odd geometries", func() {
		Expect(func() {
			MakeTimingWheelBuilder().WithNumBlocks(3).Build()
		}).To(Panic())
		Expect(func() {
			MakeTimingWheelBuilder().WithNumBlocks(0).Build()
		}).To(Panic())
	})

	It("should match the heap queue on a random schedule", func() {
		rng := rand.New(rand.NewSource(42))
		w := MakeTimingWheelBuilder().WithNumBlocks(8).Build()
		h := NewHeapQueue()

		for core := 0; core < 16; core++ {
			cycle := uint64(rng.Intn(1000))
			w.Enqueue(core, cycle)
			h.Enqueue(core, cycle)
		}

		for i := 0; i < 20000; i++ {
			Expect(w.Len()).To(Equal(h.Len()))
			Expect(w.PeekEarliestCycle()).To(Equal(h.PeekEarliestCycle()))

			wc, wCycle := w.Dequeue()
			hc, hCycle := h.Dequeue()
			Expect(wc).To(Equal(hc))
			Expect(wCycle).To(Equal(hCycle))

			var delay uint64
			switch rng.Intn(10) {
			case 0:
				delay = uint64(rng.Int63n(1 << 20))
			case 1:
				delay = 0
			default:
				delay = uint64(rng.Intn(300))
			}

			w.Enqueue(wc, wCycle+delay)
			h.Enqueue(hc, hCycle+delay)
		}
	})

	It("should take events from many goroutines", func() {
		w := MakeTimingWheelBuilder().WithNumBlocks(4).Build()

		var wg sync.WaitGroup
		var expected []int
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					w.Enqueue(g, uint64(g*1000+i*7))
				}
			}(g)
			for i := 0; i < 100; i++ {
				expected = append(expected, g*1000+i*7)
			}
		}
		wg.Wait()

		var got []int
		for _, e := range drain(w) {
			got = append(got, int(e.cycle))
		}

		sort.Ints(expected)
		Expect(got).To(Equal(expected))
	})
})
