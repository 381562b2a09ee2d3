package replay

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memhier/config"
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/hierarchy"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/sim/hooking"
	"github.com/sarchlab/memhier/trace"
)

type access struct {
	core int
	addr mem.LineAddress
}

// timedPort answers every access with a latency that depends on the
// address and logs the accesses of all the ports sharing the log.
type timedPort struct {
	core    int
	latency map[mem.LineAddress]uint64
	log     *[]access
}

func (p *timedPort) Load(addr mem.LineAddress) uint64 {
	*p.log = append(*p.log, access{p.core, addr})
	return p.latency[addr]
}

func (p *timedPort) Store(addr mem.LineAddress) uint64 {
	return p.Load(addr)
}

func (p *timedPort) Invalidate(mem.LineAddress) {}

type phaseRecorder struct {
	phases []uint64
	done   []int
}

func (h *phaseRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosPhaseEnd:
		h.phases = append(h.phases, ctx.Item.(uint64))
	case HookPosCoreDone:
		h.done = append(h.done, ctx.Item.(*Core).ID())
	}
}

func streamOf(records ...trace.Record) *trace.Stream {
	s := trace.NewStream(len(records))
	for _, r := range records {
		s.Push(r)
	}

	return s
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl *gomock.Controller
		inst     *MockMemory
		data     *MockMemory
		logBuf   bytes.Buffer
		engine   *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		inst = NewMockMemory(mockCtrl)
		data = NewMockMemory(mockCtrl)
		logBuf.Reset()
		engine = MakeBuilder().
			WithPhaseLength(100).
			WithLogger(log.New(&logBuf, "", 0)).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should issue loads and stores to the data port", func() {
		gomock.InOrder(
			data.EXPECT().Load(mem.LineAddress(5)).Return(uint64(10)),
			data.EXPECT().Store(mem.LineAddress(6)).Return(uint64(3)),
		)

		c := engine.AddCore(inst, data,
			streamOf(trace.Load(5), trace.Store(6)))
		engine.SimPhase()

		Expect(c.Cycles()).To(Equal(uint64(13)))
		Expect(c.Instrs()).To(Equal(uint64(0)))
		Expect(c.Done()).To(BeTrue())
		Expect(engine.Done()).To(BeTrue())
		Expect(logBuf.String()).To(Equal("done simulating core 0\n"))
	})

	It("should expand instruction blocks into line loads", func() {
		gomock.InOrder(
			inst.EXPECT().Load(mem.LineAddress(100)).Return(uint64(2)),
			inst.EXPECT().Load(mem.LineAddress(101)).Return(uint64(2)),
			inst.EXPECT().Load(mem.LineAddress(102)).Return(uint64(2)),
		)

		c := engine.AddCore(inst, data, streamOf(trace.Block(100, 130, 7)))
		engine.SimPhase()

		Expect(c.Cycles()).To(Equal(uint64(2*3 + 7)))
		Expect(c.Instrs()).To(Equal(uint64(7)))
	})

	It("should interleave cores by cycle", func() {
		var accesses []access
		slow := &timedPort{
			core:    0,
			latency: map[mem.LineAddress]uint64{1: 100, 2: 1},
			log:     &accesses,
		}
		fast := &timedPort{
			core:    1,
			latency: map[mem.LineAddress]uint64{3: 10},
			log:     &accesses,
		}

		engine = MakeBuilder().WithPhaseLength(1000).Build()
		engine.AddCore(slow, slow, streamOf(trace.Load(1), trace.Load(2)))
		engine.AddCore(fast, fast,
			streamOf(trace.Load(3), trace.Load(3), trace.Load(3)))
		engine.SimPhase()

		Expect(accesses).To(Equal([]access{
			{0, 1}, {1, 3}, {1, 3}, {1, 3}, {0, 2},
		}))
		Expect(engine.Cores()[0].Cycles()).To(Equal(uint64(101)))
		Expect(engine.Cores()[1].Cycles()).To(Equal(uint64(30)))
	})

	It("should stop at the phase boundary", func() {
		data.EXPECT().Load(gomock.Any()).Return(uint64(60)).Times(4)

		hook := &phaseRecorder{}
		engine.AcceptHook(hook)

		c := engine.AddCore(inst, data, streamOf(
			trace.Load(1), trace.Load(2), trace.Load(3), trace.Load(4)))

		engine.SimPhase()
		Expect(c.Cycles()).To(Equal(uint64(120)))
		Expect(c.PhaseCycles()).To(Equal(uint64(20)))
		Expect(c.Pending()).To(Equal(2))
		Expect(engine.Phase()).To(Equal(uint64(1)))

		Expect(engine.Run(0)).To(Equal(uint64(2)))
		Expect(c.Cycles()).To(Equal(uint64(240)))
		Expect(hook.phases).To(Equal([]uint64{0, 1, 2}))
		Expect(hook.done).To(Equal([]int{0}))
	})

	It("should respect the phase limit", func() {
		data.EXPECT().Load(gomock.Any()).Return(uint64(100)).AnyTimes()

		engine.AddCore(inst, data, streamOf(
			trace.Load(1), trace.Load(2), trace.Load(3), trace.Load(4)))

		Expect(engine.Run(2)).To(Equal(uint64(2)))
		Expect(engine.Done()).To(BeFalse())
	})

	It("should refuse cores once started", func() {
		engine.SimPhase()

		Expect(func() {
			engine.AddCore(inst, data, streamOf())
		}).To(Panic())
	})
})

var _ = Describe("Replay over a hierarchy", func() {
	var cfg config.Config

	BeforeEach(func() {
		cfg = config.Default()
		cfg.Sys.NumCores = 2
		cfg.Sim.PhaseLength = 500
		cfg.Memory.L1I = config.LevelConfig{Size: 1024, Ways: 2, Latency: 1}
		cfg.Memory.L1D = config.LevelConfig{Size: 1024, Ways: 2, Latency: 2}
		cfg.Memory.L2 = config.LevelConfig{
			Size: 4096, Ways: 4, Latency: 6, Policy: "arc",
		}
		cfg.Memory.LLC = config.LevelConfig{
			Size: 16384, Ways: 8, Latency: 12, Policy: "lru", BankSize: 8192,
		}
	})

	run := func(q sim.EventQueue) (*hierarchy.Hierarchy, *Engine, int) {
		var buf bytes.Buffer
		err := trace.Synthesize(trace.NewWriter(&buf), trace.SynthOptions{
			NumCores:       2,
			RecordsPerCore: 2000,
			FootprintLines: 512,
			StoreRatio:     0.3,
			BlockRatio:     0.3,
			Seed:           9,
		})
		Expect(err).NotTo(HaveOccurred())

		streams, err := trace.ReadStreams(&buf, 2)
		Expect(err).NotTo(HaveOccurred())

		lines := 0
		for _, s := range streams {
			for i := 0; i < s.Len(); i++ {
				r, _ := s.Pop()
				lines += int(r.NumLines(cfg.Sys.LineSize))
				s.Push(r)
			}
		}

		h, err := hierarchy.Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		e := MakeBuilder().
			WithPhaseLength(cfg.Sim.PhaseLength).
			WithQueue(q).
			WithLogger(log.New(GinkgoWriter, "", 0)).
			Build()
		for core, s := range streams {
			inst, data := h.Ports(core)
			e.AddCore(inst, data, s)
		}

		e.Run(0)

		return h, e, lines
	}

	It("should send every line to the L1s", func() {
		h, e, lines := run(sim.NewTimingWheel())

		var l1 uint64
		for core := 0; core < 2; core++ {
			l1 += h.L1Is[core].Counters().Accesses()
			l1 += h.L1Ds[core].Counters().Accesses()
			Expect(e.Cores()[core].Done()).To(BeTrue())
		}

		Expect(l1).To(Equal(uint64(lines)))
		Expect(h.CheckInvariants()).To(Succeed())
		Expect(e.Phase()).To(BeNumerically(">", 1))
	})

	It("should not depend on the queue implementation", func() {
		_, wheel, _ := run(sim.MakeTimingWheelBuilder().WithNumBlocks(4).Build())
		_, heap, _ := run(sim.NewHeapQueue())

		for core := 0; core < 2; core++ {
			Expect(wheel.Cores()[core].Cycles()).To(
				Equal(heap.Cores()[core].Cycles()))
			Expect(wheel.Cores()[core].Instrs()).To(
				Equal(heap.Cores()[core].Instrs()))
		}
	})
})
