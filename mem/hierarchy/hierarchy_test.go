package hierarchy

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memhier/config"
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/cache"
	"github.com/sarchlab/memhier/sim/hooking"
)

type eventCounter struct {
	counts map[string]int
}

func (h *eventCounter) Func(ctx hooking.HookCtx) {
	h.counts[ctx.Pos.Name]++
}

func names(levels []mem.Level) []string {
	var n []string
	for _, l := range levels {
		n = append(n, l.Name())
	}

	return n
}

var _ = Describe("Hierarchy", func() {
	var cfg config.Config

	BeforeEach(func() {
		cfg = config.Default()
	})

	It("should build and name every level", func() {
		h, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		Expect(h.NumCores()).To(Equal(2))
		Expect(names(h.Levels())).To(Equal([]string{
			"l1i-0", "l1d-0", "l2-0",
			"l1i-1", "l1d-1", "l2-1",
			"llc", "mem",
		}))

		l, ok := h.Level("llc-b-1")
		Expect(ok).To(BeTrue())
		Expect(l.Name()).To(Equal("llc-b-1"))

		_, ok = h.Level("l3")
		Expect(ok).To(BeFalse())
	})

	It("should link the levels", func() {
		h, _ := Build(cfg)
		a := h.Arena()

		id := func(name string) mem.NodeID {
			id, ok := a.Lookup(name)
			Expect(ok).To(BeTrue())

			return id
		}

		Expect(a.Parent(id("l1i-1"))).To(Equal(id("l2-1")))
		Expect(a.Parent(id("l1d-1"))).To(Equal(id("l2-1")))
		Expect(a.Parent(id("l2-1"))).To(Equal(id("llc")))
		Expect(a.Parent(id("llc"))).To(Equal(id("mem")))
		Expect(a.Parent(id("mem"))).To(Equal(mem.NoNode))
		Expect(a.Children(id("llc"))).To(ConsistOf(id("l2-0"), id("l2-1")))
		Expect(h.L2s[1].Role()).To(Equal(cache.RolePrivateL2))
		Expect(h.L1Ds[1].Role()).To(Equal(cache.RolePrivateL1))
	})

	It("should hang the L1s from the last level without L2", func() {
		cfg.Memory.L2 = config.LevelConfig{}

		h, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		llc, _ := h.Arena().Lookup("llc")
		Expect(h.Arena().Children(llc)).To(HaveLen(4))
		Expect(h.L2s).To(BeEmpty())
		Expect(names(h.Levels())).To(HaveLen(6))
	})

	It("should report configuration errors", func() {
		cfg.Memory.L1D.Size = 1000

		_, err := Build(cfg)
		Expect(err).To(BeAssignableToTypeOf(&mem.ConfigError{}))
	})

	It("should add the latency of every level on a cold load", func() {
		h, _ := Build(cfg)
		_, data := h.Ports(0)

		Expect(data.Load(42)).To(Equal(uint64(4 + 7 + 15 + 100)))
		Expect(data.Load(42)).To(Equal(uint64(4)))
		Expect(h.Memory.Loads()).To(Equal(uint64(1)))
	})

	It("should stay consistent under a random workload", func() {
		cfg.Sys.NumCores = 1
		cfg.Memory.L1I = config.LevelConfig{Size: 512, Ways: 2, Latency: 1}
		cfg.Memory.L1D = config.LevelConfig{Size: 512, Ways: 2, Latency: 1}
		cfg.Memory.L2 = config.LevelConfig{
			Size: 2048, Ways: 4, Latency: 5, Policy: "arc",
		}
		cfg.Memory.LLC = config.LevelConfig{
			Size: 8192, Ways: 4, Latency: 10, Policy: "lru", BankSize: 4096,
		}

		h, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		counter := &eventCounter{counts: make(map[string]int)}
		h.AcceptHook(counter)

		inst, data := h.Ports(0)
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 5000; i++ {
			addr := mem.LineAddress(rng.Intn(512))

			switch rng.Intn(4) {
			case 0:
				inst.Load(addr)
			case 1:
				data.Store(addr)
			default:
				data.Load(addr)
			}
		}

		Expect(h.CheckInvariants()).To(Succeed())

		for _, l1 := range []*cache.Cache{h.L1Is[0], h.L1Ds[0]} {
			for _, line := range l1.ResidentLines() {
				inL2, _ := h.L2s[0].Probe(line)
				Expect(inL2).To(BeTrue())
			}
		}

		for _, line := range h.L2s[0].ResidentLines() {
			inLLC, _ := h.LLC.Probe(line)
			Expect(inLLC).To(BeFalse())
		}

		l1Accesses := h.L1Is[0].Counters().Accesses() +
			h.L1Ds[0].Counters().Accesses()
		Expect(l1Accesses).To(Equal(uint64(5000)))
		Expect(counter.counts[cache.HookPosMiss.Name]).To(BeNumerically(">", 0))
		Expect(h.LLC.Accesses()).To(Equal(h.LLC.Counters().Accesses()))
	})
})
