package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ARC", func() {
	var arc *ARC

	BeforeEach(func() {
		arc = NewARC(4)
	})

	It("should fill untouched ways in order", func() {
		m := newSetModel(arc, 4)

		for tag := uint64(0); tag < 4; tag++ {
			_, way := m.access(tag)
			Expect(way).To(Equal(int(tag)))
		}
	})

	It("should promote a reused line to the frequent list", func() {
		m := newSetModel(arc, 4)
		m.access(1)
		m.access(1)

		Expect(arc.t2).To(Equal([]int{0}))
		Expect(arc.t1).To(BeEmpty())
	})

	It("should protect frequently used lines from a scan", func() {
		m := newSetModel(arc, 4)
		a, b := uint64(100), uint64(200)
		m.access(a)
		m.access(b)
		m.access(a)
		m.access(b)

		for tag := uint64(1); tag <= 8; tag++ {
			m.access(tag)
		}

		Expect(m.resident(a)).To(BeTrue())
		Expect(m.resident(b)).To(BeTrue())
	})

	It("should lose the same lines under LRU", func() {
		m := newSetModel(NewLRU(4), 4)
		a, b := uint64(100), uint64(200)
		m.access(a)
		m.access(b)
		m.access(a)
		m.access(b)

		for tag := uint64(1); tag <= 8; tag++ {
			m.access(tag)
		}

		Expect(m.resident(a)).To(BeFalse())
		Expect(m.resident(b)).To(BeFalse())
	})

	It("should grow the recency target on a recency ghost hit", func() {
		arc = NewARC(2)
		m := newSetModel(arc, 2)

		m.access(1)
		m.access(1)
		m.access(2)
		m.access(3)
		Expect(arc.b1).To(ContainElement(uint64(2)))
		Expect(arc.Target()).To(Equal(0))

		hit, _ := m.access(2)

		Expect(hit).To(BeFalse())
		Expect(arc.Target()).To(Equal(1))
		Expect(arc.b1).ToNot(ContainElement(uint64(2)))
		Expect(arc.wayList[findWay(m, 2)]).To(Equal(listT2))
	})

	It("should shrink the recency target on a frequency ghost hit", func() {
		arc = NewARC(2)
		m := newSetModel(arc, 2)
		arc.target = 2

		m.access(1)
		m.access(1)
		m.access(2)
		m.access(2)
		m.access(3)
		Expect(arc.b2).To(ContainElement(uint64(1)))

		m.access(1)

		Expect(arc.Target()).To(Equal(1))
	})

	It("should not count a dropped line as a frequency ghost", func() {
		arc = NewARC(2)
		m := newSetModel(arc, 2)
		arc.target = 2

		m.access(1)
		m.access(1)
		m.access(2)
		m.access(1)
		m.drop(1)
		Expect(arc.wayList[0]).To(Equal(listNone))

		_, way := m.access(3)
		Expect(way).To(Equal(0))
		Expect(arc.b2).To(BeEmpty())

		hit, _ := m.access(1)

		Expect(hit).To(BeFalse())
		Expect(arc.Target()).To(Equal(2))
		Expect(arc.b1).To(Equal([]uint64{2}))
	})

	It("should keep the ghost lists bounded", func() {
		m := newSetModel(arc, 4)

		for tag := uint64(0); tag < 1000; tag++ {
			m.access(tag % 37)
			m.access(tag % 5)

			total := len(arc.t1) + len(arc.t2) + len(arc.b1) + len(arc.b2)
			Expect(total).To(BeNumerically("<=", 8))
			Expect(len(arc.t1) + len(arc.b1)).To(BeNumerically("<=", 4))
			Expect(arc.Target()).To(BeNumerically(">=", 0))
			Expect(arc.Target()).To(BeNumerically("<=", 4))
		}
	})

	It("should track every way exactly once", func() {
		m := newSetModel(arc, 4)

		for tag := uint64(0); tag < 200; tag++ {
			m.access((tag * 7) % 11)
		}

		seen := map[int]bool{}
		for _, w := range append(append([]int{}, arc.t1...), arc.t2...) {
			Expect(seen[w]).To(BeFalse())
			seen[w] = true
		}
		Expect(seen).To(HaveLen(4))
	})
})

func findWay(m *setModel, tag uint64) int {
	for w := range m.ways {
		if m.valid[w] && m.ways[w] == tag {
			return w
		}
	}

	return -1
}
