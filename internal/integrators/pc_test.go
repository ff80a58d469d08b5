package integrators

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/dynamo"
)

var _ = Describe("PredictorCorrector", func() {
	DescribeTable("should approximate exponential decay",
		func(build func(...Option) *PredictorCorrector, tol float64) {
			u, err := integrate(build(), decay(1), dynamo.State{1}, 0.05, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(u[0]).To(BeNumerically("~", math.Exp(-1), tol))
		},
		Entry("am2pc", NewAM2PC, 1e-3),
		Entry("bepc", NewBEPC, 2e-2),
	)

	It("should iterate to the trapezoidal solution with a tight tolerance", func() {
		cfg := DefaultCorrectorConfig()
		cfg.MaxTolerance = 1e-14
		cfg.MaxIterations = 100
		s := NewAM2PC(WithCorrectorConfig(cfg))

		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		Expect(s.Step(decay(1), 0.1, 0, u, 0)).To(Succeed())
		Expect(u.Value(0, 0)).To(BeNumerically("~", 0.95/1.05, 1e-13))
		Expect(s.Iterations()).To(BeNumerically(">", 1))
		Expect(s.Iterations()).To(BeNumerically("<", 100))
	})

	It("should accept the last iterate at the iteration cap", func() {
		cfg := DefaultCorrectorConfig()
		cfg.MaxTolerance = 1e-300
		cfg.MaxIterations = 4
		s := NewBEPC(WithCorrectorConfig(cfg))

		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		Expect(s.Step(decay(1), 0.1, 0, u, 0)).To(Succeed())
		Expect(s.Iterations()).To(Equal(4))
		Expect(u.Value(0, 0)).To(BeNumerically("~", 1/1.1, 1e-4))
	})

	DescribeTable("should count derivative evaluations",
		func(final bool, want int) {
			cfg := DefaultCorrectorConfig()
			cfg.MaxIterations = 3
			cfg.FixedIterations = true
			cfg.FinalEvaluation = final
			sys := dynamo.NewCounting(decay(1))
			s := NewAM2PC(WithCorrectorConfig(cfg))

			u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
			Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
			Expect(s.Iterations()).To(Equal(3))
			Expect(s.Step(sys, 0.1, 0.1, u, 0)).To(Succeed())
			Expect(sys.Total()).To(Equal(want))
		},
		Entry("without a final evaluation", false, 8),
		Entry("reusing the final evaluation", true, 9),
	)

	It("should not reuse a final evaluation for a different point", func() {
		cfg := DefaultCorrectorConfig()
		cfg.MaxIterations = 1
		cfg.FixedIterations = true
		cfg.FinalEvaluation = true
		sys := dynamo.NewCounting(decay(1))
		s := NewBEPC(WithCorrectorConfig(cfg))

		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
		u.Set(0, 0, 2)
		Expect(s.Step(sys, 0.1, 0.1, u, 0)).To(Succeed())
		Expect(sys.Total()).To(Equal(6))

		s.Reset()
		Expect(s.Step(sys, 0.1, 0.2, u, 0)).To(Succeed())
		Expect(sys.Total()).To(Equal(9))
	})
})

var _ = Describe("relativeChange", func() {
	It("should fall back to the absolute change near zero", func() {
		Expect(relativeChange(dynamo.State{0, 2}, dynamo.State{1e-13, 1})).To(Equal(0.5))
		Expect(relativeChange(dynamo.State{0}, dynamo.State{0.25})).To(Equal(0.25))
	})

	It("should propagate NaN", func() {
		Expect(math.IsNaN(relativeChange(dynamo.State{math.NaN(), 1}, dynamo.State{1, 1}))).To(BeTrue())
	})
})
