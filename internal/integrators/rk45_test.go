package integrators

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/control"
	"github.com/san-kum/ivpsim/internal/dynamo"
)

var _ = Describe("Adaptive", func() {
	DescribeTable("should satisfy the row-sum conditions",
		func(tb Tableau) {
			Expect(tb.A).To(HaveLen(tb.Stages()))
			Expect(tb.B).To(HaveLen(tb.Stages()))
			Expect(tb.E).To(HaveLen(tb.Stages()))
			sumB, sumE := 0.0, 0.0
			for i := range tb.C {
				row := 0.0
				for _, a := range tb.A[i] {
					row += a
				}
				Expect(row).To(BeNumerically("~", tb.C[i], 1e-14))
				sumB += tb.B[i]
				sumE += tb.E[i]
			}
			Expect(sumB).To(BeNumerically("~", 1, 1e-14))
			Expect(sumE).To(BeNumerically("~", 0, 1e-14))
		},
		Entry("fehlberg", FehlbergTableau()),
		Entry("dormand-prince", DormandPrinceTableau()),
	)

	DescribeTable("should integrate exponential decay accurately",
		func(build func(...Option) *Adaptive) {
			u, err := integrate(build(), decay(1), dynamo.State{1}, 0.1, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(u[0]).To(BeNumerically("~", math.Exp(-1), 1e-6))
		},
		Entry("rk45f", NewRK45Fehlberg),
		Entry("rk45dp", NewRK45DormandPrince),
	)

	It("should only accept attempts within tolerance and shrink after every rejection", func() {
		var records []AttemptRecord
		cfg := DefaultAdaptiveConfig()
		cfg.MaxTolerance = 1e-7
		cfg.MinStep = 1e-6
		cfg.MaxIterations = 20
		s := NewRK45Fehlberg(WithAdaptiveConfig(cfg), WithObserver(func(r AttemptRecord) {
			records = append(records, r)
		}))
		s.SetFixedOutput(false)

		u := dynamo.NewHistoryFrom(dynamo.State{1, 0}, 1)
		t := 0.0
		for t < 5 {
			Expect(s.Step(oscillator(), 1, t, u, 0)).To(Succeed())
			t += s.TakenStep()
		}

		Expect(s.Rejected()).To(BeNumerically(">", 0))
		for i, r := range records {
			if r.Accepted {
				Expect(r.ErrNorm).To(BeNumerically("<=", cfg.MaxTolerance))
				continue
			}
			Expect(r.ErrNorm).To(BeNumerically(">", cfg.MaxTolerance))
			Expect(i + 1).To(BeNumerically("<", len(records)))
			Expect(records[i+1].H).To(BeNumerically("<", r.H))
			Expect(records[i+1].H).To(BeNumerically(">=", cfg.MinStep))
		}
		Expect(u.Value(0, 0)).To(BeNumerically("~", math.Cos(t), 1e-4))
	})

	It("should give up after too many rejections", func() {
		cfg := DefaultAdaptiveConfig()
		cfg.MaxTolerance = 1e-15
		cfg.MaxIterations = 2
		s := NewRK45DormandPrince(WithAdaptiveConfig(cfg))

		u := dynamo.NewHistoryFrom(dynamo.State{1, 0}, 1)
		err := s.Step(oscillator(), 1, 0, u, 0)
		Expect(err).To(MatchError(dynamo.ErrStepRejectionExhausted))
		Expect(err.Error()).To(HavePrefix("rk45dp: t=0.0000"))
		Expect(s.Rejected()).To(Equal(2))
		Expect(u.Value(0, 0)).To(Equal(1.0))
	})

	It("should give up once the minimum step is rejected", func() {
		var records []AttemptRecord
		cfg := DefaultAdaptiveConfig()
		cfg.MaxTolerance = 1e-15
		cfg.MinStep = 0.5
		cfg.MaxIterations = 10
		s := NewRK45Fehlberg(WithAdaptiveConfig(cfg), WithController(control.HalfDouble{}),
			WithObserver(func(r AttemptRecord) { records = append(records, r) }))

		u := dynamo.NewHistoryFrom(dynamo.State{1, 0}, 1)
		Expect(s.Step(oscillator(), 1, 0, u, 0)).To(MatchError(dynamo.ErrStepRejectionExhausted))
		Expect(records).To(HaveLen(2))
		Expect(records[1].H).To(Equal(0.5))
	})

	It("should not step past the caller's h in fixed output mode", func() {
		s := NewRK45DormandPrince()
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		t := 0.0
		for i := 0; i < 5; i++ {
			Expect(s.Step(decay(1), 0.1, t, u, 0)).To(Succeed())
			Expect(s.TakenStep()).To(BeNumerically("<=", 0.1))
			t += s.TakenStep()
		}
		Expect(s.NextStep()).To(BeNumerically(">", 0.1))
		Expect(s.NextStep()).To(BeNumerically("<=", s.Config().MaxStep))
	})

	It("should grow the step when fixed output is off", func() {
		s := NewRK45DormandPrince()
		s.SetFixedOutput(false)
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)

		Expect(s.Step(decay(1), 0.1, 0, u, 0)).To(Succeed())
		Expect(s.TakenStep()).To(Equal(0.1))
		Expect(s.Step(decay(1), 0.1, 0.1, u, 0)).To(Succeed())
		Expect(s.TakenStep()).To(BeNumerically(">", 0.1))

		s.Reset()
		Expect(s.TakenStep()).To(BeZero())
		Expect(s.NextStep()).To(BeZero())
		Expect(s.Rejected()).To(BeZero())
	})

	It("should reuse the last stage of an accepted Dormand-Prince step", func() {
		sys := dynamo.NewCounting(decay(1))
		s := NewRK45DormandPrince()
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)

		Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
		Expect(sys.Total()).To(Equal(7))
		Expect(s.Step(sys, 0.1, s.TakenStep(), u, 0)).To(Succeed())
		Expect(sys.Total()).To(Equal(13))
	})

	It("should evaluate every stage for Fehlberg", func() {
		sys := dynamo.NewCounting(decay(1))
		s := NewRK45Fehlberg()
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)

		Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
		Expect(s.Step(sys, 0.1, 0.1, u, 0)).To(Succeed())
		Expect(sys.Total()).To(Equal(12))
	})

	It("should use the l2 norm when asked", func() {
		firstError := func(norm string) float64 {
			cfg := DefaultAdaptiveConfig()
			cfg.Norm = norm
			var first []float64
			s := NewRK45Fehlberg(WithAdaptiveConfig(cfg), WithObserver(func(r AttemptRecord) {
				first = append(first, r.ErrNorm)
			}))
			Expect(s.Step(oscillator(), 0.5, 0, dynamo.NewHistoryFrom(dynamo.State{1, 0}, 1), 0)).To(Succeed())
			return first[0]
		}

		inf, l2 := firstError("inf"), firstError("l2")
		Expect(inf).To(BeNumerically(">", 0))
		Expect(l2).To(BeNumerically(">=", inf))
		Expect(l2).To(BeNumerically("<=", math.Sqrt2*inf))
	})

	It("should validate its configuration", func() {
		Expect(DefaultAdaptiveConfig().Validate()).To(Succeed())
		cfg := DefaultAdaptiveConfig()
		cfg.MinStep = 2
		Expect(cfg.Validate()).ToNot(Succeed())
		cfg = DefaultAdaptiveConfig()
		cfg.Norm = "l1"
		Expect(cfg.Validate()).ToNot(Succeed())
	})
})
