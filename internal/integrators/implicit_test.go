package integrators

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/jacobian"
	"github.com/san-kum/ivpsim/internal/newton"
)

var errBroken = errors.New("evaluation failed")

type brokenSystem struct{}

func (brokenSystem) NumODEs() int { return 1 }

func (brokenSystem) Evaluate(float64, *dynamo.History, int, dynamo.State) error { return errBroken }

var _ = Describe("Implicit", func() {
	analytic := WithDifferentiator(jacobian.Analytic{})

	DescribeTable("should converge in one newton iteration on a linear system",
		func(build func(...Option) *Implicit, steps int) {
			sys := newLinear(2, -2, 1, 0, -3)
			s := build(analytic)
			u := dynamo.NewHistoryFrom(dynamo.State{1, 1}, s.HistoryDepth())

			t := 0.0
			for i := 0; i < steps; i++ {
				Expect(s.Step(sys, 0.1, t, u, 0)).To(Succeed())
				t += 0.1
			}
			Expect(s.Iterations()).To(Equal(1))
		},
		Entry("bdf1", NewBDF1, 1),
		Entry("am2", NewAM2, 1),
		Entry("bdf2", NewBDF2, 2),
	)

	It("should decay monotonically on a stiff problem with a large step", func() {
		s := NewBDF1()
		u := dynamo.NewHistoryFrom(dynamo.State{1}, s.HistoryDepth())
		prev := 1.0
		for n := 1; n <= 5; n++ {
			Expect(s.Step(decay(5), 1, float64(n-1), u, 0)).To(Succeed())
			Expect(u.Value(0, 0)).To(BeNumerically("<", prev))
			Expect(u.Value(0, 0)).To(BeNumerically(">", 0))
			Expect(u.Value(0, 0)).To(BeNumerically("~", math.Pow(6, -float64(n)), 1e-7))
			prev = u.Value(0, 0)
		}
	})

	It("should keep the previous level in the next column", func() {
		s := NewAM2(analytic)
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 2)
		Expect(s.Step(decay(1), 0.5, 0, u, 0)).To(Succeed())
		Expect(u.Value(0, 0)).To(BeNumerically("~", 0.75/1.25, 1e-12))
		Expect(u.Value(0, 1)).To(Equal(1.0))
	})

	It("should be second order as the trapezoidal rule", func() {
		order := observedOrder(func() dynamo.Stepper { return NewAM2(analytic) }, []float64{0.1, 0.05, 0.025})
		Expect(order).To(BeNumerically("~", 2, 0.1))
	})

	It("should require enough history", func() {
		s := NewBDF2()
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 2)
		err := s.Step(decay(1), 0.1, 0, u, 0)
		Expect(err).To(MatchError(dynamo.ErrInsufficientHistory))
		Expect(err.Error()).To(HavePrefix("bdf2: t=0.0000"))
	})

	It("should wrap newton failures with the stepper context", func() {
		cfg := newton.DefaultConfig()
		cfg.MaxIterations = 1
		cfg.AbsTolerance = 1e-300
		sys := dynamo.Func{N: 1, F: func(t float64, u, dudt []float64) { dudt[0] = -u[0] * u[0] * u[0] }}
		s := NewBDF1(WithNewton(newton.New(cfg)))

		u := dynamo.NewHistoryFrom(dynamo.State{2}, 2)
		err := s.Step(sys, 0.5, 1, u, 0)
		Expect(err).To(MatchError(dynamo.ErrNewtonNonConvergence))

		var se *dynamo.StepError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Stepper).To(Equal("bdf1"))
		Expect(se.H).To(Equal(0.5))

		Expect(u.Column(0)).To(Equal(dynamo.State{2}), "failed solve must leave the last accepted state")
		Expect(u.Column(1)).To(Equal(dynamo.State{2}))
	})

	It("should name itself when the initial guess fails", func() {
		for _, s := range []*Implicit{NewBDF1(), NewAM2(), NewBDF2()} {
			u := dynamo.NewHistoryFrom(dynamo.State{1}, s.HistoryDepth())
			err := s.Step(brokenSystem{}, 0.1, 0, u, 0)

			Expect(err).To(MatchError(errBroken))
			var se *dynamo.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Stepper).To(Equal(s.Name()))
			Expect(err.Error()).To(HavePrefix(s.Name() + ": "))
			Expect(u.Column(0)).To(Equal(dynamo.State{1}))
		}
	})

	Describe("BDF2 bootstrap", func() {
		var (
			s   *Implicit
			sys *linearSystem
			u   *dynamo.History
		)

		BeforeEach(func() {
			s = NewBDF2(analytic)
			sys = decay(1)
			u = dynamo.NewHistoryFrom(dynamo.State{1}, 3)
		})

		It("should take a plain RK4 step first", func() {
			ref := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
			Expect(NewRK4().Step(sys, 0.1, 0, ref, 0)).To(Succeed())

			Expect(s.Bootstrapped()).To(BeFalse())
			Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
			Expect(s.Bootstrapped()).To(BeTrue())
			Expect(s.Iterations()).To(Equal(0))
			Expect(u.Value(0, 0)).To(Equal(ref.Value(0, 0)))
			Expect(u.Value(0, 1)).To(Equal(1.0))
		})

		It("should continue with the two-step formula", func() {
			t := 0.0
			for i := 0; i < 10; i++ {
				Expect(s.Step(sys, 0.1, t, u, 0)).To(Succeed())
				t += 0.1
				Expect(u.Value(0, 0)).To(BeNumerically("~", math.Exp(-t), 2e-3))
			}
			Expect(s.Iterations()).To(Equal(1))
		})

		It("should bootstrap again after Reset", func() {
			Expect(s.Step(sys, 0.1, 0, u, 0)).To(Succeed())
			s.Reset()
			Expect(s.Bootstrapped()).To(BeFalse())

			Expect(s.Step(sys, 0.1, 0.1, u, 0)).To(Succeed())
			Expect(s.Bootstrapped()).To(BeTrue())
			Expect(s.Iterations()).To(Equal(0))
		})
	})
})
