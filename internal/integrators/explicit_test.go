package integrators

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/dynamo"
)

var _ = Describe("Euler", func() {
	It("should reproduce (1-h)^n on exponential decay", func() {
		u, err := integrate(NewEuler(), decay(1), dynamo.State{1}, 0.1, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(u[0]).To(BeNumerically("~", math.Pow(0.9, 10), 1e-12))
		Expect(u[0]).To(BeNumerically("~", 0.34868, 1e-5))
	})

	It("should be first order", func() {
		order := observedOrder(func() dynamo.Stepper { return NewEuler() }, []float64{0.1, 0.05, 0.025, 0.0125})
		Expect(order).To(BeNumerically("~", 1, 0.1))
	})

	It("should grow on a stiff problem with a large step", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		prev := 1.0
		for n := 0; n < 5; n++ {
			Expect(NewEuler().Step(decay(5), 1, float64(n), u, 0)).To(Succeed())
			Expect(math.Abs(u.Value(0, 0))).To(BeNumerically(">", math.Abs(prev)))
			prev = u.Value(0, 0)
		}
		Expect(prev).To(Equal(math.Pow(-4, 5)))
	})

	It("should shift the previous value into the next column", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{2}, 2)
		Expect(NewEuler().Step(decay(1), 0.5, 0, u, 0)).To(Succeed())
		Expect(u.Value(0, 0)).To(Equal(1.0))
		Expect(u.Value(0, 1)).To(Equal(2.0))
	})

	It("should name itself in errors", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1, 2}, 1)
		err := NewEuler().Step(decay(1), 0.1, 0.3, u, 0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))

		var se *dynamo.StepError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Stepper).To(Equal("euler"))
		Expect(se.T).To(Equal(0.3))
	})
})

var _ = Describe("RK4", func() {
	It("should match exp(-1) after ten steps", func() {
		u, err := integrate(NewRK4(), decay(1), dynamo.State{1}, 0.1, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(u[0]).To(BeNumerically("~", 0.367879, 1e-5))
	})

	It("should be fourth order", func() {
		order := observedOrder(func() dynamo.Stepper { return NewRK4() }, []float64{0.2, 0.1, 0.05, 0.025})
		Expect(order).To(BeNumerically("~", 4, 0.2))
	})

	It("should track the harmonic oscillator", func() {
		u, err := integrate(NewRK4(), oscillator(), dynamo.State{1, 0}, 0.01, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(u[0]).To(BeNumerically("~", math.Cos(1), 1e-8))
		Expect(u[1]).To(BeNumerically("~", -math.Sin(1), 1e-8))
	})

	It("should advance an inner column of the buffer", func() {
		u := dynamo.NewHistory(1, 3)
		u.Set(0, 0, 9)
		u.Set(0, 1, 1)
		Expect(NewRK4().Step(decay(1), 0.1, 0, u, 1)).To(Succeed())
		Expect(u.Value(0, 1)).To(BeNumerically("~", math.Exp(-0.1), 1e-6))
		Expect(u.Value(0, 2)).To(Equal(1.0))
	})

	It("should reject a column outside the buffer", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1}, 1)
		Expect(NewRK4().Step(decay(1), 0.1, 0, u, 1)).To(MatchError(dynamo.ErrInsufficientHistory))
	})
})
