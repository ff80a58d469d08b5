package jacobian

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/newton"
	"gonum.org/v1/gonum/mat"
)

const mu = 1.5

func vanDerPol() dynamo.Func {
	return dynamo.Func{N: 2, F: func(t float64, u, dudt []float64) {
		dudt[0] = u[1]
		dudt[1] = mu*(1-u[0]*u[0])*u[1] - u[0]
	}}
}

func vanDerPolJacobian(u []float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		0, 1,
		-2*mu*u[0]*u[1] - 1, mu * (1 - u[0]*u[0]),
	})
}

func lorenz() dynamo.Func {
	return dynamo.Func{N: 3, F: func(t float64, u, dudt []float64) {
		dudt[0] = 10 * (u[1] - u[0])
		dudt[1] = u[0]*(28-u[2]) - u[1]
		dudt[2] = u[0]*u[1] - 8.0/3.0*u[2]
	}}
}

func lorenzJacobian(u []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		-10, 10, 0,
		28 - u[2], -1, -u[0],
		u[1], u[0], -8.0 / 3.0,
	})
}

// linear returns du/dt = a·u.
func linear(a *mat.Dense) dynamo.Func {
	n, _ := a.Dims()
	return dynamo.Func{N: n, F: func(t float64, u, dudt []float64) {
		out := mat.NewVecDense(n, dudt)
		out.MulVec(a, mat.NewVecDense(n, u))
	}}
}

var _ = Describe("FiniteDifference", func() {
	DescribeTable("should match the analytic jacobian",
		func(sys dynamo.Func, u0 []float64, analytic func([]float64) *mat.Dense, tol float64) {
			u := dynamo.NewHistoryFrom(u0, 1)
			j := mat.NewDense(sys.N, sys.N, nil)
			ctx := SolveContext{System: sys, H: 0.1, T: 0, U: u, K: 0}

			Expect(NewFiniteDifference().Derivative(ctx, j)).To(Succeed())

			want := analytic(u0)
			for r := 0; r < sys.N; r++ {
				for c := 0; c < sys.N; c++ {
					Expect(j.At(r, c)).To(BeNumerically("~", want.At(r, c), tol))
				}
			}
		},
		Entry("van der pol", vanDerPol(), []float64{0.7, -0.4}, vanDerPolJacobian, 1e-6),
		// roundoff in f dominates the perturbation error for larger |f|
		Entry("lorenz", lorenz(), []float64{1.2, 0.8, 2.0}, lorenzJacobian, 1e-5),
	)

	It("should cost one evaluation per unknown plus the baseline", func() {
		sys := dynamo.NewCounting(lorenz())
		u := dynamo.NewHistoryFrom(dynamo.State{1, 1, 1}, 1)
		j := mat.NewDense(3, 3, nil)

		Expect(NewFiniteDifference().Derivative(SolveContext{System: sys, H: 0.1, U: u}, j)).To(Succeed())
		Expect(sys.Total()).To(Equal(4))
	})

	It("should leave the state buffer untouched", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{0.3, 0.2}, 2)
		before := u.Clone()
		j := mat.NewDense(2, 2, nil)

		Expect(NewFiniteDifference().Derivative(SolveContext{System: vanDerPol(), H: 0.1, U: u}, j)).To(Succeed())
		for k := 0; k < 2; k++ {
			Expect(u.Column(k)).To(Equal(before.Column(k)))
		}
	})

	It("should reject a zero context", func() {
		j := mat.NewDense(1, 1, nil)
		Expect(NewFiniteDifference().Derivative(SolveContext{}, j)).To(MatchError(dynamo.ErrUnconfiguredStrategy))
	})

	It("should reject a mis-sized jacobian", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1, 1}, 1)
		j := mat.NewDense(3, 3, nil)
		err := NewFiniteDifference().Derivative(SolveContext{System: vanDerPol(), H: 0.1, U: u}, j)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("should fall back to finite differences without an analytic jacobian", func() {
		diff, err := NewDifferentiator("analytic")
		Expect(err).ToNot(HaveOccurred())

		u := dynamo.NewHistoryFrom(dynamo.State{0.7, -0.4}, 1)
		j := mat.NewDense(2, 2, nil)
		Expect(diff.Derivative(SolveContext{System: vanDerPol(), H: 0.1, U: u}, j)).To(Succeed())
		Expect(j.At(1, 1)).To(BeNumerically("~", mu*(1-0.49), 1e-6))

		_, err = NewDifferentiator("complex-step")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("implicit methods", func() {
	var (
		a   *mat.Dense
		sys dynamo.Func
	)

	BeforeEach(func() {
		a = mat.NewDense(2, 2, []float64{-2, 1, 0, -3})
		sys = linear(a)
	})

	DescribeTable("should build I - gamma·A",
		func(m Method, gammaPerH float64) {
			h := 0.2
			u := dynamo.NewHistoryFrom(dynamo.State{1, 2}, m.Depth())
			ctx := SolveContext{System: sys, H: h, T: 0, U: u}
			j := mat.NewDense(2, 2, nil)

			Expect(m.Begin(ctx)).To(Succeed())
			Expect(m.ComputeJacobian(ctx, j)).To(Succeed())

			gamma := gammaPerH * h
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					want := -gamma * a.At(r, c)
					if r == c {
						want += 1
					}
					Expect(j.At(r, c)).To(BeNumerically("~", want, 1e-6))
				}
			}
		},
		Entry("backward euler", NewBackwardEuler(nil), 1.0),
		Entry("adams-moulton 2", NewAdamsMoulton2(nil), 0.5),
		Entry("bdf2", NewBDF2(nil), 2.0/3.0),
	)

	It("should give a zero backward euler residual at the exact solution", func() {
		decay := dynamo.Func{N: 1, F: func(t float64, u, dudt []float64) { dudt[0] = -u[0] }}
		u := dynamo.NewHistory(1, 2)
		u.Set(0, 1, 1.0)
		u.Set(0, 0, 1.0/1.5)
		ctx := SolveContext{System: decay, H: 0.5, U: u}
		r := mat.NewVecDense(1, nil)

		m := NewBackwardEuler(nil)
		Expect(m.Begin(ctx)).To(Succeed())
		Expect(m.ComputeResidual(ctx, r)).To(Succeed())
		Expect(r.AtVec(0)).To(BeNumerically("~", 0, 1e-15))
	})

	It("should give a zero trapezoidal residual at the exact solution", func() {
		decay := dynamo.Func{N: 1, F: func(t float64, u, dudt []float64) { dudt[0] = -u[0] }}
		u := dynamo.NewHistory(1, 2)
		u.Set(0, 1, 1.0)
		u.Set(0, 0, 0.75/1.25)
		ctx := SolveContext{System: decay, H: 0.5, U: u}
		r := mat.NewVecDense(1, nil)

		m := NewAdamsMoulton2(nil)
		Expect(m.Begin(ctx)).To(Succeed())
		Expect(m.ComputeResidual(ctx, r)).To(Succeed())
		Expect(r.AtVec(0)).To(BeNumerically("~", 0, 1e-15))
	})

	It("should evaluate the old derivative once per solve", func() {
		counting := dynamo.NewCounting(sys)
		u := dynamo.NewHistoryFrom(dynamo.State{1, 2}, 2)
		ctx := SolveContext{System: counting, H: 0.1, U: u}
		r := mat.NewVecDense(2, nil)

		m := NewAdamsMoulton2(nil)
		Expect(m.Begin(ctx)).To(Succeed())
		for i := 0; i < 3; i++ {
			Expect(m.ComputeResidual(ctx, r)).To(Succeed())
		}
		Expect(counting.Total()).To(Equal(4))
	})

	It("should refuse a trapezoidal residual for a context it was not prepared for", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1, 2}, 2)
		ctx := SolveContext{System: sys, H: 0.1, U: u}
		r := mat.NewVecDense(2, nil)

		m := NewAdamsMoulton2(nil)
		Expect(m.ComputeResidual(ctx, r)).To(MatchError(dynamo.ErrUnconfiguredStrategy))

		Expect(m.Begin(ctx)).To(Succeed())
		stale := ctx
		stale.T = 0.1
		Expect(m.ComputeResidual(stale, r)).To(MatchError(dynamo.ErrUnconfiguredStrategy))
	})

	It("should require enough history", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1, 2}, 2)
		err := NewBDF2(nil).Begin(SolveContext{System: sys, H: 0.1, U: u})
		Expect(err).To(MatchError(dynamo.ErrInsufficientHistory))
	})

	It("should reject a system that does not fit the buffer", func() {
		u := dynamo.NewHistoryFrom(dynamo.State{1, 2, 3}, 2)
		err := NewBackwardEuler(nil).Begin(SolveContext{System: sys, H: 0.1, U: u})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})

var _ = Describe("Bind", func() {
	It("should solve a linear backward euler step in one newton iteration", func() {
		a := mat.NewDense(2, 2, []float64{-2, 1, 0, -3})
		sys := linear(a)
		h := 0.1
		u := dynamo.NewHistoryFrom(dynamo.State{1, 1}, 2)
		ctx := SolveContext{System: sys, H: h, U: u}

		m := NewBackwardEuler(nil)
		Expect(m.Begin(ctx)).To(Succeed())
		res, err := newton.New(newton.DefaultConfig()).Solve(Bind(m, ctx), mat.VecDenseCopyOf(mat.NewVecDense(2, u.Column(0))))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.Iterations).To(Equal(1))

		// (I - hA) x = u_old
		var want mat.VecDense
		lhs := mat.NewDense(2, 2, []float64{1 + 2*h, -h, 0, 1 + 3*h})
		Expect(want.SolveVec(lhs, mat.NewVecDense(2, []float64{1, 1}))).To(Succeed())
		for i := 0; i < 2; i++ {
			Expect(res.X.AtVec(i)).To(BeNumerically("~", want.AtVec(i), 1e-7))
			Expect(u.Value(i, 0)).To(Equal(res.X.AtVec(i)))
		}
	})

	It("should copy iterates into the solved column", func() {
		u := dynamo.NewHistory(2, 2)
		b := Bind(NewBackwardEuler(nil), SolveContext{U: u, K: 1})

		Expect(b.AfterNewtonStep(1, mat.NewVecDense(2, []float64{4, 5}))).To(Succeed())
		Expect(u.Column(1)).To(Equal(dynamo.State{4, 5}))
		Expect(u.Column(0)).To(Equal(dynamo.State{0, 0}))

		err := b.AfterNewtonStep(2, mat.NewVecDense(3, nil))
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		Expect(math.IsNaN(u.Value(0, 1))).To(BeFalse())
	})
})
