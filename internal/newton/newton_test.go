package newton

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/linalg"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/mat"
)

// linearProblem solves a·x = b.
type linearProblem struct {
	a *mat.Dense
	b *mat.VecDense
}

func (p linearProblem) ComputeJacobian(x *mat.VecDense, j *mat.Dense) error {
	j.Copy(p.a)
	return nil
}

func (p linearProblem) ComputeResidual(x, r *mat.VecDense) error {
	r.MulVec(p.a, x)
	r.SubVec(p.b, r)
	return nil
}

// squareRoot solves x^2 = 4.
type squareRoot struct{ jacobians int }

func (p *squareRoot) ComputeJacobian(x *mat.VecDense, j *mat.Dense) error {
	p.jacobians++
	j.Set(0, 0, 2*x.AtVec(0))
	return nil
}

func (p *squareRoot) ComputeResidual(x, r *mat.VecDense) error {
	r.SetVec(0, 4-x.AtVec(0)*x.AtVec(0))
	return nil
}

type hookedStrategy struct {
	*MockStrategy
	*MockStepHooks
}

var _ = Describe("Solver", func() {
	var (
		mockCtrl *gomock.Controller
		strategy *MockStrategy
		hooks    *MockStepHooks
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		strategy = NewMockStrategy(mockCtrl)
		hooks = NewMockStepHooks(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	setResidual := func(v float64) func(x, r *mat.VecDense) error {
		return func(x, r *mat.VecDense) error {
			for i := 0; i < r.Len(); i++ {
				r.SetVec(i, v)
			}
			return nil
		}
	}
	setIdentity := func(x *mat.VecDense, j *mat.Dense) error {
		j.Zero()
		for i := 0; i < x.Len(); i++ {
			j.Set(i, i, 1)
		}
		return nil
	}

	It("should converge in one iteration on a linear problem", func() {
		p := linearProblem{
			a: mat.NewDense(2, 2, []float64{3, 1, 1, 2}),
			b: mat.NewVecDense(2, []float64{9, 8}),
		}
		res, err := New(DefaultConfig()).Solve(p, mat.NewVecDense(2, nil))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.Iterations).To(Equal(1))
		Expect(res.X.AtVec(0)).To(BeNumerically("~", 2, 1e-12))
		Expect(res.X.AtVec(1)).To(BeNumerically("~", 3, 1e-12))
		Expect(res.ResidualNorm).To(BeNumerically("<=", DefaultAbsTolerance))
	})

	It("should converge quadratically on a nonlinear problem", func() {
		p := &squareRoot{}
		x0 := mat.NewVecDense(1, []float64{3})
		res, err := New(DefaultConfig()).Solve(p, x0)

		Expect(err).ToNot(HaveOccurred())
		Expect(res.X.AtVec(0)).To(BeNumerically("~", 2, 1e-9))
		Expect(res.Iterations).To(BeNumerically("<=", 6))
		Expect(p.jacobians).To(Equal(res.Iterations))
		Expect(x0.AtVec(0)).To(Equal(3.0), "initial guess must not be modified")
	})

	It("should build the jacobian once when reusing it", func() {
		p := &squareRoot{}
		cfg := DefaultConfig()
		cfg.ReuseJacobian = true
		cfg.MaxIterations = 50
		res, err := New(cfg).Solve(p, mat.NewVecDense(1, []float64{2.5}))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.X.AtVec(0)).To(BeNumerically("~", 2, 1e-8))
		Expect(p.jacobians).To(Equal(1))
		Expect(res.Iterations).To(BeNumerically(">", 1))
	})

	It("should call hooks around each update", func() {
		gomock.InOrder(
			strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(1)),
			hooks.EXPECT().BeforeNewtonStep(1, gomock.Any()).Return(nil),
			strategy.EXPECT().ComputeJacobian(gomock.Any(), gomock.Any()).DoAndReturn(setIdentity),
			hooks.EXPECT().AfterNewtonStep(1, gomock.Any()).DoAndReturn(func(iter int, x *mat.VecDense) error {
				Expect(x.AtVec(0)).To(Equal(1.0))
				return nil
			}),
			strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(0)),
		)

		res, err := New(DefaultConfig()).Solve(hookedStrategy{strategy, hooks}, mat.NewVecDense(1, nil))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.Iterations).To(Equal(1))
	})

	It("should stop when a hook fails", func() {
		hookErr := errors.New("copy failed")
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(1))
		hooks.EXPECT().BeforeNewtonStep(1, gomock.Any()).Return(hookErr)

		_, err := New(DefaultConfig()).Solve(hookedStrategy{strategy, hooks}, mat.NewVecDense(1, nil))

		Expect(err).To(MatchError(hookErr))
	})

	It("should report non-convergence at the iteration cap", func() {
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(1)).Times(4)
		strategy.EXPECT().ComputeJacobian(gomock.Any(), gomock.Any()).DoAndReturn(setIdentity).Times(3)

		cfg := DefaultConfig()
		cfg.MaxIterations = 3
		res, err := New(cfg).Solve(strategy, mat.NewVecDense(1, nil))

		Expect(err).To(MatchError(dynamo.ErrNewtonNonConvergence))
		Expect(IsNonConvergence(err)).To(BeTrue())
		Expect(res.Iterations).To(Equal(3))
	})

	It("should abort when the residual exceeds the maximum", func() {
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(100)).Times(2)
		strategy.EXPECT().ComputeJacobian(gomock.Any(), gomock.Any()).DoAndReturn(setIdentity)

		cfg := DefaultConfig()
		cfg.MaxResidual = 10
		_, err := New(cfg).Solve(strategy, mat.NewVecDense(1, nil))

		Expect(err).To(MatchError(ErrDiverged))
		Expect(err).To(MatchError(dynamo.ErrNewtonNonConvergence))
	})

	It("should surface a singular jacobian", func() {
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(1))
		strategy.EXPECT().ComputeJacobian(gomock.Any(), gomock.Any()).Return(nil)

		_, err := New(DefaultConfig()).Solve(strategy, mat.NewVecDense(2, nil))

		Expect(err).To(MatchError(linalg.ErrSingular))
	})

	It("should refuse a jacobian with non-finite entries", func() {
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(1))
		strategy.EXPECT().ComputeJacobian(gomock.Any(), gomock.Any()).DoAndReturn(func(x *mat.VecDense, j *mat.Dense) error {
			j.Set(0, 0, math.NaN())
			return nil
		})

		res, err := New(DefaultConfig()).Solve(strategy, mat.NewVecDense(1, []float64{0.5}))

		Expect(err).To(MatchError(linalg.ErrSingular))
		Expect(res.X.AtVec(0)).To(Equal(0.5))
	})

	It("should skip iterating when the guess already converged", func() {
		strategy.EXPECT().ComputeResidual(gomock.Any(), gomock.Any()).DoAndReturn(setResidual(0))

		cfg := DefaultConfig()
		cfg.CheckInitialConvergence = true
		res, err := New(cfg).Solve(strategy, mat.NewVecDense(1, nil))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.Iterations).To(Equal(0))
	})

	It("should honour the relative tolerance", func() {
		p := &squareRoot{}
		cfg := DefaultConfig()
		cfg.RelTolerance = 0.5
		res, err := New(cfg).Solve(p, mat.NewVecDense(1, []float64{3}))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.ResidualNorm).To(BeNumerically("<=", DefaultAbsTolerance+0.5*res.InitialNorm))
		Expect(res.Iterations).To(Equal(1))
	})

	It("should use the injected linear solver", func() {
		p := linearProblem{
			a: mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			b: mat.NewVecDense(2, []float64{5, 11}),
		}
		res, err := New(DefaultConfig(), WithLinearSolver(linalg.QR{})).Solve(p, mat.NewVecDense(2, nil))

		Expect(err).ToNot(HaveOccurred())
		Expect(res.X.AtVec(0)).To(BeNumerically("~", 1, 1e-12))
		Expect(res.X.AtVec(1)).To(BeNumerically("~", 2, 1e-12))
	})
})
