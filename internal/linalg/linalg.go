// Package linalg is the dense linear-algebra collaborator of the Newton
// solver. It wraps gonum factorizations behind a small [Solver] interface so
// the engine does not depend on a particular decomposition.
package linalg

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular indicates a matrix too ill-conditioned to solve against.
var ErrSingular = errors.New("linalg: singular matrix")

// Solver factorizes square matrices.
type Solver interface {
	Name() string
	Factorize(a *mat.Dense) (Factorization, error)
}

// Factorization solves a·x = b for a previously factorized a.
type Factorization interface {
	SolveVec(dst, b *mat.VecDense) error
}

// NewSolver returns the solver registered under name ("lu" or "qr").
func NewSolver(name string) (Solver, error) {
	switch strings.ToLower(name) {
	case "", "lu":
		return LU{}, nil
	case "qr":
		return QR{}, nil
	}
	return nil, fmt.Errorf("linalg: unknown solver %q", name)
}

// LU solves with partial-pivoting LU decomposition.
type LU struct{}

func (LU) Name() string { return "lu" }

func (LU) Factorize(a *mat.Dense) (Factorization, error) {
	n, err := square(a)
	if err != nil {
		return nil, err
	}
	f := &luFactors{n: n}
	f.lu.Factorize(a)
	return f, nil
}

type luFactors struct {
	n  int
	lu mat.LU
}

func (f *luFactors) SolveVec(dst, b *mat.VecDense) error {
	if b.Len() != f.n || dst.Len() != f.n {
		return fmt.Errorf("%w: system %d, rhs %d, dst %d", dynamo.ErrDimensionMismatch, f.n, b.Len(), dst.Len())
	}
	if err := f.lu.SolveVecTo(dst, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

// QR solves with Householder QR decomposition.
type QR struct{}

func (QR) Name() string { return "qr" }

func (QR) Factorize(a *mat.Dense) (Factorization, error) {
	n, err := square(a)
	if err != nil {
		return nil, err
	}
	f := &qrFactors{n: n}
	f.qr.Factorize(a)
	return f, nil
}

type qrFactors struct {
	n  int
	qr mat.QR
}

func (f *qrFactors) SolveVec(dst, b *mat.VecDense) error {
	if b.Len() != f.n || dst.Len() != f.n {
		return fmt.Errorf("%w: system %d, rhs %d, dst %d", dynamo.ErrDimensionMismatch, f.n, b.Len(), dst.Len())
	}
	if err := f.qr.SolveVecTo(dst, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}

func square(a *mat.Dense) (int, error) {
	r, c := a.Dims()
	if r != c {
		return 0, fmt.Errorf("%w: matrix is %dx%d", dynamo.ErrDimensionMismatch, r, c)
	}
	return r, nil
}

// NormInf returns the largest absolute entry of v.
func NormInf(v mat.Vector) float64 {
	return mat.Norm(v, math.Inf(1))
}

// HasNaNOrInf reports whether any entry of m is NaN or infinite.
func HasNaNOrInf(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
