package physics

import (
	"fmt"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Model is a System with named parameters that knows a sensible initial state.
type Model interface {
	dynamo.System
	dynamo.Configurable
	DefaultState() dynamo.State
}

// column returns the values of level k after checking the shapes involved.
func column(n int, u *dynamo.History, k int, dudt dynamo.State) (dynamo.State, error) {
	if u.Len() != n || len(dudt) != n {
		return nil, fmt.Errorf("%w: model has %d odes, buffer %d, output %d", dynamo.ErrDimensionMismatch, n, u.Len(), len(dudt))
	}
	return u.Column(k), nil
}

func checkJacobian(n int, u *dynamo.History, j *mat.Dense) error {
	if r, c := j.Dims(); r != n || c != n || u.Len() != n {
		return fmt.Errorf("%w: model has %d odes, jacobian %dx%d", dynamo.ErrDimensionMismatch, n, r, c)
	}
	return nil
}

func unknownParam(name string) error {
	return fmt.Errorf("unknown param: %s", name)
}
