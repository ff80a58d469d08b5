package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration operations.
var (
	// ErrInsufficientHistory indicates a state buffer with fewer columns than the stepper needs.
	ErrInsufficientHistory = errors.New("dynamo: insufficient history values")

	// ErrDimensionMismatch indicates mismatched vector/matrix/state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrUnconfiguredStrategy indicates a Jacobian/residual strategy used without a valid solve context.
	ErrUnconfiguredStrategy = errors.New("dynamo: jacobian/residual strategy used before configuration")

	// ErrNewtonNonConvergence indicates Newton's method hit its iteration cap.
	ErrNewtonNonConvergence = errors.New("dynamo: newton iteration did not converge")

	// ErrStepRejectionExhausted indicates an adaptive stepper kept rejecting its trial step.
	ErrStepRejectionExhausted = errors.New("dynamo: adaptive step rejected too many times")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// StepError wraps a failure with the stepper name and the (t, h) of the attempt.
type StepError struct {
	Stepper string
	T       float64
	H       float64
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: t=%.4f h=%.3e: %v", e.Stepper, e.T, e.H, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError returns err wrapped with stepper context, or nil for a nil err.
// An error that already carries a StepError is returned unchanged.
func NewStepError(stepper string, t, h float64, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Stepper: stepper, T: t, H: h, Err: err}
}

// SimulationError wraps an error with run context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// CheckHistory returns ErrInsufficientHistory when u has fewer than depth columns.
func CheckHistory(u *History, depth int) error {
	if u.Depth() < depth {
		return fmt.Errorf("%w: required %d, got %d", ErrInsufficientHistory, depth, u.Depth())
	}
	return nil
}

// CheckDims returns ErrDimensionMismatch when sys and u disagree on the number of unknowns.
func CheckDims(sys System, u *History) error {
	if sys.NumODEs() != u.Len() {
		return fmt.Errorf("%w: system has %d odes, buffer has %d values", ErrDimensionMismatch, sys.NumODEs(), u.Len())
	}
	return nil
}
