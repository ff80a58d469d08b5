package dynamo

// Counting wraps a System and counts derivative evaluations per equation.
type Counting struct {
	System
	calls []int
}

func NewCounting(sys System) *Counting {
	return &Counting{System: sys, calls: make([]int, sys.NumODEs())}
}

func (c *Counting) Evaluate(t float64, u *History, k int, dudt State) error {
	for i := range c.calls {
		c.calls[i]++
	}
	return c.System.Evaluate(t, u, k, dudt)
}

func (c *Counting) Unwrap() System { return c.System }

// Calls returns a copy of the per-equation counters.
func (c *Counting) Calls() []int {
	out := make([]int, len(c.calls))
	copy(out, c.calls)
	return out
}

// Total is the number of full system evaluations.
func (c *Counting) Total() int {
	if len(c.calls) == 0 {
		return 0
	}
	return c.calls[0]
}

func (c *Counting) Reset() {
	for i := range c.calls {
		c.calls[i] = 0
	}
}

// AnalyticJacobian returns the analytic Jacobian of sys, looking through
// Counting wrappers.
func AnalyticJacobian(sys System) (Jacobian, bool) {
	for {
		switch s := sys.(type) {
		case *Counting:
			sys = s.System
		case Jacobian:
			return s, true
		default:
			return nil, false
		}
	}
}
