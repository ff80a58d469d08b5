package metrics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
)

// GlobalError tracks the largest absolute deviation from a closed-form
// solution, taking the first observed sample as the initial condition.
type GlobalError struct {
	exact dynamo.Exact
	t0    float64
	u0    dynamo.State
	max   float64
	last  float64
}

func NewGlobalError(exact dynamo.Exact) *GlobalError {
	return &GlobalError{exact: exact}
}

func (g *GlobalError) Name() string { return "global_error" }

func (g *GlobalError) Observe(t float64, x dynamo.State) {
	if g.u0 == nil {
		g.t0 = t
		g.u0 = x.Clone()
		return
	}
	want := g.exact.Exact(t-g.t0, g.u0)
	g.last = 0
	for i := range x {
		g.last = math.Max(g.last, math.Abs(x[i]-want[i]))
	}
	g.max = math.Max(g.max, g.last)
}

func (g *GlobalError) Value() float64 { return g.max }

// Final is the error of the last sample.
func (g *GlobalError) Final() float64 { return g.last }

func (g *GlobalError) Reset() {
	g.u0 = nil
	g.t0 = 0
	g.max = 0
	g.last = 0
}
