// Package metrics provides sim.Metric implementations for accuracy,
// conservation and cost.
package metrics

import (
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
)

// DefaultThreshold is the stability bound used by Standard.
const DefaultThreshold = 1e6

var (
	_ sim.Metric = (*Energy)(nil)
	_ sim.Metric = (*EnergyDrift)(nil)
	_ sim.Metric = (*Stability)(nil)
	_ sim.Metric = (*GlobalError)(nil)
	_ sim.Metric = (*Evaluations)(nil)
)

// Standard returns the metrics that apply to sys: stability always,
// global error for systems with an exact solution and energy drift for
// systems with a conserved quantity. Evaluations is added when counter is set.
func Standard(sys dynamo.System, counter *dynamo.Counting, threshold float64) []sim.Metric {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ms := []sim.Metric{NewStability(threshold)}

	if c, ok := sys.(*dynamo.Counting); ok {
		sys = c.Unwrap()
	}
	if ex, ok := sys.(dynamo.Exact); ok {
		ms = append(ms, NewGlobalError(ex))
	}
	if ham, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms, NewEnergyDrift(ham))
	}
	if counter != nil {
		ms = append(ms, NewEvaluations(counter))
	}
	return ms
}
