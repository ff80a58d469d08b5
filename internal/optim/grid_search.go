// Package optim searches run settings for the cheapest configuration that
// still meets an accuracy constraint.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/ivpsim/internal/config"
	"github.com/san-kum/ivpsim/internal/experiment"
	"github.com/san-kum/ivpsim/internal/sim"
)

// ErrNoFeasiblePoint is returned when every grid point failed or violated the constraint.
var ErrNoFeasiblePoint = errors.New("optim: no grid point satisfies the constraint")

// Constraint reports whether a finished run is acceptable.
type Constraint func(result *sim.Result) bool

// MaxMetric accepts runs whose metric is present and at most bound.
func MaxMetric(name string, bound float64) Constraint {
	return func(result *sim.Result) bool {
		v, ok := result.Metrics[name]
		return ok && !math.IsNaN(v) && v <= bound
	}
}

// Point is one evaluated grid point.
type Point struct {
	Params   map[string]float64
	Value    float64
	Feasible bool
	Err      error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters, %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every combination of the parameter ranges and returns the
// feasible point with the smallest metric, along with all evaluated points.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	constraint Constraint,
) (*Point, []Point, error) {
	var points []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, constraint, &points); err != nil {
		return nil, points, err
	}

	var best *Point
	for i := range points {
		p := &points[i]
		if p.Feasible && (best == nil || p.Value < best.Value) {
			best = p
		}
	}
	if best == nil {
		return nil, points, ErrNoFeasiblePoint
	}
	return best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	constraint Constraint,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		*points = append(*points, evaluate(ctx, current, buildExperiment, metricName, constraint))
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, constraint, points); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(
	ctx context.Context,
	params map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	constraint Constraint,
) Point {
	p := Point{Params: params, Value: math.Inf(1)}

	exp, err := buildExperiment(params)
	if err != nil {
		p.Err = err
		return p
	}
	result, err := exp.Run(ctx)
	if err != nil {
		p.Err = err
		return p
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		p.Err = fmt.Errorf("optim: run has no metric %q", metricName)
		return p
	}
	p.Value = val
	p.Feasible = constraint == nil || constraint(result)
	return p
}

// Apply returns a copy of base with the named settings overridden. Known
// names are h, t_final and the adaptive, newton and corrector tolerances;
// any other name is treated as a model parameter.
func Apply(base *config.Config, params map[string]float64) *config.Config {
	cfg := base.Clone()
	if cfg.Params == nil {
		cfg.Params = make(map[string]float64)
	}

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		v := params[k]
		switch k {
		case "h":
			cfg.H = v
		case "t_final":
			cfg.TFinal = v
		case "max_tolerance":
			cfg.Adaptive.MaxTolerance = v
		case "min_step":
			cfg.Adaptive.MinStep = v
		case "max_step":
			cfg.Adaptive.MaxStep = v
		case "newton_tolerance":
			cfg.Newton.AbsTolerance = v
		case "corrector_tolerance":
			cfg.Corrector.MaxTolerance = v
		default:
			cfg.Params[k] = v
		}
	}
	return cfg
}
