package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel   = "decay"
	DefaultStepper = "rk4"
	DefaultH       = 0.01
	DefaultTFinal  = 10.0
)

type Config struct {
	Model       string             `yaml:"model"`
	Stepper     string             `yaml:"stepper"`
	H           float64            `yaml:"h"`
	T0          float64            `yaml:"t0"`
	TFinal      float64            `yaml:"t_final"`
	InitState   []float64          `yaml:"init_state,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	FixedOutput bool               `yaml:"fixed_output"`
	Adaptive    AdaptiveConfig     `yaml:"adaptive"`
	Newton      NewtonConfig       `yaml:"newton"`
	Corrector   CorrectorConfig    `yaml:"corrector"`
}

type AdaptiveConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	MinStep       float64 `yaml:"min_step"`
	MaxStep       float64 `yaml:"max_step"`
	MaxTolerance  float64 `yaml:"max_tolerance"`
	MinTolerance  float64 `yaml:"min_tolerance"`
	Norm          string  `yaml:"norm"`
	Controller    string  `yaml:"controller"`
	Exponent      float64 `yaml:"exponent"`
}

type NewtonConfig struct {
	AbsTolerance  float64 `yaml:"abs_tolerance"`
	RelTolerance  float64 `yaml:"rel_tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	MaxResidual   float64 `yaml:"max_residual"`
	ReuseJacobian bool    `yaml:"reuse_jacobian"`
	LinearSolver  string  `yaml:"linear_solver"`
	Jacobian      string  `yaml:"jacobian"`
}

type CorrectorConfig struct {
	MaxIterations   int     `yaml:"max_iterations"`
	MaxTolerance    float64 `yaml:"max_tolerance"`
	MinTolerance    float64 `yaml:"min_tolerance"`
	FixedIterations bool    `yaml:"fixed_iterations"`
	FinalEvaluation bool    `yaml:"final_evaluation"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:       DefaultModel,
		Stepper:     DefaultStepper,
		H:           DefaultH,
		TFinal:      DefaultTFinal,
		FixedOutput: true,
		Adaptive: AdaptiveConfig{
			MaxIterations: 5,
			MinStep:       1e-4,
			MaxStep:       1.0,
			MaxTolerance:  1e-3,
			MinTolerance:  1e-8,
			Norm:          "inf",
			Controller:    "proportional",
			Exponent:      0.2,
		},
		Newton: NewtonConfig{
			AbsTolerance:  1e-8,
			MaxIterations: 10,
			LinearSolver:  "lu",
			Jacobian:      "fd",
		},
		Corrector: CorrectorConfig{
			MaxIterations: 10,
			MaxTolerance:  1e-3,
			MinTolerance:  1e-8,
		},
	}
}

// Load reads a YAML file over the defaults; keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges that do not depend on the chosen model or stepper.
func (c *Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("config: model is required")
	case c.Stepper == "":
		return fmt.Errorf("config: stepper is required")
	case c.H <= 0:
		return fmt.Errorf("config: h must be positive, got %g", c.H)
	case c.TFinal <= c.T0:
		return fmt.Errorf("config: t_final must be after t0, got [%g, %g]", c.T0, c.TFinal)
	case c.Adaptive.MaxIterations < 1:
		return fmt.Errorf("config: adaptive.max_iterations must be positive, got %d", c.Adaptive.MaxIterations)
	case c.Adaptive.MinStep <= 0 || c.Adaptive.MaxStep < c.Adaptive.MinStep:
		return fmt.Errorf("config: adaptive needs 0 < min_step <= max_step, got [%g, %g]", c.Adaptive.MinStep, c.Adaptive.MaxStep)
	case c.Adaptive.MaxTolerance <= 0:
		return fmt.Errorf("config: adaptive.max_tolerance must be positive, got %g", c.Adaptive.MaxTolerance)
	case c.Newton.MaxIterations < 1:
		return fmt.Errorf("config: newton.max_iterations must be positive, got %d", c.Newton.MaxIterations)
	case c.Newton.AbsTolerance <= 0:
		return fmt.Errorf("config: newton.abs_tolerance must be positive, got %g", c.Newton.AbsTolerance)
	case c.Corrector.MaxIterations < 1:
		return fmt.Errorf("config: corrector.max_iterations must be positive, got %d", c.Corrector.MaxIterations)
	case c.Corrector.MaxTolerance <= 0:
		return fmt.Errorf("config: corrector.max_tolerance must be positive, got %g", c.Corrector.MaxTolerance)
	}
	switch strings.ToLower(c.Adaptive.Norm) {
	case "", "inf", "l2":
	default:
		return fmt.Errorf("config: unknown adaptive.norm %q", c.Adaptive.Norm)
	}
	return nil
}

// GetInitState returns a copy of the configured initial state, or nil when
// the model default should be used.
func (c *Config) GetInitState() []float64 {
	if len(c.InitState) == 0 {
		return nil
	}
	out := make([]float64, len(c.InitState))
	copy(out, c.InitState)
	return out
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.InitState = c.GetInitState()
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}
