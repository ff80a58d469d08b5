package config

import "sort"

// preset overrides the defaults with a model, a stepper and a time span.
func preset(model, stepper string, h, tFinal float64, init []float64, params map[string]float64) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	cfg.Stepper = stepper
	cfg.H = h
	cfg.TFinal = tFinal
	cfg.InitState = init
	cfg.Params = params
	return cfg
}

var Presets = map[string]map[string]*Config{
	"decay": {
		"smooth": preset("decay", "rk4", 0.1, 5.0, []float64{1.0}, nil),
		"stiff":  preset("decay", "bdf1", 1.0, 10.0, []float64{1.0}, map[string]float64{"rate": 5.0}),
	},
	"stiff_decay": {
		"explicit": preset("stiff_decay", "euler", 1.0, 5.0, []float64{1.0}, nil),
		"implicit": preset("stiff_decay", "bdf2", 0.5, 5.0, []float64{1.0}, nil),
	},
	"oscillator": {
		"unit":   preset("oscillator", "rk4", 0.05, 20.0, []float64{1.0, 0.0}, nil),
		"fast":   preset("oscillator", "rk45dp", 0.1, 20.0, []float64{1.0, 0.0}, map[string]float64{"omega": 10.0}),
		"energy": preset("oscillator", "am2", 0.1, 100.0, []float64{1.0, 0.0}, nil),
	},
	"van_der_pol": {
		"mild":  preset("van_der_pol", "rk45dp", 0.1, 20.0, []float64{2.0, 0.0}, map[string]float64{"mu": 1.0}),
		"stiff": preset("van_der_pol", "bdf2", 0.01, 20.0, []float64{2.0, 0.0}, map[string]float64{"mu": 100.0}),
	},
	"lorenz": {
		"classic": preset("lorenz", "rk4", 0.01, 50.0, []float64{1.0, 1.0, 1.0}, nil),
		"stable":  preset("lorenz", "rk45dp", 0.01, 50.0, []float64{1.0, 1.0, 1.0}, map[string]float64{"rho": 10.0}),
	},
	"rossler": {
		"classic": preset("rossler", "rk4", 0.01, 200.0, []float64{1.0, 1.0, 0.0}, nil),
	},
	"chen": {
		"classic": preset("chen", "rk45dp", 0.005, 30.0, []float64{-10.0, 0.0, 37.0}, nil),
	},
	"lotka_volterra": {
		"cycle": preset("lotka_volterra", "rk4", 0.01, 50.0, []float64{2.0, 1.0}, nil),
	},
	"pendulum": {
		"small":    preset("pendulum", "rk4", 0.01, 20.0, []float64{0.2, 0.0}, nil),
		"large":    preset("pendulum", "rk4", 0.01, 20.0, []float64{2.5, 0.0}, nil),
		"spinning": preset("pendulum", "rk45dp", 0.01, 30.0, []float64{0.1, 8.0}, nil),
	},
	"duffing": {
		"chaotic": preset("duffing", "rk45dp", 0.05, 100.0, []float64{1.0, 0.0}, nil),
	},
	"three_body": {
		"figure8": preset("three_body", "rk45dp", 0.01, 6.3259, nil, nil),
	},
}

func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of model in sorted order.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
