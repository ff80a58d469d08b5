package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/ivpsim/internal/sim"
)

type ExportData struct {
	RunInfo
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected"`
	Evaluations int                `json:"evaluations"`
	Times       []float64          `json:"times"`
	States      [][]float64        `json:"states"`
	Metrics     map[string]float64 `json:"metrics"`
}

func newExportData(info RunInfo, result *sim.Result) ExportData {
	data := ExportData{
		RunInfo:     info,
		Steps:       result.StepsTaken,
		Rejected:    result.Rejected,
		Evaluations: result.Evaluations,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Metrics:     finiteMetrics(result.Metrics),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	return data
}

// ExportJSON writes the full trajectory of result to w.
func ExportJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(info, result))
}

// ExportJSONFile writes the full trajectory of result to path.
func ExportJSONFile(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, info, result)
}
