// Package storage persists runs under a data directory, one directory per
// run holding metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Model        string             `json:"model"`
	Stepper      string             `json:"stepper"`
	H            float64            `json:"h"`
	T0           float64            `json:"t0"`
	TFinal       float64            `json:"t_final"`
	MaxTolerance float64            `json:"max_tolerance,omitempty"`
	MinStep      float64            `json:"min_step,omitempty"`
	Params       map[string]float64 `json:"params,omitempty"`
}

type RunMetadata struct {
	RunInfo
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Outputs     int                `json:"outputs"`
	StepsTaken  int                `json:"steps_taken"`
	Rejected    int                `json:"rejected"`
	Evaluations int                `json:"evaluations"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes result under a fresh run id and returns the id.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := xid.New().String()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		RunInfo:     info,
		ID:          runID,
		Timestamp:   time.Now(),
		Outputs:     len(result.Times),
		StepsTaken:  result.StepsTaken,
		Rejected:    result.Rejected,
		Evaluations: result.Evaluations,
		Metrics:     finiteMetrics(result.Metrics),
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, "states.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			header = append(header, fmt.Sprintf("u%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for i, state := range result.States {
		row := make([]string, 0, len(state)+1)
		row = append(row, formatFloat(result.Times[i]))
		for _, val := range state {
			row = append(row, formatFloat(val))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// finiteMetrics drops NaN and Inf values, which JSON cannot represent.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadResult reads a stored run back into a sim.Result.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s states: %w", runID, err)
	}

	result := &sim.Result{
		Stepper:     meta.Stepper,
		StepsTaken:  meta.StepsTaken,
		Rejected:    meta.Rejected,
		Evaluations: meta.Evaluations,
		Metrics:     meta.Metrics,
	}
	for line, record := range records {
		if line == 0 {
			continue
		}
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s states line %d: %w", runID, line+1, err)
			}
			row[j] = v
		}
		result.Times = append(result.Times, row[0])
		result.States = append(result.States, dynamo.State(row[1:]))
	}
	return result, nil
}
