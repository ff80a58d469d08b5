package metrics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
)

// Stability is the fraction of samples whose components all stay within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	maxNorm    float64
	diverged   bool
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ float64, x dynamo.State) {
	s.samples++
	if !x.IsValid() {
		s.violations++
		s.diverged = true
		return
	}
	s.maxNorm = math.Max(s.maxNorm, x.MaxAbs())
	for _, val := range x {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// MaxNorm is the largest component magnitude seen.
func (s *Stability) MaxNorm() float64 { return s.maxNorm }

// Diverged reports a NaN or Inf sample, or a run that ended outside the threshold.
func (s *Stability) Diverged() bool {
	return s.diverged || s.maxNorm > s.threshold && s.Value() < 1
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.maxNorm = 0
	s.diverged = false
}
