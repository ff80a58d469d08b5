package physics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
)

// ThreeBody implements a planar gravitational three-body problem.
// State: [x1, y1, vx1, vy1, x2, y2, vx2, vy2, x3, y3, vx3, vy3]
// Each body has mass, position (x, y), and velocity (vx, vy).
type ThreeBody struct {
	Masses    [3]float64
	G         float64 // Gravitational constant
	Softening float64 // Prevents singularities at close encounters
}

func NewThreeBody() *ThreeBody {
	return &ThreeBody{
		Masses: [3]float64{1.0, 1.0, 1.0},
		G:      1.0,
	}
}

func (t *ThreeBody) NumODEs() int { return 12 }

// dist3 is the softened cube of the distance between bodies i and j.
func (t *ThreeBody) dist3(s dynamo.State, i, j int) (dx, dy, r3 float64) {
	dx = s[4*j] - s[4*i]
	dy = s[4*j+1] - s[4*i+1]
	r := math.Sqrt(dx*dx + dy*dy + t.Softening*t.Softening)
	return dx, dy, r * r * r
}

func (t *ThreeBody) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(12, u, k, dudt)
	if err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		var ax, ay float64
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			dx, dy, r3 := t.dist3(s, i, j)
			ax += t.G * t.Masses[j] * dx / r3
			ay += t.G * t.Masses[j] * dy / r3
		}
		dudt[4*i] = s[4*i+2]
		dudt[4*i+1] = s[4*i+3]
		dudt[4*i+2] = ax
		dudt[4*i+3] = ay
	}
	return nil
}

// Energy is the total kinetic plus (softened) potential energy.
func (t *ThreeBody) Energy(s dynamo.State) float64 {
	e := 0.0
	for i := 0; i < 3; i++ {
		vx, vy := s[4*i+2], s[4*i+3]
		e += 0.5 * t.Masses[i] * (vx*vx + vy*vy)
		for j := i + 1; j < 3; j++ {
			dx, dy, _ := t.dist3(s, i, j)
			e -= t.G * t.Masses[i] * t.Masses[j] / math.Sqrt(dx*dx+dy*dy+t.Softening*t.Softening)
		}
	}
	return e
}

func (t *ThreeBody) DefaultState() dynamo.State {
	// Figure-8 choreography
	return dynamo.State{
		-0.97000436, 0.24308753, 0.4662036850, 0.4323657300, // Body 1
		0.0, 0.0, -0.93240737, -0.86473146, // Body 2
		0.97000436, -0.24308753, 0.4662036850, 0.4323657300, // Body 3
	}
}

// GetParams implements dynamo.Configurable
func (t *ThreeBody) GetParams() map[string]float64 {
	return map[string]float64{
		"m1":        t.Masses[0],
		"m2":        t.Masses[1],
		"m3":        t.Masses[2],
		"g":         t.G,
		"softening": t.Softening,
	}
}

// SetParam implements dynamo.Configurable
func (t *ThreeBody) SetParam(name string, value float64) error {
	switch name {
	case "m1":
		t.Masses[0] = value
	case "m2":
		t.Masses[1] = value
	case "m3":
		t.Masses[2] = value
	case "g":
		t.G = value
	case "softening":
		t.Softening = value
	default:
		return unknownParam(name)
	}
	return nil
}
