package metrics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
)

// Energy is the mean energy over all observed samples.
type Energy struct {
	name        string
	ham         dynamo.Hamiltonian
	samples     int
	totalEnergy float64
}

func NewEnergy(ham dynamo.Hamiltonian) *Energy {
	return &Energy{
		name: "energy",
		ham:  ham,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(_ float64, x dynamo.State) {
	e.totalEnergy += e.ham.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation from the energy of the first sample.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	ham           dynamo.Hamiltonian
}

func NewEnergyDrift(ham dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		ham:  ham,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ float64, x dynamo.State) {
	energy := e.ham.Energy(x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Final is the relative drift of the last sample.
func (e *EnergyDrift) Final() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
