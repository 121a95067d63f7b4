// Package work integrates the mechanical-work terms of a driving cycle:
// rolling resistance, acceleration, rotational inertia and aerodynamic drag.
// All work values are in mega-joules.
package work

import (
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/units"
)

// Integrals are the per-phase sums the work terms are built from. Both are
// left-endpoint sums using each sample's own dt.
type Integrals struct {
	AccelVelocity float64 `json:"a_v_integral"` // Σ a·v·dt [m²/s²]
	VelocityCubed float64 `json:"v3_integral"`  // Σ v³·dt [m³/s²]
	Samples       int     `json:"samples"`
}

// Integrate computes the integrals over a phase subset. An empty subset
// yields zero integrals.
func Integrate(s drivecycle.PhaseSubset) Integrals {
	if s.Len() == 0 {
		return Integrals{}
	}
	v, a, dt := s.Columns()

	// a·v·dt
	av := make([]float64, len(v))
	floats.MulTo(av, a, v)
	floats.Mul(av, dt)

	// v³·dt
	v3 := make([]float64, len(v))
	floats.MulTo(v3, v, v)
	floats.Mul(v3, v)
	floats.Mul(v3, dt)

	return Integrals{
		AccelVelocity: floats.Sum(av),
		VelocityCubed: floats.Sum(v3),
		Samples:       s.Len(),
	}
}

// Work holds the four work terms for one phase at one mass.
type Work struct {
	Rolling      float64 `json:"rolling"`
	Acceleration float64 `json:"acceleration"`
	Rotational   float64 `json:"rotational"`
	Aerodynamic  float64 `json:"aerodynamic"`
}

// Sum returns the total of the four terms.
func (w Work) Sum() float64 {
	return w.Rolling + w.Acceleration + w.Rotational + w.Aerodynamic
}

// Compute evaluates the work terms for integrals at massKg.
//
// Rolling work depends only on mass and cycle distance, not on the integrals.
// Aerodynamic work has no mass term, so it is identical at every mass.
func Compute(in Integrals, massKg float64, p config.Params) Work {
	return Work{
		Rolling:      massKg * p.GravityMPS2 * p.RollingResistanceCoeff * p.DistanceKm * units.MetresPerKilometre / units.JoulesPerMegajoule,
		Acceleration: massKg * in.AccelVelocity / units.JoulesPerMegajoule,
		Rotational:   massKg * p.RotationalMassFactor * in.AccelVelocity / units.JoulesPerMegajoule,
		Aerodynamic:  0.5 * p.AirDensityKgM3 * p.DragCoeff * p.FrontalAreaM2 * in.VelocityCubed / units.JoulesPerMegajoule,
	}
}

// PhaseWork is the work of one phase at the reference mass and at the
// vehicle mass.
type PhaseWork struct {
	Integrals Integrals `json:"integrals"`
	Reference Work      `json:"reference"` // at Params.ReferenceMassKg
	Vehicle   Work      `json:"vehicle"`   // at Params.MassKg
}

// Set is the complete work accounting of a trace for one parameter set.
// Braking work carries negative acceleration and rotational terms.
type Set struct {
	Tractive PhaseWork `json:"tractive"`
	Braking  PhaseWork `json:"braking"`
}

// ComputePhase integrates one subset and evaluates it at both masses.
func ComputePhase(s drivecycle.PhaseSubset, p config.Params) PhaseWork {
	in := Integrate(s)
	return PhaseWork{
		Integrals: in,
		Reference: Compute(in, p.ReferenceMassKg, p),
		Vehicle:   Compute(in, p.MassKg, p),
	}
}

// ComputeSet computes the tractive and braking work of t.
func ComputeSet(t *drivecycle.Trace, p config.Params) Set {
	return Set{
		Tractive: ComputePhase(t.Tractive(), p),
		Braking:  ComputePhase(t.Braking(), p),
	}
}
