// Package erv turns the work accounting of a driving cycle into differential
// efficiency factors and Energy Reduction Values (ERV) for combustion and
// electric vehicles.
//
// Figures at the 100 kg / 100 km reference scale leave out aerodynamic drag,
// which does not depend on mass. Figures at vehicle scale include it, so the
// efficiency factors relate the full mechanical demand to certified
// consumption while the ERV measures only the mass-dependent share.
package erv

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/units"
	"github.com/banshee-data/lightimpact/internal/work"
)

// ErrDivisionByZero is returned when a denominator of the calculation is
// exactly zero, e.g. a trace with no tractive samples or a zero certified
// consumption. No partial result is returned alongside it.
var ErrDivisionByZero = errors.New("division by zero")

// Result is the outcome of an ERV calculation.
type Result struct {
	ErvICV    float64 `json:"erv_icv"`     // L/(100km·100kg)
	ErvEV     float64 `json:"erv_ev"`      // kWh/(100km·100kg)
	MuDiffICV float64 `json:"mu_diff_icv"` // differential efficiency factor, combustion
	MuDiffEV  float64 `json:"mu_diff_ev"`  // differential efficiency factor, electric
}

// Totals is the mechanical-work balance at one mass, normalised to the
// reference distance. Work values are in MJ.
type Totals struct {
	MassKg         float64 `json:"mass_kg"`
	BrakingEnergy  float64 `json:"braking_energy"`  // |Σ braking work|
	Phi            float64 `json:"phi"`             // braking-to-traction ratio
	AccelerationEV float64 `json:"acceleration_ev"` // acceleration work net of recuperation
	WorkICV        float64 `json:"work_icv"`
	WorkEV         float64 `json:"work_ev"`
}

// Calculation is a Result together with the intermediate figures it was
// derived from.
type Calculation struct {
	Result
	Work      work.Set `json:"work"`
	Reference Totals   `json:"reference"` // 100 kg, 100 km, without aerodynamic work
	Vehicle   Totals   `json:"vehicle"`   // vehicle mass, 100 km, with aerodynamic work
}

// Compute returns the ERV result for a work set and parameter set.
func Compute(set work.Set, p config.Params) (Result, error) {
	c, err := Calculate(set, p)
	if err != nil {
		return Result{}, err
	}
	return c.Result, nil
}

// Calculate runs the full energy balance. At each scale (reference mass
// without aerodynamic work, vehicle mass with it):
//
//	W_ICV = (share·W_R + W_A + W_Rot [+ W_L])·(ds_ref/ds)
//	E_b   = |W_R + W_A + W_Rot + W_L| over the braking phase
//	phi   = E_b / (m·Σa·v·dt over the tractive phase)
//	W_EV  = (share·W_R + W_A·(1 − phi·mu) + W_Rot [+ W_L])·(ds_ref/ds)
//
// and then
//
//	mu_diff_ICV = W_ICV,vehicle / (c_fuel·LHV)
//	mu_diff_EV  = W_EV,vehicle / (c_el·3.6)
//	ERV_ICV     = W_ICV,ref / (mu_diff_ICV·LHV)
//	ERV_EV      = W_EV,ref / mu_diff_EV
func Calculate(set work.Set, p config.Params) (*Calculation, error) {
	av := set.Tractive.Integrals.AccelVelocity

	ref, err := balance(set.Tractive.Reference, set.Braking.Reference, p.ReferenceMassKg, av, false, p)
	if err != nil {
		return nil, fmt.Errorf("reference scale: %w", err)
	}
	veh, err := balance(set.Tractive.Vehicle, set.Braking.Vehicle, p.MassKg, av, true, p)
	if err != nil {
		return nil, fmt.Errorf("vehicle scale: %w", err)
	}

	muICV, err := div(veh.WorkICV, p.CertifiedFuelLPer100km*p.FuelLHVMJPerL, "certified fuel energy (c_fuel·LHV)")
	if err != nil {
		return nil, err
	}
	muEV, err := div(veh.WorkEV, units.KWhToMJ(p.CertifiedElectricityKWhPer100km), "certified electric energy (c_el·3.6)")
	if err != nil {
		return nil, err
	}

	ervICV, err := div(ref.WorkICV, muICV*p.FuelLHVMJPerL, "mu_diff_ICV·LHV")
	if err != nil {
		return nil, err
	}
	ervEV, err := div(ref.WorkEV, muEV, "mu_diff_EV")
	if err != nil {
		return nil, err
	}

	return &Calculation{
		Result: Result{
			ErvICV:    ervICV,
			ErvEV:     ervEV,
			MuDiffICV: muICV,
			MuDiffEV:  muEV,
		},
		Work:      set,
		Reference: ref,
		Vehicle:   veh,
	}, nil
}

// balance evaluates the work totals at one mass. Operand order in the sums
// is fixed so results are reproducible to the last few ulps.
func balance(tractive, braking work.Work, massKg, accelVelocity float64, withAero bool, p config.Params) (Totals, error) {
	scale, err := div(p.ReferenceDistanceKm, p.DistanceKm, "cycle distance")
	if err != nil {
		return Totals{}, err
	}

	eb := math.Abs(braking.Rolling + braking.Acceleration + braking.Rotational + braking.Aerodynamic)
	phi, err := div(eb, massKg*accelVelocity, "tractive energy (m·Σa·v·dt)")
	if err != nil {
		return Totals{}, err
	}
	accelEV := tractive.Acceleration * (1 - (phi * p.RegenBrakingEfficiency))

	rolling := p.RollingPositiveShare * tractive.Rolling
	var icv, ev float64
	if withAero {
		icv = (rolling + tractive.Acceleration + tractive.Rotational + tractive.Aerodynamic) * scale
		ev = (rolling + accelEV + tractive.Rotational + tractive.Aerodynamic) * scale
	} else {
		icv = (rolling + tractive.Acceleration + tractive.Rotational) * scale
		ev = (rolling + accelEV + tractive.Rotational) * scale
	}

	return Totals{
		MassKg:         massKg,
		BrakingEnergy:  eb,
		Phi:            phi,
		AccelerationEV: accelEV,
		WorkICV:        icv,
		WorkEV:         ev,
	}, nil
}

func div(num, den float64, what string) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: %s is zero", ErrDivisionByZero, what)
	}
	return num / den, nil
}

// TotalWorkICV recovers the reference-scale ICV work from a result:
// ERV_ICV·mu_diff_ICV·LHV.
func (r Result) TotalWorkICV(p config.Params) float64 {
	return r.ErvICV * r.MuDiffICV * p.FuelLHVMJPerL
}

// TotalWorkEV recovers the reference-scale EV work from a result:
// ERV_EV·mu_diff_EV.
func (r Result) TotalWorkEV() float64 {
	return r.ErvEV * r.MuDiffEV
}
