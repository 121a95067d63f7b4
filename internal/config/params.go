// Package config holds the physical constants, vehicle parameters and
// driving-cycle parameters that feed an ERV calculation, plus the typed
// override layer used by the command-line tools.
package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned when a parameter is physically meaningless
// (negative mass or distance, an efficiency outside [0,1], NaN, ...).
var ErrInvalidParameter = errors.New("invalid parameter")

// Constants are the process-wide physical constants. They are normally left at
// their defaults but can be overridden like any other parameter.
type Constants struct {
	ReferenceMassKg     float64 `json:"m_ref"`
	ReferenceDistanceKm float64 `json:"ds_ref"`
	GravityMPS2         float64 `json:"g"`
	AirDensityKgM3      float64 `json:"rho_air"`
	FuelLHVMJPerL       float64 `json:"LHV_fuel"` // lower heating value of gasoline
}

// Vehicle describes the vehicle under study.
type Vehicle struct {
	MassKg                 float64 `json:"m_vehicle"`
	RollingResistanceCoeff float64 `json:"f_r"`
	RotationalMassFactor   float64 `json:"f_Rot"`
	DragCoeff              float64 `json:"cw"`
	FrontalAreaM2          float64 `json:"A_frontal"`
	RegenBrakingEfficiency float64 `json:"mu"`
}

// Cycle describes the certified driving cycle the trace belongs to.
type Cycle struct {
	DistanceKm                      float64 `json:"ds"`
	RollingPositiveShare            float64 `json:"roll_pos_factor"` // share of rolling resistance during traction
	CertifiedFuelLPer100km          float64 `json:"c_fuel_WLTP"`
	CertifiedElectricityKWhPer100km float64 `json:"c_el_WLTP"`
}

// Params is the full, resolved parameter set for one calculation. It is a
// value type: callers get their own copy and nothing is shared between runs.
type Params struct {
	Constants
	Vehicle
	Cycle
}

// DefaultConstants returns the fixed physical constants.
func DefaultConstants() Constants {
	return Constants{
		ReferenceMassKg:     100.0,
		ReferenceDistanceKm: 100.0,
		GravityMPS2:         9.81,
		AirDensityKgM3:      1.2,
		FuelLHVMJPerL:       32.3,
	}
}

// DefaultVehicle returns the reference case-study vehicle.
func DefaultVehicle() Vehicle {
	return Vehicle{
		MassKg:                 1595.0,
		RollingResistanceCoeff: 0.01,
		RotationalMassFactor:   0.10,
		DragCoeff:              0.30,
		FrontalAreaM2:          2.07,
		RegenBrakingEfficiency: 0.3,
	}
}

// WLTPClass3b returns the cycle parameters of WLTP class 3b.
func WLTPClass3b() Cycle {
	return Cycle{
		DistanceKm:                      23.26,
		RollingPositiveShare:            0.55,
		CertifiedFuelLPer100km:          10.35,
		CertifiedElectricityKWhPer100km: 17.9,
	}
}

// Defaults returns the default parameter set: fixed constants, the reference
// vehicle and WLTP class 3b.
func Defaults() Params {
	return Params{
		Constants: DefaultConstants(),
		Vehicle:   DefaultVehicle(),
		Cycle:     WLTPClass3b(),
	}
}

// Validate checks that every parameter is finite and physically plausible.
// Zero masses, distances and consumptions are allowed here; the calculator
// reports those as division by zero where they end up in a denominator.
func (p Params) Validate() error {
	var errs []error
	for _, f := range paramFields {
		v := *f.ptr(&p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, f.key, v))
			continue
		}
		if v < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidParameter, f.key, v))
			continue
		}
		if f.fraction && v > 1 {
			errs = append(errs, fmt.Errorf("%w: %s must be between 0 and 1, got %v", ErrInvalidParameter, f.key, v))
		}
	}
	return errors.Join(errs...)
}

// Value returns the parameter stored under an override key such as "mu".
func (p Params) Value(key string) (float64, bool) {
	f, ok := lookupField(key)
	if !ok {
		return 0, false
	}
	return *f.ptr(&p), true
}
