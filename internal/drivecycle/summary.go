package drivecycle

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a trace at a glance. It is informational only and does
// not feed the ERV calculation.
type Summary struct {
	Samples         int     `json:"samples"`
	TractiveSamples int     `json:"tractive_samples"`
	BrakingSamples  int     `json:"braking_samples"`
	IdleSamples     int     `json:"idle_samples"` // standstill or a == 0
	DurationS       float64 `json:"duration_s"`
	DistanceKm      float64 `json:"distance_km"` // Σ v·dt over the whole trace
	MeanSpeedMPS    float64 `json:"mean_speed_mps"`
	MaxSpeedMPS     float64 `json:"max_speed_mps"`
	MaxAccelMPS2    float64 `json:"max_accel_mps2"`
	MaxDecelMPS2    float64 `json:"max_decel_mps2"` // most negative acceleration
	AccelStdDev     float64 `json:"accel_stddev"`
}

// Summarise computes a Summary of t.
func Summarise(t *Trace) Summary {
	n := t.Len()
	v := make([]float64, n)
	a := make([]float64, n)
	dt := make([]float64, n)
	for i, s := range t.samples {
		v[i] = s.VelocityMPS
		a[i] = s.AccelerationMPS2
		dt[i] = s.DtS
	}

	s := Summary{
		Samples:      n,
		DurationS:    t.samples[n-1].TimeS - t.samples[0].TimeS,
		DistanceKm:   floats.Dot(v, dt) / 1000,
		MeanSpeedMPS: stat.Mean(v, nil),
		MaxSpeedMPS:  floats.Max(v),
		MaxAccelMPS2: floats.Max(a),
		MaxDecelMPS2: floats.Min(a),
		AccelStdDev:  stat.StdDev(a, nil),
	}
	for _, p := range t.phases {
		switch p {
		case PhaseTractive:
			s.TractiveSamples++
		case PhaseBraking:
			s.BrakingSamples++
		default:
			s.IdleSamples++
		}
	}
	return s
}
