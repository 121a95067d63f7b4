// Package drivecycle loads driving-cycle traces (time, speed, acceleration)
// and splits them into tractive and braking phases.
package drivecycle

import (
	"fmt"
	"math"
)

// firstSampleDt is the time step assigned to the first sample, which has no
// predecessor to difference against.
const firstSampleDt = 1.0

// Sample is one row of a driving-cycle trace in SI units.
type Sample struct {
	TimeS            float64 `json:"time_s"`
	VelocityMPS      float64 `json:"velocity_mps"`
	AccelerationMPS2 float64 `json:"acceleration_mps2"`
	DtS              float64 `json:"dt_s"` // derived, see FromSamples
}

// Phase is the driving phase a sample belongs to.
type Phase int

const (
	// PhaseNone covers standstill and coasting (a == 0) samples.
	PhaseNone Phase = iota
	// PhaseTractive is a > 0 and v > 0.
	PhaseTractive
	// PhaseBraking is a < 0 and v > 0.
	PhaseBraking
)

func (p Phase) String() string {
	switch p {
	case PhaseTractive:
		return "tractive"
	case PhaseBraking:
		return "braking"
	default:
		return "none"
	}
}

// Classify returns the phase of s. The predicates are strict, so a sample
// with zero acceleration or zero velocity is in neither phase.
func Classify(s Sample) Phase {
	switch {
	case s.VelocityMPS > 0 && s.AccelerationMPS2 > 0:
		return PhaseTractive
	case s.VelocityMPS > 0 && s.AccelerationMPS2 < 0:
		return PhaseBraking
	default:
		return PhaseNone
	}
}

// Trace is an immutable, validated driving-cycle time series.
type Trace struct {
	samples []Sample
	phases  []Phase
}

// FromSamples builds a trace from rows in time order. The DtS field of the
// input is ignored: dt[i] = t[i] - t[i-1], and dt[0] is 1.0.
// The input slice is copied.
func FromSamples(rows []Sample) (*Trace, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrSchema, len(rows))
	}

	samples := make([]Sample, len(rows))
	phases := make([]Phase, len(rows))
	for i, r := range rows {
		if !finite(r.TimeS) || !finite(r.VelocityMPS) || !finite(r.AccelerationMPS2) {
			return nil, fmt.Errorf("%w: sample %d has a non-finite value", ErrSchema, i)
		}
		r.DtS = firstSampleDt
		if i > 0 {
			r.DtS = r.TimeS - rows[i-1].TimeS
		}
		samples[i] = r
		phases[i] = Classify(r)
	}
	return &Trace{samples: samples, phases: phases}, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Len returns the number of samples.
func (t *Trace) Len() int { return len(t.samples) }

// At returns sample i.
func (t *Trace) At(i int) Sample { return t.samples[i] }

// PhaseAt returns the phase of sample i.
func (t *Trace) PhaseAt(i int) Phase { return t.phases[i] }

// Samples returns a copy of every sample.
func (t *Trace) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Tractive returns the subset of samples with a > 0 and v > 0.
func (t *Trace) Tractive() PhaseSubset { return t.subset(PhaseTractive) }

// Braking returns the subset of samples with a < 0 and v > 0.
func (t *Trace) Braking() PhaseSubset { return t.subset(PhaseBraking) }

func (t *Trace) subset(p Phase) PhaseSubset {
	var idx []int
	for i, ph := range t.phases {
		if ph == p {
			idx = append(idx, i)
		}
	}
	return PhaseSubset{trace: t, phase: p, idx: idx}
}

// PhaseSubset is a read-only view of the samples of one phase. It shares the
// underlying trace and never modifies it.
type PhaseSubset struct {
	trace *Trace
	phase Phase
	idx   []int
}

// Phase returns the phase this subset selects.
func (s PhaseSubset) Phase() Phase { return s.phase }

// Len returns the number of samples in the subset.
func (s PhaseSubset) Len() int { return len(s.idx) }

// Indices returns the trace indices of the subset's samples.
func (s PhaseSubset) Indices() []int {
	out := make([]int, len(s.idx))
	copy(out, s.idx)
	return out
}

// At returns the i-th sample of the subset.
func (s PhaseSubset) At(i int) Sample { return s.trace.samples[s.idx[i]] }

// Columns returns the velocity, acceleration and dt columns of the subset
// as fresh slices.
func (s PhaseSubset) Columns() (velocity, acceleration, dt []float64) {
	velocity = make([]float64, len(s.idx))
	acceleration = make([]float64, len(s.idx))
	dt = make([]float64, len(s.idx))
	for i, j := range s.idx {
		smp := s.trace.samples[j]
		velocity[i] = smp.VelocityMPS
		acceleration[i] = smp.AccelerationMPS2
		dt[i] = smp.DtS
	}
	return velocity, acceleration, dt
}
