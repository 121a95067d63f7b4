package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownParameter is returned when an override names a parameter that
// does not exist. Unknown keys are always rejected, never ignored.
var ErrUnknownParameter = errors.New("unknown parameter")

// Overrides is a sparse set of parameter overrides. A nil field keeps the
// underlying value; a non-nil field replaces it. JSON keys match the symbol
// names of the published LightImpact model so parameter files can be shared.
type Overrides struct {
	// Fixed constants
	ReferenceMassKg     *float64 `json:"m_ref,omitempty"`
	ReferenceDistanceKm *float64 `json:"ds_ref,omitempty"`
	GravityMPS2         *float64 `json:"g,omitempty"`
	AirDensityKgM3      *float64 `json:"rho_air,omitempty"`
	FuelLHVMJPerL       *float64 `json:"LHV_fuel,omitempty"`

	// Vehicle
	MassKg                 *float64 `json:"m_vehicle,omitempty"`
	RollingResistanceCoeff *float64 `json:"f_r,omitempty"`
	RotationalMassFactor   *float64 `json:"f_Rot,omitempty"`
	DragCoeff              *float64 `json:"cw,omitempty"`
	FrontalAreaM2          *float64 `json:"A_frontal,omitempty"`
	RegenBrakingEfficiency *float64 `json:"mu,omitempty"`

	// Driving cycle
	DistanceKm                      *float64 `json:"ds,omitempty"`
	RollingPositiveShare            *float64 `json:"roll_pos_factor,omitempty"`
	CertifiedFuelLPer100km          *float64 `json:"c_fuel_WLTP,omitempty"`
	CertifiedElectricityKWhPer100km *float64 `json:"c_el_WLTP,omitempty"`
}

// paramField binds one override key to its slot in Params and in Overrides.
type paramField struct {
	key      string
	fraction bool // value must lie in [0,1]
	ptr      func(*Params) *float64
	override func(*Overrides) **float64
}

var paramFields = []paramField{
	{key: "m_ref", ptr: func(p *Params) *float64 { return &p.ReferenceMassKg }, override: func(o *Overrides) **float64 { return &o.ReferenceMassKg }},
	{key: "ds_ref", ptr: func(p *Params) *float64 { return &p.ReferenceDistanceKm }, override: func(o *Overrides) **float64 { return &o.ReferenceDistanceKm }},
	{key: "g", ptr: func(p *Params) *float64 { return &p.GravityMPS2 }, override: func(o *Overrides) **float64 { return &o.GravityMPS2 }},
	{key: "rho_air", ptr: func(p *Params) *float64 { return &p.AirDensityKgM3 }, override: func(o *Overrides) **float64 { return &o.AirDensityKgM3 }},
	{key: "LHV_fuel", ptr: func(p *Params) *float64 { return &p.FuelLHVMJPerL }, override: func(o *Overrides) **float64 { return &o.FuelLHVMJPerL }},
	{key: "m_vehicle", ptr: func(p *Params) *float64 { return &p.MassKg }, override: func(o *Overrides) **float64 { return &o.MassKg }},
	{key: "f_r", ptr: func(p *Params) *float64 { return &p.RollingResistanceCoeff }, override: func(o *Overrides) **float64 { return &o.RollingResistanceCoeff }},
	{key: "f_Rot", ptr: func(p *Params) *float64 { return &p.RotationalMassFactor }, override: func(o *Overrides) **float64 { return &o.RotationalMassFactor }},
	{key: "cw", ptr: func(p *Params) *float64 { return &p.DragCoeff }, override: func(o *Overrides) **float64 { return &o.DragCoeff }},
	{key: "A_frontal", ptr: func(p *Params) *float64 { return &p.FrontalAreaM2 }, override: func(o *Overrides) **float64 { return &o.FrontalAreaM2 }},
	{key: "mu", fraction: true, ptr: func(p *Params) *float64 { return &p.RegenBrakingEfficiency }, override: func(o *Overrides) **float64 { return &o.RegenBrakingEfficiency }},
	{key: "ds", ptr: func(p *Params) *float64 { return &p.DistanceKm }, override: func(o *Overrides) **float64 { return &o.DistanceKm }},
	{key: "roll_pos_factor", fraction: true, ptr: func(p *Params) *float64 { return &p.RollingPositiveShare }, override: func(o *Overrides) **float64 { return &o.RollingPositiveShare }},
	{key: "c_fuel_WLTP", ptr: func(p *Params) *float64 { return &p.CertifiedFuelLPer100km }, override: func(o *Overrides) **float64 { return &o.CertifiedFuelLPer100km }},
	{key: "c_el_WLTP", ptr: func(p *Params) *float64 { return &p.CertifiedElectricityKWhPer100km }, override: func(o *Overrides) **float64 { return &o.CertifiedElectricityKWhPer100km }},
}

func lookupField(key string) (paramField, bool) {
	for _, f := range paramFields {
		if f.key == key {
			return f, true
		}
	}
	return paramField{}, false
}

// KnownKeys returns every accepted override key in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(paramFields))
	for _, f := range paramFields {
		keys = append(keys, f.key)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single override by key.
func (o *Overrides) Set(key string, value float64) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w %q (known: %s)", ErrUnknownParameter, key, strings.Join(KnownKeys(), ", "))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, key, value)
	}
	v := value
	*f.override(o) = &v
	return nil
}

// Get returns the override for key, if set.
func (o *Overrides) Get(key string) (float64, bool) {
	f, ok := lookupField(key)
	if !ok {
		return 0, false
	}
	if p := *f.override(o); p != nil {
		return *p, true
	}
	return 0, false
}

// IsEmpty reports whether no override is set.
func (o *Overrides) IsEmpty() bool {
	if o == nil {
		return true
	}
	for _, f := range paramFields {
		if *f.override(o) != nil {
			return false
		}
	}
	return true
}

// Merge copies every override set in other onto o; other wins key by key.
func (o *Overrides) Merge(other *Overrides) {
	if other == nil {
		return
	}
	for _, f := range paramFields {
		if v := *f.override(other); v != nil {
			val := *v
			*f.override(o) = &val
		}
	}
}

// Apply returns a copy of base with every set override replacing the
// corresponding field. base itself is not modified.
func (o *Overrides) Apply(base Params) Params {
	out := base
	if o == nil {
		return out
	}
	for _, f := range paramFields {
		if v := *f.override(o); v != nil {
			*f.ptr(&out) = *v
		}
	}
	return out
}

// Resolve applies the overrides to base and validates the result.
func (o *Overrides) Resolve(base Params) (Params, error) {
	p := o.Apply(base)
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// LoadOverrides loads overrides from a flat JSON object of key to number.
// The file must have a .json extension and be under 1MB. Unknown keys fail
// with ErrUnknownParameter.
func LoadOverrides(path string) (*Overrides, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("parameter file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat parameter file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("parameter file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	return ParseOverridesJSON(data)
}

// ParseOverridesJSON decodes a flat JSON object of key to number.
func ParseOverridesJSON(data []byte) (*Overrides, error) {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse parameter JSON: %w", err)
	}

	// Sorted so the first reported error does not depend on map order.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := &Overrides{}
	for _, k := range keys {
		if err := o.Set(k, raw[k]); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ParseAssignments parses "key=value" strings as given on the command line.
func ParseAssignments(assignments []string) (*Overrides, error) {
	o := &Overrides{}
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", a)
		}
		key = strings.TrimSpace(key)
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if err := o.Set(key, v); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Ptr returns a pointer to v, for building Overrides literals.
func Ptr(v float64) *float64 { return &v }
