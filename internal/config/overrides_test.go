package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownKeys(t *testing.T) {
	keys := KnownKeys()
	assert.Len(t, keys, 15)
	for _, k := range []string{"m_ref", "ds_ref", "g", "rho_air", "LHV_fuel", "m_vehicle", "f_r", "f_Rot", "cw", "A_frontal", "mu", "ds", "roll_pos_factor", "c_fuel_WLTP", "c_el_WLTP"} {
		assert.Contains(t, keys, k)
	}
}

func TestOverrides_SetAndApply(t *testing.T) {
	o := &Overrides{}
	require.NoError(t, o.Set("m_vehicle", 2000))
	require.NoError(t, o.Set("c_el_WLTP", 15.2))

	base := Defaults()
	p := o.Apply(base)

	assert.Equal(t, 2000.0, p.MassKg)
	assert.Equal(t, 15.2, p.CertifiedElectricityKWhPer100km)
	// untouched keys keep their defaults
	assert.Equal(t, base.DistanceKm, p.DistanceKm)
	assert.Equal(t, base.ReferenceMassKg, p.ReferenceMassKg)
	// base is not modified
	assert.Equal(t, 1595.0, base.MassKg)

	v, ok := o.Get("m_vehicle")
	assert.True(t, ok)
	assert.Equal(t, 2000.0, v)
	_, ok = o.Get("cw")
	assert.False(t, ok)
}

func TestOverrides_EveryKeyReachesItsField(t *testing.T) {
	for i, key := range KnownKeys() {
		o := &Overrides{}
		want := 0.5 + float64(i)/100
		require.NoError(t, o.Set(key, want))

		p := o.Apply(Params{})
		f, ok := lookupField(key)
		require.True(t, ok)
		assert.Equal(t, want, *f.ptr(&p), "key %s", key)
	}
}

func TestOverrides_UnknownKeyRejected(t *testing.T) {
	o := &Overrides{}
	err := o.Set("vehicle_mass", 1500)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownParameter))
	assert.True(t, o.IsEmpty())
}

func TestOverrides_NilApply(t *testing.T) {
	var o *Overrides
	assert.True(t, o.IsEmpty())
	assert.Equal(t, Defaults(), o.Apply(Defaults()))
}

func TestOverrides_Merge(t *testing.T) {
	a := &Overrides{MassKg: Ptr(1200), DragCoeff: Ptr(0.28)}
	b := &Overrides{MassKg: Ptr(1800)}
	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, 1800.0, *a.MassKg)
	assert.Equal(t, 0.28, *a.DragCoeff)

	// merged values are copies
	*b.MassKg = 1
	assert.Equal(t, 1800.0, *a.MassKg)
}

func TestOverrides_Resolve(t *testing.T) {
	_, err := (&Overrides{MassKg: Ptr(-5)}).Resolve(Defaults())
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	p, err := (&Overrides{RegenBrakingEfficiency: Ptr(0.6)}).Resolve(Defaults())
	require.NoError(t, err)
	assert.Equal(t, 0.6, p.RegenBrakingEfficiency)
}

func TestOverrides_JSONUsesReferenceKeys(t *testing.T) {
	o := &Overrides{MassKg: Ptr(1500), FuelLHVMJPerL: Ptr(35.9)}
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"m_vehicle":1500,"LHV_fuel":35.9}`, string(data))
}

func TestParseOverridesJSON(t *testing.T) {
	o, err := ParseOverridesJSON([]byte(`{"m_vehicle": 1750, "mu": 0.65}`))
	require.NoError(t, err)
	assert.Equal(t, 1750.0, *o.MassKg)
	assert.Equal(t, 0.65, *o.RegenBrakingEfficiency)

	_, err = ParseOverridesJSON([]byte(`{"m_vehicle": 1750, "colour": 3}`))
	assert.True(t, errors.Is(err, ErrUnknownParameter))

	_, err = ParseOverridesJSON([]byte(`{"m_vehicle": "heavy"}`))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "porsche.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"m_vehicle": 1595, "c_fuel_WLTP": 11.1}`), 0644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, 11.1, *o.CertifiedFuelLPer100km)

	t.Run("wrong extension", func(t *testing.T) {
		txt := filepath.Join(dir, "params.txt")
		require.NoError(t, os.WriteFile(txt, []byte(`{}`), 0644))
		_, err := LoadOverrides(txt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadOverrides(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		big := filepath.Join(dir, "big.json")
		require.NoError(t, os.WriteFile(big, []byte(strings.Repeat(" ", 1024*1024+1)), 0644))
		_, err := LoadOverrides(big)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestParseAssignments(t *testing.T) {
	o, err := ParseAssignments([]string{"m_vehicle=1400", " cw = 0.27 "})
	require.NoError(t, err)
	assert.Equal(t, 1400.0, *o.MassKg)
	assert.Equal(t, 0.27, *o.DragCoeff)

	_, err = ParseAssignments([]string{"m_vehicle"})
	assert.Error(t, err)

	_, err = ParseAssignments([]string{"m_vehicle=abc"})
	assert.Error(t, err)

	_, err = ParseAssignments([]string{"wheels=4"})
	assert.True(t, errors.Is(err, ErrUnknownParameter))

	_, err = ParseAssignments([]string{"m_vehicle=NaN"})
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}
