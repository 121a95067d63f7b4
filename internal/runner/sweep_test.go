package runner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/testutil"
)

func goldenTrace(t *testing.T) *drivecycle.Trace {
	t.Helper()
	tr, err := drivecycle.Parse(strings.NewReader(testutil.GoldenTraceCSV), drivecycle.SIColumns)
	require.NoError(t, err)
	return tr
}

func TestSweep_KeepsOrder(t *testing.T) {
	tr := goldenTrace(t)
	variants, err := ParseRange("m_vehicle=1000:2000:100")
	require.NoError(t, err)
	require.Len(t, variants, 11)

	reports, err := Sweep(context.Background(), tr, config.Defaults(), variants)
	require.NoError(t, err)
	require.Len(t, reports, len(variants))

	for i, r := range reports {
		assert.Equal(t, variants[i].Name, r.Name)
		assert.Equal(t, 1000+float64(i)*100, r.Params.MassKg)

		p := variants[i].Overrides.Apply(config.Defaults())
		want, err := Evaluate(tr, p)
		require.NoError(t, err)
		assert.Equal(t, want.Result, r.Result, "variant %s", r.Name)
	}

	// Heavier vehicle, larger vehicle-scale work, smaller ERV.
	for i := 1; i < len(reports); i++ {
		assert.Less(t, reports[i].ErvICV, reports[i-1].ErvICV)
	}
}

func TestSweep_FirstErrorWins(t *testing.T) {
	variants := []Variant{
		{Name: "ok", Overrides: &config.Overrides{}},
		{Name: "bad", Overrides: &config.Overrides{RegenBrakingEfficiency: config.Ptr(2)}},
	}
	reports, err := Sweep(context.Background(), goldenTrace(t), config.Defaults(), variants)
	assert.Nil(t, reports)
	assert.ErrorIs(t, err, config.ErrInvalidParameter)
	assert.Contains(t, err.Error(), `variant "bad"`)
}

func TestSweep_Empty(t *testing.T) {
	reports, err := Sweep(context.Background(), goldenTrace(t), config.Defaults(), nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSweep_NilOverrides(t *testing.T) {
	reports, err := Sweep(context.Background(), goldenTrace(t), config.Defaults(), []Variant{{Name: "defaults"}})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.InDelta(t, testutil.GoldenErvICV, reports[0].ErvICV, 1e-9)
}

func TestParseRange(t *testing.T) {
	v, err := ParseRange("mu=0:0.3:0.1")
	require.NoError(t, err)
	require.Len(t, v, 4)
	assert.Equal(t, "mu=0", v[0].Name)
	got, ok := v[3].Overrides.Get("mu")
	require.True(t, ok)
	assert.InDelta(t, 0.3, got, 1e-12)

	single, err := ParseRange("cw=0.3:0.3:1")
	require.NoError(t, err)
	assert.Len(t, single, 1)
}

func TestParseRange_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"no equals", "m_vehicle"},
		{"two parts", "m_vehicle=1:2"},
		{"not a number", "m_vehicle=a:2:1"},
		{"zero step", "m_vehicle=1:2:0"},
		{"reversed", "m_vehicle=2:1:1"},
		{"too many steps", "m_vehicle=0:1000000:1"},
		{"ratio overflows int", "m_vehicle=0:1e308:1e-300"},
		{"infinite ratio", "m_vehicle=0:1e308:5e-324"},
		{"NaN start", "m_vehicle=NaN:1:1"},
		{"NaN stop", "m_vehicle=0:NaN:1"},
		{"NaN step", "m_vehicle=0:1:NaN"},
		{"infinite stop", "m_vehicle=0:Inf:1"},
		{"unknown key", "mass=1:2:1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRange(tt.spec)
			assert.Error(t, err)
		})
	}

	_, err := ParseRange("mass=1:2:1")
	assert.ErrorIs(t, err, config.ErrUnknownParameter)
}

func TestWithBase(t *testing.T) {
	common := &config.Overrides{DragCoeff: config.Ptr(0.25), MassKg: config.Ptr(1200)}
	variants := []Variant{{Name: "heavy", Overrides: &config.Overrides{MassKg: config.Ptr(1800)}}}

	out := WithBase(common, variants)
	require.Len(t, out, 1)
	mass, _ := out[0].Overrides.Get("m_vehicle")
	cw, _ := out[0].Overrides.Get("cw")
	assert.Equal(t, 1800.0, mass)
	assert.Equal(t, 0.25, cw)

	// Inputs untouched.
	orig, _ := variants[0].Overrides.Get("cw")
	assert.Equal(t, 0.0, orig)
}
