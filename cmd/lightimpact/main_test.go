package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/monitoring"
	"github.com/banshee-data/lightimpact/internal/testutil"
	"github.com/banshee-data/lightimpact/internal/units"
	"github.com/banshee-data/lightimpact/internal/version"
)

func init() {
	monitoring.SetLogger(nil)
}

const goldenText = "Total mechanical work (ICV, 100kg, 100km): 0.5868 MJ\n" +
	"Total mechanical work (EV, 100kg, 100km):  0.5868 MJ\n" +
	"Differential efficiency factor (ICV) [µdiff]: 0.0280\n" +
	"Differential efficiency factor (EV) [µdiff]:  0.1453\n" +
	"ERV (ICV): 0.6488 L/(100km·100kg)\n" +
	"ERV (EV):  4.0394 kWh/(100km·100kg)\n"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func goldenTrace(t *testing.T) string {
	t.Helper()
	return testutil.WriteTempFile(t, "golden.csv", testutil.GoldenTraceCSV)
}

func TestRun_Golden(t *testing.T) {
	out, err := runCLI(t, "-quiet", goldenTrace(t))
	require.NoError(t, err)
	assert.Equal(t, goldenText, out)
}

func TestRun_Details(t *testing.T) {
	out, err := runCLI(t, "-details", goldenTrace(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, goldenText))
	assert.Contains(t, out, "Trace: 3 samples")
}

func TestRun_JSON(t *testing.T) {
	out, err := runCLI(t, "-json", "-name", "golden case", goldenTrace(t))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "golden case", got["name"])
	assert.InDelta(t, testutil.GoldenErvEV, got["erv_ev"], 1e-12)
}

func TestRun_Overrides(t *testing.T) {
	paramsFile := testutil.WriteTempFile(t, "params.json", `{"m_vehicle": 1000, "cw": 0.25}`)

	out, err := runCLI(t, "-json", "-params", paramsFile, "-set", "m_vehicle=2000", goldenTrace(t))
	require.NoError(t, err)

	var got struct {
		ErvICV float64            `json:"erv_icv"`
		Params map[string]float64 `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2000.0, got.Params["m_vehicle"], "-set wins over -params")
	assert.Equal(t, 0.25, got.Params["cw"])
}

func TestRun_Errors(t *testing.T) {
	trace := goldenTrace(t)
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown parameter", []string{"-set", "mass=1", trace}, config.ErrUnknownParameter},
		{"invalid parameter", []string{"-set", "mu=1.5", trace}, config.ErrInvalidParameter},
		{"missing trace", []string{filepath.Join(t.TempDir(), "nope.csv")}, drivecycle.ErrMissingFile},
		{"wrong columns", []string{"-speed-unit", "mph", trace}, drivecycle.ErrSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := runCLI(t, trace, trace)
	assert.Error(t, err, "two trace files")
	_, err = runCLI(t, "-speed-unit", "furlongs", trace)
	assert.Error(t, err)
	_, err = runCLI(t, "-no-such-flag")
	assert.Error(t, err)
}

func TestRun_KmhTrace(t *testing.T) {
	kmh := "Time (s),Speed (km/h),Acceleration (m/s2)\n0,0,0\n1,36,10\n2,18,-5\n"
	path := testutil.WriteTempFile(t, "kmh.csv", kmh)

	// Detected from the header.
	out, err := runCLI(t, path)
	require.NoError(t, err)
	assert.Equal(t, goldenText, out)

	// Selected explicitly.
	out, err = runCLI(t, "-speed-unit", "kmph", path)
	require.NoError(t, err)
	assert.Equal(t, goldenText, out)
}

func TestRun_Exports(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out") + string(os.PathSeparator)
	chart := filepath.Join(dir, "work.html")

	_, err := runCLI(t, "-name", "WLTP 3b", "-export-phases", outDir, "-chart", chart, "-plot", outDir, goldenTrace(t))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "out", "WLTP_3b_phases.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Mechanical work per phase")

	png, err := os.ReadFile(filepath.Join(dir, "out", "WLTP_3b_speed.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRun_HistoryRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	trace := goldenTrace(t)

	_, err := runCLI(t, "-db", dbPath, "-name", "first", trace)
	require.NoError(t, err)
	_, err = runCLI(t, "-db", dbPath, "-name", "second", "-set", "m_vehicle=2000", trace)
	require.NoError(t, err)

	out, err := runCLI(t, "history", "-db", dbPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "RUN ID")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "0.6488")

	out, err = runCLI(t, "history", "-db", dbPath, "-limit", "1", "-json")
	require.NoError(t, err)
	var runs []struct {
		Name   string  `json:"name"`
		ErvICV float64 `json:"erv_icv"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.InDelta(t, 0.5174293790721747, runs[0].ErvICV, 1e-9)
}

func TestRun_QuietIsScopedToOneRun(t *testing.T) {
	prev := monitoring.Logf
	t.Cleanup(func() { monitoring.SetLogger(prev) })

	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	trace := goldenTrace(t)

	_, err := runCLI(t, "-quiet", "-db", dbPath, trace)
	require.NoError(t, err)
	assert.Empty(t, logged)

	_, err = runCLI(t, "-db", dbPath, trace)
	require.NoError(t, err)
	require.NotEmpty(t, logged)
	assert.Contains(t, logged[len(logged)-1], "recorded run")
}

func TestRun_HistoryMissingDB(t *testing.T) {
	_, err := runCLI(t, "history", "-db", filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}

func TestRun_Sweep(t *testing.T) {
	trace := goldenTrace(t)

	out, err := runCLI(t, "sweep", "-vary", "m_vehicle=1000:2000:500", trace)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "m_vehicle=1000"))
	assert.True(t, strings.HasPrefix(lines[3], "m_vehicle=2000"))
	assert.Contains(t, lines[3], "0.5174")

	out, err = runCLI(t, "sweep", "-csv", "-set", "cw=0.25", "-vary", "mu=0:0.3:0.3", trace)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = runCLI(t, "sweep", trace)
	assert.Error(t, err, "-vary is required")
}

func TestRun_Params(t *testing.T) {
	out, err := runCLI(t, "params", "-set", "m_vehicle=1200")
	require.NoError(t, err)

	var got map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1200.0, got["m_vehicle"])
	assert.Equal(t, 23.26, got["ds"])
	assert.Len(t, got, len(config.KnownKeys()))
}

func TestRun_VersionAndHelp(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)

	out, err = runCLI(t, "-version")
	require.NoError(t, err)
	assert.Contains(t, out, "lightimpact")

	out, err = runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "lightimpact sweep")
	assert.Contains(t, out, "m_vehicle")

	_, err = runCLI(t, "-h")
	assert.NoError(t, err)
}

func TestCaseFlags_Columns(t *testing.T) {
	tests := []struct {
		name string
		cf   caseFlags
		want drivecycle.ColumnMap
	}{
		{"detect", caseFlags{}, drivecycle.ColumnMap{}},
		{"kmph", caseFlags{speedUnit: units.KMPH}, drivecycle.WLTPKmhColumns},
		{"mph", caseFlags{speedUnit: units.MPH}, drivecycle.ColumnMap{
			Time: "Time (s)", Speed: "Speed (mph)", Acceleration: "Acceleration (m/s2)", SpeedUnit: units.MPH,
		}},
		{"custom column", caseFlags{speedCol: "v"}, drivecycle.ColumnMap{
			Time: "Time (s)", Speed: "v", Acceleration: "Acceleration (m/s2)", SpeedUnit: units.MPS,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cf.columns()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "Time-Speed-Profile_WLTP_Class3b", trimExt(defaultTrace))
	assert.Equal(t, "trace", trimExt("trace"))
}
