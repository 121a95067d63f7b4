// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GoldenTraceCSV is the three-sample SI trace used across packages: one idle,
// one tractive and one braking sample, each with dt = 1.
const GoldenTraceCSV = `Time (s),Speed (m/s),Acceleration (m/s2)
0,0,0
1,10,10
2,5,-5
`

// Golden figures of GoldenTraceCSV with the default parameters.
const (
	GoldenErvICV    = 0.6487917870605595
	GoldenErvEV     = 4.039434082186155
	GoldenMuDiffICV = 0.02800354053274345
	GoldenMuDiffEV  = 0.14527807231884185
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertClose fails the test if got and want differ by more than tol.
func AssertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %.17g, want %.17g (±%g)", name, got, want, tol)
	}
}

// TraceCSV renders rows of (time, speed, acceleration) as an SI trace with the
// standard header.
func TraceCSV(rows [][3]float64) string {
	var b strings.Builder
	b.WriteString("Time (s),Speed (m/s),Acceleration (m/s2)\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%g,%g,%g\n", r[0], r[1], r[2])
	}
	return b.String()
}

// WriteTempFile writes content to name inside a fresh temporary directory
// and returns the full path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
