// Package runner drives one ERV case end to end: it resolves parameters,
// loads the driving cycle, integrates the work terms and runs the
// calculator.
package runner

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/erv"
	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/monitoring"
	"github.com/banshee-data/lightimpact/internal/work"
)

// DistanceTolerance is the relative gap between the integrated trace
// distance and the cycle distance ds above which Evaluate logs a warning.
const DistanceTolerance = 0.05

// Case is one calculation request.
type Case struct {
	Name      string
	TracePath string
	FS        fsutil.FileSystem    // nil means the OS filesystem
	Columns   drivecycle.ColumnMap // zero value detects the columns from the header
	Base      *config.Params       // nil means config.Defaults()
	Overrides *config.Overrides
}

// Params resolves the parameter set of the case: Base (or the defaults)
// with Overrides applied field by field, then validated.
func (c Case) Params() (config.Params, error) {
	base := config.Defaults()
	if c.Base != nil {
		base = *c.Base
	}
	return c.Overrides.Resolve(base)
}

// Report is the outcome of a case: the four calculator figures, the two
// total-work figures recovered from them and everything needed to explain
// them.
type Report struct {
	Name      string `json:"name,omitempty"`
	TracePath string `json:"trace_path,omitempty"`

	erv.Result
	TotalWorkICV float64 `json:"total_work_icv_mj"` // 100 kg, 100 km
	TotalWorkEV  float64 `json:"total_work_ev_mj"`  // 100 kg, 100 km

	Params      config.Params      `json:"params"`
	Summary     drivecycle.Summary `json:"summary"`
	Calculation *erv.Calculation   `json:"breakdown"`

	Trace *drivecycle.Trace `json:"-"`
}

// Run executes c. Errors from parameter resolution, loading and the
// calculator are returned as is (wrapped), so callers can match
// config.ErrInvalidParameter, drivecycle.ErrMissingFile, drivecycle.ErrSchema
// and erv.ErrDivisionByZero.
func Run(ctx context.Context, c Case) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := c.Params()
	if err != nil {
		return nil, fmt.Errorf("resolve parameters: %w", err)
	}

	fsys := c.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	t, err := drivecycle.Load(fsys, c.TracePath, c.Columns)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := Evaluate(t, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.TracePath, err)
	}
	r.Name = c.Name
	r.TracePath = c.TracePath
	return r, nil
}

// Evaluate runs the work integrator and the calculator on an already
// loaded trace. p is used as given; callers resolve and validate it.
func Evaluate(t *drivecycle.Trace, p config.Params) (*Report, error) {
	set := work.ComputeSet(t, p)
	calc, err := erv.Calculate(set, p)
	if err != nil {
		return nil, err
	}

	summary := drivecycle.Summarise(t)
	if p.DistanceKm > 0 {
		if gap := math.Abs(summary.DistanceKm-p.DistanceKm) / p.DistanceKm; gap > DistanceTolerance {
			monitoring.Logf("warning: trace covers %.3f km but ds is %.3f km; work is scaled by ds", summary.DistanceKm, p.DistanceKm)
		}
	}

	return &Report{
		Result:       calc.Result,
		TotalWorkICV: calc.TotalWorkICV(p),
		TotalWorkEV:  calc.TotalWorkEV(),
		Params:       p,
		Summary:      summary,
		Calculation:  calc,
		Trace:        t,
	}, nil
}
