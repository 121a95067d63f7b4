package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/runner"
)

var phaseHeader = []string{"time_s", "velocity_mps", "acceleration_mps2", "dt_s", "phase", "a_v_dt", "v3_dt"}

var sweepResultHeader = []string{
	"erv_icv", "erv_ev", "mu_diff_icv", "mu_diff_ev",
	"total_work_icv_mj", "total_work_ev_mj", "phi_reference", "phi_vehicle",
}

// sweepHeader is the variant name, every resolved parameter by its override
// key, then the results.
func sweepHeader() []string {
	h := append([]string{"name"}, config.KnownKeys()...)
	return append(h, sweepResultHeader...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WritePhaseCSV writes one row per sample with its phase and the two
// integrand terms. Idle samples carry zero integrands.
func WritePhaseCSV(w io.Writer, t *drivecycle.Trace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(phaseHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		s := t.At(i)
		phase := t.PhaseAt(i)
		var av, v3 float64
		if phase != drivecycle.PhaseNone {
			av = s.AccelerationMPS2 * s.VelocityMPS * s.DtS
			v3 = s.VelocityMPS * s.VelocityMPS * s.VelocityMPS * s.DtS
		}
		row := []string{
			formatFloat(s.TimeS),
			formatFloat(s.VelocityMPS),
			formatFloat(s.AccelerationMPS2),
			formatFloat(s.DtS),
			phase.String(),
			formatFloat(av),
			formatFloat(v3),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSweepCSV writes one row per report of a sweep. Every parameter is
// written, so the swept key is recoverable whichever one it was.
func WriteSweepCSV(w io.Writer, reports []*runner.Report) error {
	cw := csv.NewWriter(w)
	keys := config.KnownKeys()
	if err := cw.Write(sweepHeader()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range reports {
		row := []string{r.Name}
		for _, k := range keys {
			v, _ := r.Params.Value(k)
			row = append(row, formatFloat(v))
		}
		row = append(row,
			formatFloat(r.ErvICV),
			formatFloat(r.ErvEV),
			formatFloat(r.MuDiffICV),
			formatFloat(r.MuDiffEV),
			formatFloat(r.TotalWorkICV),
			formatFloat(r.TotalWorkEV),
		)
		if c := r.Calculation; c != nil {
			row = append(row, formatFloat(c.Reference.Phi), formatFloat(c.Vehicle.Phi))
		} else {
			row = append(row, "", "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
