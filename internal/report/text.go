// Package report renders runner results: the plain-text summary, JSON,
// CSV exports, a speed plot and an HTML work chart.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/lightimpact/internal/erv"
	"github.com/banshee-data/lightimpact/internal/runner"
	"github.com/banshee-data/lightimpact/internal/work"
)

// WriteText writes the six headline figures, four decimals each.
func WriteText(w io.Writer, r *runner.Report) error {
	_, err := fmt.Fprintf(w,
		"Total mechanical work (ICV, 100kg, 100km): %.4f MJ\n"+
			"Total mechanical work (EV, 100kg, 100km):  %.4f MJ\n"+
			"Differential efficiency factor (ICV) [µdiff]: %.4f\n"+
			"Differential efficiency factor (EV) [µdiff]:  %.4f\n"+
			"ERV (ICV): %.4f L/(100km·100kg)\n"+
			"ERV (EV):  %.4f kWh/(100km·100kg)\n",
		r.TotalWorkICV, r.TotalWorkEV, r.MuDiffICV, r.MuDiffEV, r.ErvICV, r.ErvEV)
	return err
}

// WriteDetails writes the intermediate figures behind a report: trace
// summary and the work balance at both scales.
func WriteDetails(w io.Writer, r *runner.Report) error {
	s := r.Summary
	c := r.Calculation
	ew := &errWriter{w: w}

	ew.printf("Trace: %d samples (%d tractive, %d braking, %d idle), %.1f s, %.3f km\n",
		s.Samples, s.TractiveSamples, s.BrakingSamples, s.IdleSamples, s.DurationS, s.DistanceKm)
	ew.printf("Speed: mean %.2f m/s, max %.2f m/s; acceleration %.2f to %.2f m/s²\n",
		s.MeanSpeedMPS, s.MaxSpeedMPS, s.MaxDecelMPS2, s.MaxAccelMPS2)
	if c == nil {
		return ew.err
	}
	writeScale(ew, "Reference", c.Work.Tractive.Reference, c.Reference)
	writeScale(ew, "Vehicle", c.Work.Tractive.Vehicle, c.Vehicle)
	return ew.err
}

func writeScale(ew *errWriter, label string, w work.Work, t erv.Totals) {
	ew.printf("%s (%.0f kg): tractive W_R %.4f, W_A %.4f, W_Rot %.4f, W_L %.4f MJ\n",
		label, t.MassKg, w.Rolling, w.Acceleration, w.Rotational, w.Aerodynamic)
	ew.printf("%s (%.0f kg): E_b %.4f MJ, phi %.6g, W_ICV %.4f MJ, W_EV %.4f MJ per 100 km\n",
		label, t.MassKg, t.BrakingEnergy, t.Phi, t.WorkICV, t.WorkEV)
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, v ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, v...)
}
