package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lightimpact/internal/runner"
	"github.com/banshee-data/lightimpact/internal/work"
)

var workTerms = []string{"Rolling", "Acceleration", "Rotational", "Aerodynamic"}

func workBars(w work.Work) []opts.BarData {
	return []opts.BarData{
		{Value: w.Rolling},
		{Value: w.Acceleration},
		{Value: w.Rotational},
		{Value: w.Aerodynamic},
	}
}

// WriteWorkChart renders an HTML page with the work terms of each phase at
// both masses and the resulting ICV and EV totals.
func WriteWorkChart(w io.Writer, r *runner.Report) error {
	c := r.Calculation
	if c == nil {
		return fmt.Errorf("report %q has no work breakdown", r.Name)
	}
	subtitle := r.Name
	if subtitle == "" {
		subtitle = r.TracePath
	}
	ref := fmt.Sprintf("%.0f kg", c.Reference.MassKg)
	veh := fmt.Sprintf("%.0f kg", c.Vehicle.MassKg)

	terms := charts.NewBar()
	terms.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "LightImpact work breakdown", Width: "100%", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mechanical work per phase (MJ)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	terms.SetXAxis(workTerms).
		AddSeries("tractive, "+ref, workBars(c.Work.Tractive.Reference)).
		AddSeries("braking, "+ref, workBars(c.Work.Braking.Reference)).
		AddSeries("tractive, "+veh, workBars(c.Work.Tractive.Vehicle)).
		AddSeries("braking, "+veh, workBars(c.Work.Braking.Vehicle))

	totals := charts.NewBar()
	totals.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Total mechanical work per 100 km (MJ)", Subtitle: fmt.Sprintf("ERV ICV %.4f, ERV EV %.4f", r.ErvICV, r.ErvEV)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	totals.SetXAxis([]string{"ICV", "EV"}).
		AddSeries("reference, "+ref, []opts.BarData{{Value: c.Reference.WorkICV}, {Value: c.Reference.WorkEV}},
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("vehicle, "+veh, []opts.BarData{{Value: c.Vehicle.WorkICV}, {Value: c.Vehicle.WorkEV}},
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(terms, totals)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
