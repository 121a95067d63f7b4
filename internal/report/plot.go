package report

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/units"
)

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

var (
	speedColor    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	tractiveColor = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	brakingColor  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// TracePlot builds a speed-over-time plot of t in km/h with the tractive
// and braking samples marked.
func TracePlot(t *drivecycle.Trace, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Speed (" + units.Label(units.KMPH) + ")"
	p.Add(plotter.NewGrid())

	speed := make(plotter.XYs, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		s := t.At(i)
		speed = append(speed, plotter.XY{X: s.TimeS, Y: units.ConvertSpeed(s.VelocityMPS, units.KMPH)})
	}
	line, err := plotter.NewLine(speed)
	if err != nil {
		return nil, err
	}
	line.Color = speedColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("speed", line)

	for _, ph := range []struct {
		subset drivecycle.PhaseSubset
		color  color.Color
	}{
		{t.Tractive(), tractiveColor},
		{t.Braking(), brakingColor},
	} {
		if ph.subset.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, ph.subset.Len())
		for i := 0; i < ph.subset.Len(); i++ {
			s := ph.subset.At(i)
			pts = append(pts, plotter.XY{X: s.TimeS, Y: units.ConvertSpeed(s.VelocityMPS, units.KMPH)})
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = ph.color
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(ph.subset.Phase().String(), sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// RenderTrace writes the trace plot to w in the given image format
// ("png", "svg", "pdf", ...).
func RenderTrace(w io.Writer, t *drivecycle.Trace, title, format string) error {
	p, err := TracePlot(t, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// PlotTrace saves the trace plot to path on fsys. The format follows the
// file extension and defaults to PNG.
func PlotTrace(fsys fsutil.FileSystem, path string, t *drivecycle.Trace, title string) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		format = "png"
	}
	return WriteFile(fsys, path, func(w io.Writer) error {
		return RenderTrace(w, t, title, format)
	})
}
