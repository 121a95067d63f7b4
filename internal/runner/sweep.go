package runner

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
)

// maxSweepSteps bounds the number of variants a range may expand to.
const maxSweepSteps = 10000

// Variant is one named override set of a sweep.
type Variant struct {
	Name      string
	Overrides *config.Overrides
}

// Sweep evaluates every variant against the same trace. Variants run
// concurrently, bounded by GOMAXPROCS; the returned reports are in the order
// of variants. The first failing variant cancels the rest and its error is
// returned.
func Sweep(ctx context.Context, t *drivecycle.Trace, base config.Params, variants []Variant) ([]*Report, error) {
	out := make([]*Report, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range variants {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := v.Overrides.Resolve(base)
			if err != nil {
				return fmt.Errorf("variant %q: %w", v.Name, err)
			}
			r, err := Evaluate(t, p)
			if err != nil {
				return fmt.Errorf("variant %q: %w", v.Name, err)
			}
			r.Name = v.Name
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseRange expands "key=start:stop:step" into one variant per value from
// start to stop inclusive. Each variant is named "key=value".
func ParseRange(s string) ([]Variant, error) {
	key, rng, ok := strings.Cut(s, "=")
	if !ok {
		return nil, fmt.Errorf("invalid sweep %q, expected key=start:stop:step", s)
	}
	key = strings.TrimSpace(key)

	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid sweep range %q, expected start:stop:step", rng)
	}
	var vals [3]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep range %q: %w", rng, err)
		}
		vals[i] = v
	}
	start, stop, step := vals[0], vals[1], vals[2]
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid sweep range %q: values must be finite", rng)
		}
	}
	if step <= 0 || stop < start {
		return nil, fmt.Errorf("invalid sweep range %q: need start <= stop and step > 0", rng)
	}
	// Checked as a float so huge ratios cannot overflow the int conversion.
	steps := math.Floor((stop-start)/step + 1e-9)
	if math.IsInf(steps, 0) || steps >= maxSweepSteps {
		return nil, fmt.Errorf("sweep range %q expands to more than %d variants", rng, maxSweepSteps)
	}
	n := int(steps) + 1

	variants := make([]Variant, 0, n)
	for i := 0; i < n; i++ {
		v := start + float64(i)*step
		o := &config.Overrides{}
		if err := o.Set(key, v); err != nil {
			return nil, err
		}
		variants = append(variants, Variant{
			Name:      fmt.Sprintf("%s=%s", key, strconv.FormatFloat(v, 'g', -1, 64)),
			Overrides: o,
		})
	}
	return variants, nil
}

// WithBase returns a copy of variants where each override set is layered on
// top of common: common first, then the variant's own keys.
func WithBase(common *config.Overrides, variants []Variant) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		o := &config.Overrides{}
		o.Merge(common)
		o.Merge(v.Overrides)
		out[i] = Variant{Name: v.Name, Overrides: o}
	}
	return out
}
