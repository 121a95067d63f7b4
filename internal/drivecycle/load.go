package drivecycle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/monitoring"
	"github.com/banshee-data/lightimpact/internal/units"
)

// Column roles.
const (
	RoleTime         = "time"
	RoleSpeed        = "speed"
	RoleAcceleration = "acceleration"
)

// ColumnMap names the header of each column role and the unit the speed
// column is recorded in. Speeds are converted to m/s while loading, so a
// Trace is always SI.
type ColumnMap struct {
	Time         string `json:"time"`
	Speed        string `json:"speed"`
	Acceleration string `json:"acceleration"`
	SpeedUnit    string `json:"speed_unit"` // one of units.ValidUnits; empty means m/s
}

var (
	// SIColumns matches the standard WLTP export in SI units.
	SIColumns = ColumnMap{
		Time:         "Time (s)",
		Speed:        "Speed (m/s)",
		Acceleration: "Acceleration (m/s2)",
		SpeedUnit:    units.MPS,
	}

	// WLTPKmhColumns matches WLTP exports that record speed in km/h.
	WLTPKmhColumns = ColumnMap{
		Time:         "Time (s)",
		Speed:        "Speed (km/h)",
		Acceleration: "Acceleration (m/s2)",
		SpeedUnit:    units.KMPH,
	}
)

func (c ColumnMap) column(role string) string {
	switch role {
	case RoleTime:
		return c.Time
	case RoleSpeed:
		return c.Speed
	case RoleAcceleration:
		return c.Acceleration
	}
	return ""
}

// DetectColumns picks SIColumns or WLTPKmhColumns from a header. SI wins when
// both speed columns are present. It returns SIColumns when neither matches so
// the subsequent schema check names the expected SI headers.
func DetectColumns(header []string) ColumnMap {
	has := make(map[string]bool, len(header))
	for _, h := range header {
		has[normaliseHeader(h)] = true
	}
	if !has[SIColumns.Speed] && has[WLTPKmhColumns.Speed] {
		return WLTPKmhColumns
	}
	return SIColumns
}

// Load opens path on fsys and parses it with Parse. A zero ColumnMap means
// "detect from the header".
func Load(fsys fsutil.FileSystem, path string, cols ColumnMap) (*Trace, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMissingFile, path, err)
	}
	defer f.Close()

	t, err := Parse(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	monitoring.Logf("loaded %d samples from %s", t.Len(), path)
	return t, nil
}

// Parse reads a comma-separated trace with a header row. Columns other than
// the three mapped roles are ignored. Blank lines are skipped.
func Parse(r io.Reader, cols ColumnMap) (*Trace, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrSchema)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = normaliseHeader(header[i])
	}

	if cols == (ColumnMap{}) {
		cols = DetectColumns(header)
	}
	if cols.SpeedUnit != "" && !units.IsValid(cols.SpeedUnit) {
		return nil, fmt.Errorf("invalid speed unit %q (valid: %s)", cols.SpeedUnit, units.GetValidUnitsString())
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	pos := map[string]int{}
	for _, role := range []string{RoleTime, RoleSpeed, RoleAcceleration} {
		i, ok := index[cols.column(role)]
		if !ok {
			missing = append(missing, role)
			continue
		}
		pos[role] = i
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Columns: cols, Header: header}
	}

	var rows []Sample
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if isBlank(rec) {
			continue
		}

		var s Sample
		if s.TimeS, err = field(rec, pos[RoleTime], line, cols.Time); err != nil {
			return nil, err
		}
		speed, err := field(rec, pos[RoleSpeed], line, cols.Speed)
		if err != nil {
			return nil, err
		}
		if s.VelocityMPS, err = units.ToMPS(speed, cols.SpeedUnit); err != nil {
			return nil, err
		}
		if s.AccelerationMPS2, err = field(rec, pos[RoleAcceleration], line, cols.Acceleration); err != nil {
			return nil, err
		}
		rows = append(rows, s)
	}

	return FromSamples(rows)
}

func field(rec []string, i, line int, name string) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("%w: line %d has no %q value", ErrSchema, line, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: invalid %q value %q", ErrSchema, line, name, rec[i])
	}
	return v, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// normaliseHeader strips surrounding whitespace and a UTF-8 byte order mark,
// which spreadsheet exports commonly prepend to the first column.
func normaliseHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
