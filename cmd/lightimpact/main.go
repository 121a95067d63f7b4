// Command lightimpact computes the Energy Reduction Value (ERV) of a
// driving cycle for combustion and electric vehicles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/db"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/monitoring"
	"github.com/banshee-data/lightimpact/internal/report"
	"github.com/banshee-data/lightimpact/internal/runner"
	"github.com/banshee-data/lightimpact/internal/security"
	"github.com/banshee-data/lightimpact/internal/units"
	"github.com/banshee-data/lightimpact/internal/version"
)

// defaultTrace is the WLTP class 3b time-speed profile in its usual location.
const defaultTrace = "WLTP data/Time-Speed-Profile_WLTP_Class3b.csv"

const defaultDB = "lightimpact.db"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("lightimpact: %v", err)
	}
}

// run dispatches to a subcommand; anything that is not a subcommand name is
// treated as the flags and trace path of a single case.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "sweep":
			return runSweep(ctx, args[1:], stdout, stderr)
		case "history":
			return runHistory(ctx, args[1:], stdout, stderr)
		case "params":
			return runParams(args[1:], stdout, stderr)
		case "version":
			fmt.Fprintln(stdout, version.String())
			return nil
		case "help":
			printUsage(stdout)
			return nil
		}
	}
	return runCase(ctx, args, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `lightimpact - Energy Reduction Value calculator

Usage:
  lightimpact [flags] [trace.csv]          run one case (default trace: %q)
  lightimpact sweep -vary key=a:b:step [flags] [trace.csv]
  lightimpact history [-db path] [-limit n] [-json]
  lightimpact params [-params file.json] [-set key=value ...]
  lightimpact version

Parameter keys: %v
Speed units: %s

Run "lightimpact -h" or "lightimpact sweep -h" for the flags of each command.
`, defaultTrace, config.KnownKeys(), units.GetValidUnitsString())
}

// assignments collects repeated -set key=value flags.
type assignments []string

func (a *assignments) String() string { return fmt.Sprint(*a) }

func (a *assignments) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// caseFlags are the flags shared by single runs and sweeps.
type caseFlags struct {
	paramsFile string
	sets       assignments
	speedUnit  string
	speedCol   string
	quiet      bool
}

func (c *caseFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.paramsFile, "params", "", "JSON file of parameter overrides")
	fs.Var(&c.sets, "set", "parameter override key=value (repeatable)")
	fs.StringVar(&c.speedUnit, "speed-unit", "", "unit of the speed column ("+units.GetValidUnitsString()+"); default: detect from header")
	fs.StringVar(&c.speedCol, "speed-col", "", "header of the speed column; default: detect from header")
	fs.BoolVar(&c.quiet, "quiet", false, "suppress diagnostic logging")
}

// overrides merges the parameter file and the -set flags; -set wins.
func (c *caseFlags) overrides() (*config.Overrides, error) {
	o := &config.Overrides{}
	if c.paramsFile != "" {
		fromFile, err := config.LoadOverrides(c.paramsFile)
		if err != nil {
			return nil, err
		}
		o.Merge(fromFile)
	}
	fromFlags, err := config.ParseAssignments(c.sets)
	if err != nil {
		return nil, err
	}
	o.Merge(fromFlags)
	return o, nil
}

// columns returns the column map selected by -speed-unit and -speed-col, or
// the zero map (detect from header) when neither is given.
func (c *caseFlags) columns() (drivecycle.ColumnMap, error) {
	if c.speedUnit == "" && c.speedCol == "" {
		return drivecycle.ColumnMap{}, nil
	}
	if c.speedUnit != "" && !units.IsValid(c.speedUnit) {
		return drivecycle.ColumnMap{}, fmt.Errorf("invalid -speed-unit %q (valid: %s)", c.speedUnit, units.GetValidUnitsString())
	}

	cols := drivecycle.SIColumns
	switch c.speedUnit {
	case units.KMPH, units.KPH:
		cols = drivecycle.WLTPKmhColumns
		cols.SpeedUnit = c.speedUnit
	case units.MPH:
		cols.Speed = "Speed (mph)"
		cols.SpeedUnit = units.MPH
	}
	if c.speedCol != "" {
		cols.Speed = c.speedCol
	}
	return cols, nil
}

// apply mutes logging for -quiet and returns a func restoring the previous
// logger.
func (c *caseFlags) apply() (restore func()) {
	prev := monitoring.Logf
	if c.quiet {
		monitoring.SetLogger(nil)
	}
	return func() { monitoring.SetLogger(prev) }
}

func tracePath(fs *flag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return defaultTrace, nil
	case 1:
		return fs.Arg(0), nil
	default:
		return "", fmt.Errorf("expected at most one trace file, got %d", fs.NArg())
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func runCase(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lightimpact", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf caseFlags
	cf.register(fs)
	name := fs.String("name", "", "case name used in reports, exports and the run history")
	jsonOut := fs.Bool("json", false, "print the full report as JSON")
	details := fs.Bool("details", false, "print the trace summary and work balance after the figures")
	phasesOut := fs.String("export-phases", "", "write per-sample phases to this CSV file or directory")
	plotOut := fs.String("plot", "", "write a speed plot to this image file (.png, .svg, .pdf) or directory")
	chartOut := fs.String("chart", "", "write an HTML work chart to this file or directory")
	dbPath := fs.String("db", "", "record the run in this SQLite database")
	showVersion := fs.Bool("version", false, "print version and exit")

	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}
	defer cf.apply()()

	path, err := tracePath(fs)
	if err != nil {
		return err
	}
	o, err := cf.overrides()
	if err != nil {
		return err
	}
	cols, err := cf.columns()
	if err != nil {
		return err
	}

	caseName := *name
	if caseName == "" {
		caseName = trimExt(path)
	}
	r, err := runner.Run(ctx, runner.Case{
		Name:      caseName,
		TracePath: path,
		Columns:   cols,
		Overrides: o,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		err = report.WriteJSON(stdout, r)
	} else {
		err = report.WriteText(stdout, r)
		if err == nil && *details {
			err = report.WriteDetails(stdout, r)
		}
	}
	if err != nil {
		return err
	}

	if err := writeExports(r, *phasesOut, *plotOut, *chartOut); err != nil {
		return err
	}

	if *dbPath != "" {
		id, err := recordRun(ctx, *dbPath, r)
		if err != nil {
			return err
		}
		monitoring.Logf("recorded run %s in %s", id, *dbPath)
	}
	return nil
}

func writeExports(r *runner.Report, phasesOut, plotOut, chartOut string) error {
	fsys := fsutil.OSFileSystem{}
	if phasesOut != "" {
		path := report.ResolvePath(fsys, phasesOut, r.Name, "_phases.csv")
		if err := report.WriteFile(fsys, path, func(w io.Writer) error {
			return report.WritePhaseCSV(w, r.Trace)
		}); err != nil {
			return fmt.Errorf("export phases: %w", err)
		}
		monitoring.Logf("wrote %s", path)
	}
	if plotOut != "" {
		path := report.ResolvePath(fsys, plotOut, r.Name, "_speed.png")
		if err := report.PlotTrace(fsys, path, r.Trace, r.Name); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		monitoring.Logf("wrote %s", path)
	}
	if chartOut != "" {
		path := report.ResolvePath(fsys, chartOut, r.Name, "_work.html")
		if err := report.WriteFile(fsys, path, func(w io.Writer) error {
			return report.WriteWorkChart(w, r)
		}); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		monitoring.Logf("wrote %s", path)
	}
	return nil
}

func openDB(path string) (*db.DB, error) {
	if err := security.ValidateExportPath(path); err != nil {
		return nil, err
	}
	return db.Open(path)
}

func recordRun(ctx context.Context, path string, r *runner.Report) (string, error) {
	database, err := openDB(path)
	if err != nil {
		return "", err
	}
	defer database.Close()

	run, err := db.RunFromReport(r)
	if err != nil {
		return "", err
	}
	if err := database.RecordRun(ctx, run); err != nil {
		return "", err
	}
	return run.RunID, nil
}

func trimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
