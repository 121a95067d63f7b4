package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/lightimpact/internal/config"
	"github.com/banshee-data/lightimpact/internal/drivecycle"
	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/report"
	"github.com/banshee-data/lightimpact/internal/runner"
)

// runSweep evaluates one trace under a range of values of one parameter.
func runSweep(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf caseFlags
	cf.register(fs)
	vary := fs.String("vary", "", "parameter range key=start:stop:step (required)")
	csvOut := fs.Bool("csv", false, "print results as CSV")
	jsonOut := fs.Bool("json", false, "print full reports as JSON")

	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	defer cf.apply()()
	if *vary == "" {
		return errors.New("sweep: -vary key=start:stop:step is required")
	}

	path, err := tracePath(fs)
	if err != nil {
		return err
	}
	common, err := cf.overrides()
	if err != nil {
		return err
	}
	cols, err := cf.columns()
	if err != nil {
		return err
	}
	variants, err := runner.ParseRange(*vary)
	if err != nil {
		return err
	}

	t, err := drivecycle.Load(fsutil.OSFileSystem{}, path, cols)
	if err != nil {
		return err
	}
	reports, err := runner.Sweep(ctx, t, config.Defaults(), runner.WithBase(common, variants))
	if err != nil {
		return err
	}
	for _, r := range reports {
		r.TracePath = path
	}

	switch {
	case *jsonOut:
		return report.WriteJSON(stdout, reports)
	case *csvOut:
		return report.WriteSweepCSV(stdout, reports)
	}
	fmt.Fprintf(stdout, "%-24s %10s %10s %10s %10s\n", "VARIANT", "ERV ICV", "ERV EV", "µdiff ICV", "µdiff EV")
	for _, r := range reports {
		fmt.Fprintf(stdout, "%-24s %10.4f %10.4f %10.4f %10.4f\n", r.Name, r.ErvICV, r.ErvEV, r.MuDiffICV, r.MuDiffEV)
	}
	return nil
}

// runHistory lists the most recent recorded runs.
func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", defaultDB, "SQLite run history database")
	limit := fs.Int("limit", 20, "number of runs to list (0 for all)")
	jsonOut := fs.Bool("json", false, "print runs as JSON")

	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	if !(fsutil.OSFileSystem{}).Exists(*dbPath) {
		return fmt.Errorf("no run history at %s", *dbPath)
	}

	database, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return report.WriteJSON(stdout, runs)
	}

	fmt.Fprintf(stdout, "%-36s  %-20s  %-24s %10s %10s\n", "RUN ID", "CREATED", "NAME", "ERV ICV", "ERV EV")
	for _, r := range runs {
		created := time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339)
		fmt.Fprintf(stdout, "%-36s  %-20s  %-24s %10.4f %10.4f\n", r.RunID, created, r.Name, r.ErvICV, r.ErvEV)
	}
	return nil
}

// runParams prints the resolved parameter set.
func runParams(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf caseFlags
	fs.StringVar(&cf.paramsFile, "params", "", "JSON file of parameter overrides")
	fs.Var(&cf.sets, "set", "parameter override key=value (repeatable)")

	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	o, err := cf.overrides()
	if err != nil {
		return err
	}
	p, err := o.Resolve(config.Defaults())
	if err != nil {
		return err
	}
	return report.WriteJSON(stdout, p)
}
