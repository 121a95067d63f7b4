package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/lightimpact/internal/runner"
	"github.com/banshee-data/lightimpact/internal/version"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded calculation.
type Run struct {
	RunID        string          `json:"run_id"`
	Name         string          `json:"name"`
	TracePath    string          `json:"trace_path"`
	ParamsJSON   json.RawMessage `json:"params"`
	Samples      int             `json:"samples"`
	DistanceKm   float64         `json:"distance_km"`
	ErvICV       float64         `json:"erv_icv"`
	ErvEV        float64         `json:"erv_ev"`
	MuDiffICV    float64         `json:"mu_diff_icv"`
	MuDiffEV     float64         `json:"mu_diff_ev"`
	TotalWorkICV float64         `json:"total_work_icv_mj"`
	TotalWorkEV  float64         `json:"total_work_ev_mj"`
	Version      string          `json:"version"`
	CreatedAt    int64           `json:"created_at"` // unix nanoseconds
}

// RunFromReport captures the figures and resolved parameters of r.
func RunFromReport(r *runner.Report) (*Run, error) {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	return &Run{
		Name:         r.Name,
		TracePath:    r.TracePath,
		ParamsJSON:   params,
		Samples:      r.Summary.Samples,
		DistanceKm:   r.Summary.DistanceKm,
		ErvICV:       r.ErvICV,
		ErvEV:        r.ErvEV,
		MuDiffICV:    r.MuDiffICV,
		MuDiffEV:     r.MuDiffEV,
		TotalWorkICV: r.TotalWorkICV,
		TotalWorkEV:  r.TotalWorkEV,
		Version:      version.Version,
	}, nil
}

// RecordRun inserts run. An empty RunID is filled with a new UUID and a zero
// CreatedAt with the time of db.Clock.
func (db *DB) RecordRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = db.Clock.Now().UnixNano()
	}
	params := string(run.ParamsJSON)
	if params == "" {
		params = "{}"
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, name, trace_path, params_json, samples, distance_km,
			erv_icv, erv_ev, mu_diff_icv, mu_diff_ev,
			total_work_icv_mj, total_work_ev_mj, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Name, run.TracePath, params, run.Samples, run.DistanceKm,
		run.ErvICV, run.ErvEV, run.MuDiffICV, run.MuDiffEV,
		run.TotalWorkICV, run.TotalWorkEV, run.Version, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

const runColumns = `run_id, name, trace_path, params_json, samples, distance_km,
		       erv_icv, erv_ev, mu_diff_icv, mu_diff_ev,
		       total_work_icv_mj, total_work_ev_mj, version, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var params string
	err := row.Scan(
		&r.RunID, &r.Name, &r.TracePath, &params, &r.Samples, &r.DistanceKm,
		&r.ErvICV, &r.ErvEV, &r.MuDiffICV, &r.MuDiffEV,
		&r.TotalWorkICV, &r.TotalWorkEV, &r.Version, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ParamsJSON = json.RawMessage(params)
	return &r, nil
}

// GetRun returns the run with the given ID.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Params decodes the stored parameter set.
func (r *Run) Params() (map[string]float64, error) {
	var p map[string]float64
	if err := json.Unmarshal(r.ParamsJSON, &p); err != nil {
		return nil, fmt.Errorf("failed to decode parameters of run %s: %w", r.RunID, err)
	}
	return p, nil
}
