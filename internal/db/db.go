// Package db persists the history of ERV runs in SQLite. The schema is
// owned by the embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/lightimpact/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsDir is the directory of migrationsFS holding the SQL files.
const migrationsDir = "migrations"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

type DB struct {
	*sql.DB

	// Clock stamps recorded runs. Open sets it to timeutil.RealClock.
	Clock timeutil.Clock
}

// OpenDB opens the database at path without touching the schema.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{DB: sqlDB, Clock: timeutil.RealClock{}}, nil
}

// Open opens the database at path and brings its schema up to date.
func Open(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
