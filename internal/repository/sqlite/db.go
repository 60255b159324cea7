// Package sqlite implements the policy repositories over a single
// SQLite database file, using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/freeeve/dice-decathlon/internal/model"
)

// Open opens a policy database file, creating it if missing. The pool
// is pinned to one connection so session pragmas hold for every query.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

// readSummary collects the key/value scalars of one meta table.
func readSummary(ctx context.Context, db *sql.DB, table, evKey, sdKey string) (*model.Summary, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	var s model.Summary
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		switch key {
		case evKey:
			s.EV = value
		case sdKey:
			s.SD = value
		case "states":
			s.States = int(value)
		case "schema_version":
			s.SchemaVersion = int(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return &s, nil
}
