// Package provdb implements the provisioning-lookup contract over a small
// SQLite database of operator names keyed by PLMN.
package provdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modem-control/mnr/internal/normalize"
)

const schema = `
CREATE TABLE IF NOT EXISTS operators (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	mcc   TEXT NOT NULL,
	mnc   TEXT NOT NULL,
	name  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS operators_plmn ON operators (mcc, mnc);
`

// DB is a SQLite-backed provisioning database.
type DB struct {
	db *sql.DB
}

// Compile-time assertion that DB implements the lookup contract.
var _ normalize.Lookup = (*DB)(nil)

// Open opens (creating if needed) the provisioning database at path. Use
// ":memory:" for an ephemeral database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open provisioning db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply provisioning schema: %w", err)
	}
	return &DB{db: db}, nil
}

// LookupPLMN returns the provisioning candidates for a PLMN in insertion
// order. An unknown PLMN yields an empty list, not an error.
func (d *DB) LookupPLMN(mcc, mnc string) ([]normalize.Candidate, error) {
	rows, err := d.db.Query(
		`SELECT name FROM operators WHERE mcc = ? AND mnc = ? ORDER BY id`, mcc, mnc)
	if err != nil {
		return nil, fmt.Errorf("provisioning lookup %s%s: %w", mcc, mnc, err)
	}
	defer rows.Close()

	var cands []normalize.Candidate
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("provisioning lookup %s%s: %w", mcc, mnc, err)
		}
		cands = append(cands, normalize.Candidate{Name: name})
	}
	return cands, rows.Err()
}

// Add inserts one provisioning entry. Used by seeding and tests.
func (d *DB) Add(mcc, mnc, name string) error {
	_, err := d.db.Exec(
		`INSERT INTO operators (mcc, mnc, name) VALUES (?, ?, ?)`, mcc, mnc, name)
	if err != nil {
		return fmt.Errorf("failed to insert provisioning entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}
