package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"crossref/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS catalog_entries (
  oe TEXT PRIMARY KEY,
  yvJson TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  originalFilename TEXT NOT NULL,
  keywords TEXT NOT NULL,
  queryCount INTEGER NOT NULL,
  matchCount INTEGER NOT NULL,
  outputFilename TEXT,
  status TEXT NOT NULL,
  error TEXT,
  durationMs REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_createdAt ON runs(createdAt);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceCatalog swaps the aggregated catalog wholesale inside one
// transaction, so a reader never observes a half-imported catalog.
func (d *DB) ReplaceCatalog(entries []internal.CatalogEntry) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM catalog_entries`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO catalog_entries (oe, yvJson) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		yvJSON, _ := json.Marshal(e.YV)
		if _, err := stmt.Exec(e.OE, string(yvJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalogEntries() ([]internal.CatalogEntry, error) {
	rows, err := d.conn.Query(`SELECT oe, yvJson FROM catalog_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogEntry
	for rows.Next() {
		var e internal.CatalogEntry
		var yvJSON string
		if err := rows.Scan(&e.OE, &yvJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(yvJSON), &e.YV)
		out = append(out, e)
	}

	return out, rows.Err()
}

func (d *DB) CountCatalogEntries() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM catalog_entries`).Scan(&n)
	return n, err
}

func (d *DB) InsertRun(run internal.RunRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, originalFilename, keywords, queryCount, matchCount, outputFilename, status, error, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.OriginalFilename, run.Keywords, run.QueryCount, run.MatchCount, run.OutputFilename, string(run.Status), run.Error, run.DurationMs)
	return err
}

func (d *DB) ListRecentRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, originalFilename, keywords, queryCount, matchCount, outputFilename, status, error, durationMs, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var run internal.RunRecord
		var status string
		if err := rows.Scan(
			&run.ID, &run.TraceID, &run.OriginalFilename, &run.Keywords,
			&run.QueryCount, &run.MatchCount, &run.OutputFilename,
			&status, &run.Error, &run.DurationMs, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		run.Status = internal.RunStatus(status)
		out = append(out, run)
	}

	return out, rows.Err()
}

func (d *DB) GetRunByTraceID(traceID string) (*internal.RunRecord, error) {
	var run internal.RunRecord
	var status string
	err := d.conn.QueryRow(`
SELECT id, traceId, originalFilename, keywords, queryCount, matchCount, outputFilename, status, error, durationMs, createdAt
FROM runs WHERE traceId = ?
`, traceID).Scan(
		&run.ID, &run.TraceID, &run.OriginalFilename, &run.Keywords,
		&run.QueryCount, &run.MatchCount, &run.OutputFilename,
		&status, &run.Error, &run.DurationMs, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Status = internal.RunStatus(status)
	return &run, nil
}
