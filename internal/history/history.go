// Package history persists an append-only journal of accepted segment
// edits in SQLite. The journal records what the overlay looked like at
// edit time and survives process restarts; it is never read back to
// reconstruct document state.
//
// Build modes:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/lingtools/xliffd/core/errors"
)

// DriverType returns a string identifying the underlying SQLite
// implementation: "cgo" for mattn/go-sqlite3, "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

const schema = `
CREATE TABLE IF NOT EXISTS edits (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at   TEXT NOT NULL,
	document_path TEXT NOT NULL,
	segment_id    TEXT NOT NULL,
	old_target    TEXT NOT NULL,
	new_target    TEXT NOT NULL,
	status        TEXT NOT NULL,
	warnings      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_edits_document ON edits(document_path, id);
`

// Journal is an open edit journal. Safe for concurrent use.
type Journal struct {
	db *sql.DB
}

// Entry is one recorded edit.
type Entry struct {
	ID           int64     `json:"id"`
	RecordedAt   time.Time `json:"recorded_at"`
	DocumentPath string    `json:"document_path"`
	SegmentID    string    `json:"segment_id"`
	OldTarget    string    `json:"old_target"`
	NewTarget    string    `json:"new_target"`
	Status       string    `json:"status"`
	Warnings     int       `json:"warnings"`
}

// Open opens (creating if necessary) the journal database at path.
// Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one edit and returns its journal id. RecordedAt
// defaults to the current time when zero.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	at := e.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO edits (recorded_at, document_path, segment_id, old_target, new_target, status, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.Format(time.RFC3339Nano), e.DocumentPath, e.SegmentID,
		e.OldTarget, e.NewTarget, e.Status, e.Warnings)
	if err != nil {
		return 0, errors.NewIO("record", e.DocumentPath, err)
	}
	return res.LastInsertId()
}

// ByDocument returns the most recent entries for a document, newest
// first. limit <= 0 returns everything.
func (j *Journal) ByDocument(ctx context.Context, documentPath string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, recorded_at, document_path, segment_id, old_target, new_target, status, warnings
		 FROM edits WHERE document_path = ? ORDER BY id DESC LIMIT ?`,
		documentPath, limit)
	if err != nil {
		return nil, errors.NewIO("query", documentPath, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// BySegment returns every entry for one segment of a document, newest
// first.
func (j *Journal) BySegment(ctx context.Context, documentPath, segmentID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, recorded_at, document_path, segment_id, old_target, new_target, status, warnings
		 FROM edits WHERE document_path = ? AND segment_id = ? ORDER BY id DESC`,
		documentPath, segmentID)
	if err != nil {
		return nil, errors.NewIO("query", documentPath, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.DocumentPath, &e.SegmentID,
			&e.OldTarget, &e.NewTarget, &e.Status, &e.Warnings); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed recorded_at %q", at)
		}
		e.RecordedAt = parsed
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
