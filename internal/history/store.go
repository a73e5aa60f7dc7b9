package history

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"invoicex/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	content_hash TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	status       TEXT NOT NULL,
	fields_json  TEXT,
	error        TEXT,
	created_at   TEXT NOT NULL
);`

// Row is one processed document in the run history.
type Row struct {
	ContentHash string         `db:"content_hash"`
	Path        string         `db:"path"`
	Status      string         `db:"status"`
	FieldsJSON  sql.NullString `db:"fields_json"`
	Error       sql.NullString `db:"error"`
	CreatedAt   string         `db:"created_at"`
}

// Store keeps per-document extraction results keyed by content hash so a
// re-run over the same directory skips documents already extracted.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the sqlite history database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("history.open", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the history row for a content hash, or nil when the document
// has not been processed before.
func (s *Store) Lookup(ctx context.Context, contentHash string) (*Row, error) {
	var row Row
	err := s.db.GetContext(ctx, &row,
		`SELECT content_hash, path, status, fields_json, error, created_at FROM runs WHERE content_hash = ?`,
		contentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RecordSuccess upserts an EXTRACTED row with the normalized fields JSON.
func (s *Store) RecordSuccess(ctx context.Context, contentHash, path string, fieldsJSON []byte) error {
	return s.upsert(ctx, contentHash, path, constants.DocStatusExtracted, string(fieldsJSON), "")
}

// RecordFailure upserts a FAILED row with the document's error text.
func (s *Store) RecordFailure(ctx context.Context, contentHash, path, errMsg string) error {
	return s.upsert(ctx, contentHash, path, constants.DocStatusFailed, "", errMsg)
}

func (s *Store) upsert(ctx context.Context, contentHash, path string, status constants.DocStatus, fieldsJSON, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (content_hash, path, status, fields_json, error, created_at)
VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?)
ON CONFLICT(content_hash) DO UPDATE SET
	path = excluded.path,
	status = excluded.status,
	fields_json = excluded.fields_json,
	error = excluded.error,
	created_at = excluded.created_at`,
		contentHash, path, string(status), fieldsJSON, errMsg,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Error("history.upsert_error", "content_hash", contentHash, "error", err)
	}
	return err
}
