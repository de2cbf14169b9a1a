package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// SQLiteStorage keeps the document in one row of a SQLite database.
//
// Table:
//
//	slots(slot, version, body)  PRIMARY KEY (slot)
//
// A write only succeeds if the row still has the version that was read;
// otherwise it fails with a ConflictError, which is retryable.
type SQLiteStorage struct {
	conflictClassifier

	db   *sql.DB
	slot string
	opts storageOptions
}

var _ domain.Backend = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at dbPath and uses the
// given slot name as the document's key.
func NewSQLiteStorage(dbPath, slot string, options ...StorageOption) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, domain.NewArgumentError("must provide the path to the database")
	}
	if slot == "" {
		return nil, domain.NewArgumentError("must provide a slot name")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps concurrent writers from failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		slot TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		body BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{
		db:   db,
		slot: slot,
		opts: applyOptions(options),
	}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Read(ctx context.Context) (*domain.Document, error) {
	var (
		version int64
		body    []byte
	)
	err := s.db.QueryRowContext(ctx, "SELECT version, body FROM slots WHERE slot = ?", s.slot).Scan(&version, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return s.opts.emptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", s.slot, err)
	}

	var doc *domain.Document
	if len(body) == 0 {
		doc = s.opts.emptyDocument()
	} else if doc, err = s.opts.codec.Decode(body); err != nil {
		return nil, err
	}
	doc.Revision = strconv.FormatInt(version, 10)
	return doc, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, doc *domain.Document) error {
	body, err := s.opts.codec.Encode(doc)
	if err != nil {
		return err
	}

	if s.opts.force {
		_, err := s.db.ExecContext(ctx, `INSERT INTO slots (slot, version, body) VALUES (?, 1, ?)
			ON CONFLICT(slot) DO UPDATE SET version = version + 1, body = excluded.body`, s.slot, body)
		if err != nil {
			return fmt.Errorf("failed to write slot %s: %w", s.slot, err)
		}
		return nil
	}

	var result sql.Result
	if doc.Revision == "" {
		// The slot did not exist when it was read
		result, err = s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO slots (slot, version, body) VALUES (?, 1, ?)", s.slot, body)
	} else {
		version, parseErr := strconv.ParseInt(doc.Revision, 10, 64)
		if parseErr != nil {
			return domain.NewValidationError("invalid revision %q for slot %s", doc.Revision, s.slot)
		}
		result, err = s.db.ExecContext(ctx,
			"UPDATE slots SET version = version + 1, body = ? WHERE slot = ? AND version = ?", body, s.slot, version)
	}
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.slot, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.slot, err)
	}
	if affected == 0 {
		return &domain.ConflictError{
			Message: fmt.Sprintf("slot %s was modified since revision %q", s.slot, doc.Revision),
		}
	}
	return nil
}
