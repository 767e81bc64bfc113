// Package store provides SQLite-backed persistence for bankpocket.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
//
// The store is the single writer for all account, tag, and association
// state. Referential integrity between accounts/tags and associations is
// managed at the application level: deleting an account or tag removes
// its associations in the same transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is the SQLite-backed data store. Safe for concurrent readers;
// mutations serialize on an internal mutex (single logical writer).
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    bank_name TEXT NOT NULL,
    branch_name TEXT NOT NULL DEFAULT '',
    branch_number TEXT NOT NULL DEFAULT '',
    account_number TEXT NOT NULL DEFAULT '',
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_order ON accounts(sort_order, bank_name);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    color TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS associations (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (account_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_associations_account ON associations(account_id);
CREATE INDEX IF NOT EXISTS idx_associations_tag ON associations(tag_id);
`

// Open creates a store backed by the given data source name.
// Use ":memory:" for an in-memory store or a file path for persistence.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: in-memory databases are per-connection, and the
	// store is single-writer regardless.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// inTx runs fn inside a transaction, committing on nil and rolling back
// on error. Callers must already hold the write lock.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func unix(t time.Time) int64 { return t.Unix() }

func fromUnix(n int64) time.Time { return time.Unix(n, 0) }
