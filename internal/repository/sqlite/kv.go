package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/repository"
)

// compile-time check that *DB implements repository.KVStore
var _ repository.KVStore = (*DB)(nil)

// Get returns the value stored under key.
// Returns apperror.ErrNotFound if no entry exists.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("entry", key)
		}
		return "", fmt.Errorf("sqlite: reading entry %q: %w", key, err)
	}
	return value, nil
}

// Put writes value under key, replacing any previous value.
//
// UPSERT:
// ON CONFLICT(key) DO UPDATE keeps the row in place instead of the
// delete-then-insert of INSERT OR REPLACE; either works, this one does not
// churn the rowid on every login.
func (db *DB) Put(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: writing entry %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key. Deleting an absent key is a no-op.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting entry %q: %w", key, err)
	}
	return nil
}
