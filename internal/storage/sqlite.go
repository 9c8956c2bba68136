package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLite stores JSON-encoded values in the kv_store table.
//
// All storages share one table; the namespace column keeps element kinds
// apart. The table is created by the kv_store migration.
type SQLite[T any] struct {
	db        *sql.DB
	namespace string
}

// NewSQLite creates a storage for namespace on db.
func NewSQLite[T any](db *sql.DB, namespace string) *SQLite[T] {
	return &SQLite[T]{db: db, namespace: namespace}
}

// Namespace returns the namespace this storage writes to.
func (s *SQLite[T]) Namespace() string {
	return s.namespace
}

// Get implements Storage.
func (s *SQLite[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("querying %s/%s: %w", s.namespace, key, err)
	}

	v, err := s.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Put implements Storage. The read of the previous value and the upsert
// run in one transaction.
func (s *SQLite[T]) Put(ctx context.Context, key string, value T) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, ErrInvalidKey
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return zero, false, fmt.Errorf("marshalling %s/%s: %w", s.namespace, key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	old, existed, err := s.getTx(ctx, tx, key)
	if err != nil {
		return zero, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		s.namespace, key, string(encoded), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return zero, false, fmt.Errorf("upserting %s/%s: %w", s.namespace, key, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, false, fmt.Errorf("committing %s/%s: %w", s.namespace, key, err)
	}
	return old, existed, nil
}

// Remove implements Storage.
func (s *SQLite[T]) Remove(ctx context.Context, key string) (T, bool, error) {
	var zero T

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	old, existed, err := s.getTx(ctx, tx, key)
	if err != nil || !existed {
		return zero, false, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM kv_store WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	); err != nil {
		return zero, false, fmt.Errorf("deleting %s/%s: %w", s.namespace, key, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, false, fmt.Errorf("committing %s/%s: %w", s.namespace, key, err)
	}
	return old, true, nil
}

// Values implements Storage.
func (s *SQLite[T]) Values(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM kv_store WHERE namespace = ? ORDER BY rowid`,
		s.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.namespace, err)
	}
	defer rows.Close()

	var values []T
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.namespace, err)
		}
		v, err := s.decode(raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", s.namespace, err)
	}
	return values, nil
}

// Keys implements Storage.
func (s *SQLite[T]) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_store WHERE namespace = ? ORDER BY rowid`,
		s.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s keys: %w", s.namespace, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning %s key: %w", s.namespace, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s keys: %w", s.namespace, err)
	}
	return keys, nil
}

func (s *SQLite[T]) getTx(ctx context.Context, tx *sql.Tx, key string) (T, bool, error) {
	var zero T
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("querying %s/%s: %w", s.namespace, key, err)
	}
	v, err := s.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *SQLite[T]) decode(raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("unmarshalling %s value: %w", s.namespace, err)
	}
	return v, nil
}
