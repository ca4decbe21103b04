// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/courtside/db"
)

// SQLBackend stores documents as rows of the document table.
type SQLBackend struct {
	db       *sql.DB
	postgres bool
}

func NewSQLBackend(conn *sql.DB, storeType string) *SQLBackend {
	return &SQLBackend{db: conn, postgres: storeType == db.TypePostgres}
}

// query rewrites ? placeholders to $N for postgres.
func (b *SQLBackend) query(q string) string {
	if !b.postgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (b *SQLBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, b.query(`SELECT body FROM document WHERE name = ?`), name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return []byte(body), nil
}

func (b *SQLBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx, b.query(`
		INSERT INTO document (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`), name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, name string) error {
	_, err := b.db.ExecContext(ctx, b.query(`DELETE FROM document WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (b *SQLBackend) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, b.query(`
		SELECT name FROM document WHERE substr(name, 1, ?) = ? ORDER BY name
	`), len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
