// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all BlogNest
// entities. Each store struct wraps a DBTX (a *sql.DB or a *sql.Tx) and
// exposes typed query methods. Denormalized counters are only ever changed
// with single UPDATE statements; nothing here loads a row, edits a count in
// memory and writes it back.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"blognest/internal/apperr"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. fn's error rolls back; a nil return
// commits. Panics roll back and re-panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, db, nil, fn)
}

// RetryTx runs fn in a transaction at isolation level iso and starts over,
// up to attempts times, when PostgreSQL aborts it with a serialization
// failure or a deadlock. The last error is returned as a Concurrency error.
func RetryTx(ctx context.Context, db *sql.DB, iso sql.IsolationLevel, attempts int, fn func(tx *sql.Tx) error) error {
	opts := &sql.TxOptions{Isolation: iso}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = withTx(ctx, db, opts, fn); err == nil || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return apperr.Wrap(apperr.Concurrency, err, "too much concurrent activity, retry later")
}

func withTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// PostgreSQL error codes mapped to application error kinds.
const (
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
)

// retryable reports whether err is a serialization failure or deadlock,
// after which the whole transaction may simply run again.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFail || pgErr.Code == pgDeadlockDetected
}

// mapError converts constraint violations into typed errors and wraps
// everything else with op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Wrap(apperr.Conflict, err, conflictMessage(pgErr.ConstraintName))
		case pgCheckViolation:
			return apperr.Wrap(apperr.Validation, err, checkMessage(pgErr.ConstraintName))
		case pgForeignKeyViolation:
			return apperr.Wrap(apperr.NotFound, err, "referenced record does not exist")
		case pgSerializationFail, pgDeadlockDetected:
			return apperr.Wrap(apperr.Concurrency, err, "conflicting concurrent update, retry")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func conflictMessage(constraint string) string {
	switch constraint {
	case "users_username_key":
		return "username is already taken"
	case "users_email_key":
		return "email is already registered"
	case "blogs_slug_key", "categories_slug_key", "tags_slug_key":
		return "slug is already in use"
	case "follows_pair_unique":
		return "already following this user"
	case "likes_user_blog_unique", "likes_user_comment_unique":
		return "already liked"
	case "blog_tags_pkey":
		return "tag already attached"
	}
	return "record already exists"
}

func checkMessage(constraint string) string {
	switch constraint {
	case "follows_no_self":
		return "users cannot follow themselves"
	case "likes_one_target":
		return "a like must target exactly one blog or comment"
	}
	return "value violates a data constraint"
}

// notFound returns a NotFound error for sql.ErrNoRows and maps anything else.
func notFound(op string, err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.E(apperr.NotFound, "%s not found", what)
	}
	return mapError(op, err)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface{ Scan(...any) error }

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, op string, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	items := []T{}
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return items, nil
}

// versionMismatch explains an optimistic update that matched no row:
// NotFound if the row is gone, Concurrency if its version moved on.
func versionMismatch(ctx context.Context, db DBTX, table string, id any, what string) error {
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("%s exists: %w", table, err)
	}
	if !exists {
		return apperr.E(apperr.NotFound, "%s not found", what)
	}
	return apperr.E(apperr.Concurrency, "%s was modified concurrently, reload and retry", what)
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// nullString stores "" as NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// mustAffect returns NotFound when res touched no rows.
func mustAffect(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.E(apperr.NotFound, "%s not found", what)
	}
	return nil
}

// qualify prefixes every column in a comma separated list with alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// collectIDs scans a single uuid column from every row and closes rows.
func collectIDs(rows *sql.Rows, op string) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return ids, nil
}
