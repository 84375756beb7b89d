// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package testdb gives integration tests a migrated PostgreSQL database.
// BLOGNEST_TEST_DSN points at an existing server; otherwise one container
// is started per test binary and shared by every test in it. Tests skip
// when neither is available.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blognest/internal/database"
)

var (
	once    sync.Once
	shared  *sql.DB
	openErr error
)

// Open returns the shared database or skips t.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	if os.Getenv("BLOGNEST_TEST_DSN") == "" && testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	once.Do(func() { shared, openErr = open() })
	if openErr != nil {
		t.Skipf("skipping integration test: %v", openErr)
	}
	return shared
}

func open() (db *sql.DB, err error) {
	ctx := context.Background()
	dsn := os.Getenv("BLOGNEST_TEST_DSN")
	if dsn == "" {
		if dsn, err = startContainer(ctx); err != nil {
			return nil, err
		}
	}
	if db, err = database.Connect(ctx, dsn); err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// startContainer runs postgres in Docker. The testcontainers reaper removes
// it when the test binary exits.
func startContainer(ctx context.Context) (dsn string, err error) {
	defer func() {
		// testcontainers panics when no Docker host can be found.
		if r := recover(); r != nil {
			err = fmt.Errorf("docker not available: %v", r)
		}
	}()
	c, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("blognest"),
		postgres.WithUsername("blognest"),
		postgres.WithPassword("blognest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}
	return c.ConnectionString(ctx, "sslmode=disable")
}

// Unique returns prefix plus a short random suffix, for usernames and slugs
// that must not collide across tests sharing the database.
func Unique(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
