// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"blognest/internal/auth"
	"blognest/internal/clock"
	"blognest/internal/models"
	"blognest/internal/notify"
	"blognest/internal/store"
	"blognest/internal/testdb"
)

type env struct {
	db    *sql.DB
	clock *clock.Fixed
	queue *notify.MemoryQueue
	deps  Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	e := &env{
		db:    db,
		clock: clock.NewFixed(time.Now().UTC().Truncate(time.Second)),
		queue: notify.NewMemoryQueue(256),
	}
	e.deps = Deps{DB: db, Clock: e.clock, Notifier: e.queue}
	return e
}

// user creates an account and returns its principal.
func (e *env) user(t *testing.T, role models.Role) *auth.Principal {
	t.Helper()
	name := testdb.Unique("svc")
	u, err := store.NewUserStore(e.db).Create(context.Background(), store.NewUser{
		Username: name,
		Email:    name + "@service-test.local",
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// drain returns every queued event.
func (e *env) drain(t *testing.T) []notify.Event {
	t.Helper()
	var out []notify.Event
	for {
		ev, err := e.queue.Pop(context.Background(), 5*time.Millisecond)
		require.NoError(t, err)
		if ev == nil {
			return out
		}
		out = append(out, *ev)
	}
}

func eventsFor(events []notify.Event, recipient uuid.UUID) []models.NotificationType {
	var types []models.NotificationType
	for _, e := range events {
		if e.RecipientID == recipient {
			types = append(types, e.Type)
		}
	}
	return types
}

func (e *env) counter(t *testing.T, c store.Counter, id uuid.UUID) int64 {
	t.Helper()
	n, err := store.Value(context.Background(), e.db, c, id)
	require.NoError(t, err)
	return n
}

// publishedBlog creates and publishes a blog by author.
func (e *env) publishedBlog(t *testing.T, author *auth.Principal) *models.Blog {
	t.Helper()
	ctx := context.Background()
	blogs := NewBlogs(e.deps)
	b, err := blogs.Create(ctx, author, BlogInput{Title: "Published " + testdb.Unique("t"), Content: "words " + t.Name()})
	require.NoError(t, err)
	b, err = blogs.Publish(ctx, author, b.ID)
	require.NoError(t, err)
	return b
}
