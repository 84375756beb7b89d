// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package notify

import (
	"context"
	"errors"
	"net/smtp"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperr.E(apperr.NotFound, "user not found")
}

type fakeMarker struct {
	mu   sync.Mutex
	sent []uuid.UUID
}

func (m *fakeMarker) MarkEmailSent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, id)
	return nil
}

type fakeMailer struct {
	mu     sync.Mutex
	to     []string
	bodies []string
	err    error
}

func (m *fakeMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()
	e := Event{NotificationID: uuid.New(), Type: models.NotifyBlogLiked}

	require.NoError(t, q.Dispatch(ctx, e))
	assert.ErrorIs(t, q.Dispatch(ctx, e), ErrQueueFull)
	assert.Equal(t, 1, q.Len())

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, e.NotificationID, got.NotificationID)

	got, err = q.Pop(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got, "empty queue times out with no event")
}

func TestWorkerHandle(t *testing.T) {
	recipient := &models.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com", IsActive: true}
	inactive := &models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	users := fakeUsers{recipient.ID: recipient, inactive.ID: inactive}
	blogID := uuid.New()

	tests := []struct {
		name     string
		event    Event
		wantErr  bool
		wantSent bool
	}{
		{"email type", Event{NotificationID: uuid.New(), Type: models.NotifyBlogLiked, RecipientID: recipient.ID, BlogID: &blogID, Message: "liked"}, false, true},
		{"in-app only type", Event{NotificationID: uuid.New(), Type: models.NotifyCommentLiked, RecipientID: recipient.ID}, false, false},
		{"inactive recipient", Event{NotificationID: uuid.New(), Type: models.NotifyBlogLiked, RecipientID: inactive.ID}, true, false},
		{"missing recipient", Event{NotificationID: uuid.New(), Type: models.NotifyBlogLiked, RecipientID: uuid.New()}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{}
			marker := &fakeMarker{}
			w := NewWorker(NewMemoryQueue(1), users, marker, mailer, "https://blog.example")

			err := w.Handle(context.Background(), tt.event)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantSent {
				require.Len(t, mailer.to, 1)
				assert.Equal(t, recipient.Email, mailer.to[0])
				assert.Contains(t, mailer.bodies[0], "https://blog.example/api/blogs/"+blogID.String())
				assert.Equal(t, []uuid.UUID{tt.event.NotificationID}, marker.sent)
			} else {
				assert.Empty(t, mailer.to)
				assert.Empty(t, marker.sent)
			}
		})
	}
}

func TestWorkerMailFailureDoesNotMark(t *testing.T) {
	u := &models.User{ID: uuid.New(), Email: "x@example.com", IsActive: true}
	marker := &fakeMarker{}
	w := NewWorker(NewMemoryQueue(1), fakeUsers{u.ID: u}, marker, &fakeMailer{err: errors.New("relay down")}, "")

	err := w.Handle(context.Background(), Event{NotificationID: uuid.New(), Type: models.NotifyWelcome, RecipientID: u.ID})
	assert.Error(t, err)
	assert.Empty(t, marker.sent)
}

func TestWorkerRunDrainsQueue(t *testing.T) {
	u := &models.User{ID: uuid.New(), Email: "run@example.com", IsActive: true}
	q := NewMemoryQueue(4)
	mailer := &fakeMailer{}
	marker := &fakeMarker{}
	w := NewWorker(q, fakeUsers{u.ID: u}, marker, mailer, "")
	w.poll = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	for range 3 {
		require.NoError(t, q.Dispatch(ctx, Event{NotificationID: uuid.New(), Type: models.NotifyUserFollowed, RecipientID: u.ID}))
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool {
		marker.mu.Lock()
		defer marker.mu.Unlock()
		return len(marker.sent) == 3
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestSMTPMailer(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example", Port: 2525, User: "u", Password: "p", From: "noreply@example"})
	var gotAddr string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		assert.NotNil(t, a)
		assert.Equal(t, []string{"to@example"}, to)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "to@example", "Hello", "body"))
	assert.Equal(t, "smtp.example:2525", gotAddr)
	assert.True(t, strings.HasPrefix(string(gotMsg), "From: noreply@example\r\nTo: to@example\r\nSubject: Hello\r\n"))

	assert.Error(t, m.Send(context.Background(), "to@example\r\nBcc: evil@example", "Hello", "body"))
}

// testValkey returns a client on DB 15, or skips when Valkey is unreachable.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("VALKEY_PASSWORD"), DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), QueueKey)
		client.Close()
	})
	return client
}

func TestRedisQueueRoundTrip(t *testing.T) {
	client := testValkey(t)
	q := NewRedisQueue(client)
	ctx := context.Background()
	client.Del(ctx, QueueKey)

	first := Event{NotificationID: uuid.New(), Type: models.NotifyBlogCommented, RecipientID: uuid.New()}
	second := Event{NotificationID: uuid.New(), Type: models.NotifyCommentReplied, RecipientID: uuid.New()}
	require.NoError(t, q.Dispatch(ctx, first))
	require.NoError(t, q.Dispatch(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.NotificationID, got.NotificationID, "FIFO order")
	assert.Equal(t, models.NotifyBlogCommented, got.Type)

	got, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.NotificationID, got.NotificationID)

	got, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Nil(t, got)
}
