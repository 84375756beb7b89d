// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify carries "something happened to X by Y" events out of the
// request path. Services persist the Notification row inside their
// transaction and dispatch an Event after commit; a Worker drains the queue
// and sends email for the types that want it.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blognest/internal/logging"
	"blognest/internal/models"
)

// QueueKey is the Valkey list events are pushed onto.
const QueueKey = "notify:events"

// ErrQueueFull is returned by MemoryQueue when its buffer is full.
var ErrQueueFull = errors.New("notification queue is full")

// Event describes one persisted notification to deliver out of band.
type Event struct {
	NotificationID uuid.UUID               `json:"notification_id"`
	Type           models.NotificationType `json:"type"`
	RecipientID    uuid.UUID               `json:"recipient_id"`
	ActorID        *uuid.UUID              `json:"actor_id,omitempty"`
	BlogID         *uuid.UUID              `json:"blog_id,omitempty"`
	CommentID      *uuid.UUID              `json:"comment_id,omitempty"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	CreatedAt      time.Time               `json:"created_at"`
}

// EventFor builds the event for a stored notification.
func EventFor(n *models.Notification) Event {
	return Event{
		NotificationID: n.ID,
		Type:           n.Type,
		RecipientID:    n.RecipientID,
		ActorID:        n.ActorID,
		BlogID:         n.RelatedBlogID,
		CommentID:      n.RelatedCommentID,
		Title:          n.Title,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
}

// Dispatcher hands events to whatever delivers them.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Source yields queued events. Pop returns (nil, nil) when nothing arrived
// within timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*Event, error)
}

// DispatchAll sends every event, logging failures. The rows are already
// committed, so a failed dispatch only loses the email, not the
// notification.
func DispatchAll(ctx context.Context, d Dispatcher, events []Event) {
	for _, e := range events {
		if err := d.Dispatch(ctx, e); err != nil {
			logging.L().Warn("notification dispatch failed",
				zap.String("type", string(e.Type)),
				zap.Stringer("notification_id", e.NotificationID),
				zap.Error(err),
			)
		}
	}
}

// RedisQueue is a Valkey list used as a FIFO queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue returns a queue on QueueKey.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: QueueKey}
}

// Dispatch appends e to the list.
func (q *RedisQueue) Dispatch(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("notify marshal: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("notify push: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next event.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Event, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("notify pop: %w", err)
	}
	// res is [key, value].
	var e Event
	if err := json.Unmarshal([]byte(res[1]), &e); err != nil {
		return nil, fmt.Errorf("notify unmarshal: %w", err)
	}
	return &e, nil
}

// Len reports the number of queued events.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// MemoryQueue is an in-process queue for development and tests.
type MemoryQueue struct {
	ch chan Event
}

// NewMemoryQueue returns a queue holding up to size events.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Event, size)}
}

// Dispatch enqueues e without blocking.
func (q *MemoryQueue) Dispatch(_ context.Context, e Event) error {
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits up to timeout for an event.
func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*Event, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case e := <-q.ch:
		return &e, nil
	case <-t.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued events.
func (q *MemoryQueue) Len() int { return len(q.ch) }
