// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blognest/internal/logging"
	"blognest/internal/models"
)

// Users looks up notification recipients.
type Users interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Marker records delivered emails.
type Marker interface {
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
}

// Worker drains a Source and emails recipients for types that require it.
type Worker struct {
	src     Source
	users   Users
	marker  Marker
	mailer  Mailer
	baseURL string
	poll    time.Duration
}

// NewWorker wires a worker. baseURL prefixes links in email bodies.
func NewWorker(src Source, users Users, marker Marker, mailer Mailer, baseURL string) *Worker {
	return &Worker{src: src, users: users, marker: marker, mailer: mailer, baseURL: baseURL, poll: 5 * time.Second}
}

// Run processes events until ctx is cancelled. Failed events are logged and
// dropped; the in-app notification row already exists.
func (w *Worker) Run(ctx context.Context) error {
	logging.L().Info("notification worker started")
	for {
		e, err := w.src.Pop(ctx, w.poll)
		if ctx.Err() != nil {
			logging.L().Info("notification worker stopped")
			return nil
		}
		if err != nil {
			logging.L().Error("notification queue read failed", zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		if e == nil {
			continue
		}
		if err := w.Handle(ctx, *e); err != nil {
			logging.L().Warn("notification delivery failed",
				zap.String("type", string(e.Type)),
				zap.Stringer("notification_id", e.NotificationID),
				zap.Error(err),
			)
		}
	}
}

// errInactive marks recipients that should not be mailed.
var errInactive = errors.New("recipient is inactive")

// Handle delivers one event.
func (w *Worker) Handle(ctx context.Context, e Event) error {
	if !e.Type.RequiresEmail() {
		return nil
	}
	u, err := w.users.FindByID(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if !u.IsActive {
		return errInactive
	}
	if err := w.mailer.Send(ctx, u.Email, e.Title, w.body(u, e)); err != nil {
		return err
	}
	return w.marker.MarkEmailSent(ctx, e.NotificationID)
}

func (w *Worker) body(u *models.User, e Event) string {
	b := fmt.Sprintf("Hi %s,\n\n%s\n", u.Username, e.Message)
	if e.BlogID != nil && w.baseURL != "" {
		b += fmt.Sprintf("\n%s/api/blogs/%s\n", w.baseURL, e.BlogID)
	}
	return b + "\n-- BlogNest\n"
}
