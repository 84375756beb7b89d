// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service holds the write paths that span more than one store. Each
// operation runs in a single transaction: the edge row, every counter it
// feeds and the notifications it raises commit or roll back together.
// Notification events are dispatched only after commit.
package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/clock"
	"blognest/internal/models"
	"blognest/internal/notify"
	"blognest/internal/store"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	DB       *sql.DB
	Clock    clock.Clock
	Notifier notify.Dispatcher
}

// base carries Deps and the transaction helper.
type base struct {
	db    *sql.DB
	clock clock.Clock
	out   notify.Dispatcher
}

func newBase(d Deps) base {
	c := d.Clock
	if c == nil {
		c = clock.System{}
	}
	return base{db: d.DB, clock: c, out: d.Notifier}
}

// outbox collects notifications persisted inside a transaction.
type outbox struct {
	tx     *sql.Tx
	events []notify.Event
}

// notify stores n and queues its event for after commit. Self-notifications
// are dropped.
func (o *outbox) notify(ctx context.Context, n *models.Notification) error {
	if n.ActorID != nil && *n.ActorID == n.RecipientID {
		return nil
	}
	saved, err := store.NewNotificationStore(o.tx).Create(ctx, n)
	if err != nil {
		return err
	}
	o.events = append(o.events, notify.EventFor(saved))
	return nil
}

// inTx runs fn in a transaction and dispatches its notifications once the
// transaction has committed.
func (b base) inTx(ctx context.Context, fn func(o *outbox) error) error {
	var o outbox
	err := store.WithTx(ctx, b.db, func(tx *sql.Tx) error {
		o = outbox{tx: tx}
		return fn(&o)
	})
	if err != nil {
		return err
	}
	if b.out != nil && len(o.events) > 0 {
		notify.DispatchAll(ctx, b.out, o.events)
	}
	return nil
}

func requirePrincipal(p *auth.Principal) error {
	if p == nil {
		return apperr.E(apperr.Unauthorized, "authentication required")
	}
	return nil
}

// requireRole fails unless p holds at least min.
func requireRole(p *auth.Principal, min models.Role) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if !p.Role.AtLeast(min) {
		return apperr.E(apperr.Forbidden, "requires %s role", min)
	}
	return nil
}

// requireOwnerOr allows the owner, or anyone holding at least min.
func requireOwnerOr(p *auth.Principal, owner uuid.UUID, min models.Role) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if p.UserID != owner && !p.Role.AtLeast(min) {
		return apperr.E(apperr.Forbidden, "not allowed to modify this resource")
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
