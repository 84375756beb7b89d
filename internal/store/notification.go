// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"blognest/internal/models"
)

// NotificationStore persists in-app notifications.
type NotificationStore struct {
	db DBTX
}

// NewNotificationStore returns a new NotificationStore.
func NewNotificationStore(db DBTX) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationColumns = `id, recipient_id, actor_id, type, title, message, action_url,
	is_read, is_email_sent, related_blog_id, related_comment_id, related_user_id, created_at`

func scanNotification(s scanner) (*models.Notification, error) {
	var n models.Notification
	err := s.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Type, &n.Title, &n.Message, &n.ActionURL,
		&n.IsRead, &n.IsEmailSent, &n.RelatedBlogID, &n.RelatedCommentID, &n.RelatedUserID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

var notificationSort = sortSpec{fallback: "created_at DESC"}

// Create stores a notification.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	created, err := scanNotification(s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, actor_id, type, title, message, action_url,
			related_blog_id, related_comment_id, related_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+notificationColumns,
		n.RecipientID, n.ActorID, n.Type, n.Title, n.Message, n.ActionURL,
		n.RelatedBlogID, n.RelatedCommentID, n.RelatedUserID))
	if err != nil {
		return nil, mapError("create notification", err)
	}
	return created, nil
}

// ByRecipient returns a user's notifications, newest first.
func (s *NotificationStore) ByRecipient(ctx context.Context, recipient uuid.UUID, unreadOnly bool, p PageRequest) (*Page[models.Notification], error) {
	where := `recipient_id = $1`
	if unreadOnly {
		where += ` AND NOT is_read`
	}
	return pageQuery(ctx, s.db, "notifications",
		`SELECT COUNT(*) FROM notifications WHERE `+where,
		`SELECT `+notificationColumns+` FROM notifications WHERE `+where,
		[]any{recipient}, notificationSort, "id", p, scanNotification)
}

// UnreadCount counts a user's unread notifications.
func (s *NotificationStore) UnreadCount(ctx context.Context, recipient uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipient).Scan(&n)
	if err != nil {
		return 0, mapError("unread notifications", err)
	}
	return n, nil
}

// MarkRead marks one notification read. Other users' notifications are
// reported as NotFound.
func (s *NotificationStore) MarkRead(ctx context.Context, recipient, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipient)
	if err != nil {
		return mapError("mark notification read", err)
	}
	return mustAffect(res, "notification")
}

// MarkAllRead marks every unread notification of a user read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, recipient)
	if err != nil {
		return 0, mapError("mark all read", err)
	}
	return res.RowsAffected()
}

// MarkEmailSent records that the notification was mailed.
func (s *NotificationStore) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_email_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapError("mark email sent", err)
	}
	return mustAffect(res, "notification")
}

// Delete removes one of the recipient's notifications.
func (s *NotificationStore) Delete(ctx context.Context, recipient, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipient)
	if err != nil {
		return mapError("delete notification", err)
	}
	return mustAffect(res, "notification")
}

// DeleteReadBefore purges read notifications older than before.
func (s *NotificationStore) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE is_read AND created_at < $1`, before)
	if err != nil {
		return 0, mapError("purge notifications", err)
	}
	return res.RowsAffected()
}
