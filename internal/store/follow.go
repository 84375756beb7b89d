// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

// FollowStore manages follow edges. Create and Delete keep both users'
// followers_count and following_count in step with the edge rows.
type FollowStore struct {
	db DBTX
}

// NewFollowStore returns a new FollowStore.
func NewFollowStore(db DBTX) *FollowStore {
	return &FollowStore{db: db}
}

const followColumns = `id, follower_id, following_id, is_notification_sent, created_at`

func scanFollow(s scanner) (*models.Follow, error) {
	var f models.Follow
	if err := s.Scan(&f.ID, &f.FollowerID, &f.FollowingID, &f.IsNotificationSent, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var (
	userColumnsU = qualify(userColumns, "u")
	followSort   = sortSpec{fallback: "f.created_at DESC"}
	suggestSort  = sortSpec{fallback: "u.followers_count DESC, u.username"}
)

// Create inserts the edge follower -> following and bumps both counters.
// Self-follows are Validation errors and duplicates are Conflict.
func (s *FollowStore) Create(ctx context.Context, follower, following uuid.UUID) (*models.Follow, error) {
	if _, err := models.NewFollow(follower, following); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, err.Error())
	}
	if err := lockPair(ctx, s.db, follower, following); err != nil {
		return nil, err
	}
	f, err := scanFollow(s.db.QueryRowContext(ctx, `
		INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)
		RETURNING `+followColumns, follower, following))
	if err != nil {
		return nil, mapError("create follow", err)
	}
	if err := Increment(ctx, s.db, UserFollowing, follower); err != nil {
		return nil, err
	}
	if err := Increment(ctx, s.db, UserFollowers, following); err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes the edge and lowers both counters. A missing edge is
// NotFound.
func (s *FollowStore) Delete(ctx context.Context, follower, following uuid.UUID) error {
	if err := lockPair(ctx, s.db, follower, following); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, follower, following)
	if err != nil {
		return mapError("delete follow", err)
	}
	if err := mustAffect(res, "follow"); err != nil {
		return err
	}
	if err := Decrement(ctx, s.db, UserFollowing, follower); err != nil {
		return err
	}
	return Decrement(ctx, s.db, UserFollowers, following)
}

// lockPair locks both user rows in id order, so that A following B while B
// follows A queue behind each other instead of deadlocking on the counters.
func lockPair(ctx context.Context, db DBTX, a, b uuid.UUID) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR NO KEY UPDATE`,
		uuidStrings([]uuid.UUID{a, b}))
	if err != nil {
		return mapError("lock users", err)
	}
	if _, err := collectIDs(rows, "lock users"); err != nil {
		return mapError("lock users", err)
	}
	return nil
}

// MarkNotified records that the follow notification went out.
func (s *FollowStore) MarkNotified(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE follows SET is_notification_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return mapError("mark follow notified", err)
	}
	return mustAffect(res, "follow")
}

// IsFollowing reports whether follower follows following.
func (s *FollowStore) IsFollowing(ctx context.Context, follower, following uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		follower, following).Scan(&ok)
	if err != nil {
		return false, mapError("is following", err)
	}
	return ok, nil
}

func (s *FollowStore) users(ctx context.Context, op, join, where string, args []any, spec sortSpec, p PageRequest) (*Page[models.User], error) {
	return pageQuery(ctx, s.db, op,
		`SELECT COUNT(*) FROM users u `+join+` WHERE `+where,
		`SELECT `+userColumnsU+` FROM users u `+join+` WHERE `+where,
		args, spec, "u.id", p, scanUser)
}

// Followers returns the users following userID, most recent first.
func (s *FollowStore) Followers(ctx context.Context, userID uuid.UUID, p PageRequest) (*Page[models.User], error) {
	return s.users(ctx, "followers", `JOIN follows f ON f.follower_id = u.id`,
		`f.following_id = $1 AND u.is_active`, []any{userID}, followSort, p)
}

// Following returns the users userID follows, most recent first.
func (s *FollowStore) Following(ctx context.Context, userID uuid.UUID, p PageRequest) (*Page[models.User], error) {
	return s.users(ctx, "following", `JOIN follows f ON f.following_id = u.id`,
		`f.follower_id = $1 AND u.is_active`, []any{userID}, followSort, p)
}

// Mutual returns users that follow userID and are followed back.
func (s *FollowStore) Mutual(ctx context.Context, userID uuid.UUID, p PageRequest) (*Page[models.User], error) {
	return s.users(ctx, "mutual follows",
		`JOIN follows f ON f.following_id = u.id AND f.follower_id = $1
		 JOIN follows b ON b.follower_id = u.id AND b.following_id = $1`,
		`u.is_active`, []any{userID}, followSort, p)
}

// Suggestions returns active users followed by the people userID follows,
// excluding userID and anyone already followed.
func (s *FollowStore) Suggestions(ctx context.Context, userID uuid.UUID, p PageRequest) (*Page[models.User], error) {
	return s.users(ctx, "follow suggestions", ``, `u.is_active AND u.id <> $1
		AND u.id IN (
			SELECT f2.following_id FROM follows f1
			JOIN follows f2 ON f2.follower_id = f1.following_id
			WHERE f1.follower_id = $1
		)
		AND NOT EXISTS (SELECT 1 FROM follows x WHERE x.follower_id = $1 AND x.following_id = u.id)`,
		[]any{userID}, suggestSort, p)
}

// FollowerIDs returns the ids of every follower of userID. Used to fan out
// notifications when an author publishes.
func (s *FollowStore) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT follower_id FROM follows WHERE following_id = $1`, userID)
	if err != nil {
		return nil, mapError("follower ids", err)
	}
	return collectIDs(rows, "follower ids")
}
