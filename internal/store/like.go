// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

// LikeStore manages likes on blogs and comments. Inserting or deleting a
// like adjusts the target's likes_count in the same DBTX, so callers that
// pass a transaction get both changes or neither.
type LikeStore struct {
	db DBTX
}

// NewLikeStore returns a new LikeStore.
func NewLikeStore(db DBTX) *LikeStore {
	return &LikeStore{db: db}
}

const likeColumns = `id, user_id, blog_id, comment_id, created_at`

func scanLike(s scanner) (*models.Like, error) {
	var (
		l                 models.Like
		blogID, commentID *uuid.UUID
	)
	if err := s.Scan(&l.ID, &l.UserID, &blogID, &commentID, &l.CreatedAt); err != nil {
		return nil, err
	}
	t, err := models.LikeTargetFromColumns(blogID, commentID)
	if err != nil {
		return nil, err
	}
	l.Target = t
	return &l, nil
}

var likeSort = sortSpec{fallback: "created_at DESC"}

func likeCounter(t models.LikeTarget) Counter {
	if t.Kind() == models.TargetBlog {
		return BlogLikes
	}
	return CommentLikes
}

// targetColumn is the column holding t's id.
func targetColumn(t models.LikeTarget) string {
	if t.Kind() == models.TargetBlog {
		return "blog_id"
	}
	return "comment_id"
}

// Create records a like and increments the target's counter. A second like
// by the same user on the same target is a Conflict.
func (s *LikeStore) Create(ctx context.Context, userID uuid.UUID, target models.LikeTarget) (*models.Like, error) {
	blogID, commentID := models.Columns(target)
	l, err := scanLike(s.db.QueryRowContext(ctx, `
		INSERT INTO likes (user_id, blog_id, comment_id) VALUES ($1, $2, $3)
		RETURNING `+likeColumns, userID, blogID, commentID))
	if err != nil {
		return nil, mapError("create like", err)
	}
	if err := Increment(ctx, s.db, likeCounter(target), target.TargetID()); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a like and decrements the target's counter. Removing a like
// that does not exist is NotFound.
func (s *LikeStore) Delete(ctx context.Context, userID uuid.UUID, target models.LikeTarget) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND `+targetColumn(target)+` = $2`,
		userID, target.TargetID())
	if err != nil {
		return mapError("delete like", err)
	}
	if err := mustAffect(res, "like"); err != nil {
		return err
	}
	return Decrement(ctx, s.db, likeCounter(target), target.TargetID())
}

// Exists reports whether the user likes the target.
func (s *LikeStore) Exists(ctx context.Context, userID uuid.UUID, target models.LikeTarget) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE user_id = $1 AND `+targetColumn(target)+` = $2)`,
		userID, target.TargetID()).Scan(&ok)
	if err != nil {
		return false, mapError("like exists", err)
	}
	return ok, nil
}

// Count counts like rows for the target. The stored counter should match it.
func (s *LikeStore) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE `+targetColumn(target)+` = $1`, target.TargetID()).Scan(&n)
	if err != nil {
		return 0, mapError("count likes", err)
	}
	return n, nil
}

// ByUser returns a user's likes, newest first, optionally of one kind.
func (s *LikeStore) ByUser(ctx context.Context, userID uuid.UUID, kind models.TargetKind, p PageRequest) (*Page[models.Like], error) {
	where := `user_id = $1`
	switch kind {
	case "":
	case models.TargetBlog:
		where += ` AND blog_id IS NOT NULL`
	case models.TargetComment:
		where += ` AND comment_id IS NOT NULL`
	default:
		return nil, apperr.E(apperr.Validation, "unknown like target %q", kind)
	}
	return pageQuery(ctx, s.db, "likes by user",
		`SELECT COUNT(*) FROM likes WHERE `+where,
		`SELECT `+likeColumns+` FROM likes WHERE `+where,
		[]any{userID}, likeSort, "id", p, scanLike)
}

// ForTarget returns the likes on a target, newest first.
func (s *LikeStore) ForTarget(ctx context.Context, target models.LikeTarget, p PageRequest) (*Page[models.Like], error) {
	where := targetColumn(target) + ` = $1`
	return pageQuery(ctx, s.db, "likes for target",
		`SELECT COUNT(*) FROM likes WHERE `+where,
		`SELECT `+likeColumns+` FROM likes WHERE `+where,
		[]any{target.TargetID()}, likeSort, "id", p, scanLike)
}

// LikedBlogs returns the subset of blogIDs the user has liked.
func (s *LikeStore) LikedBlogs(ctx context.Context, userID uuid.UUID, blogIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(blogIDs))
	if len(blogIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT blog_id FROM likes WHERE user_id = $1 AND blog_id = ANY($2::uuid[])`,
		userID, uuidStrings(blogIDs))
	if err != nil {
		return nil, mapError("liked blogs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan liked blog: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// DeleteOrphaned removes likes whose target can no longer be interacted
// with (archived blogs and deleted comments) and lowers the counters by
// the number removed per target. It returns the number of likes deleted.
func (s *LikeStore) DeleteOrphaned(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM likes l
		WHERE l.blog_id IN (SELECT id FROM blogs WHERE status = 'ARCHIVED')
		   OR l.comment_id IN (SELECT id FROM comments WHERE is_deleted)
		RETURNING l.blog_id, l.comment_id`)
	if err != nil {
		return 0, mapError("delete orphaned likes", err)
	}
	blogs, comments, total, err := tallyTargets(rows)
	if err != nil {
		return 0, err
	}
	if err := AdjustByCount(ctx, s.db, BlogLikes, blogs); err != nil {
		return 0, err
	}
	if err := AdjustByCount(ctx, s.db, CommentLikes, comments); err != nil {
		return 0, err
	}
	return total, nil
}

// tallyTargets turns deleted (blog_id, comment_id) rows into negative
// per-target deltas.
func tallyTargets(rows *sql.Rows) (blogs, comments map[uuid.UUID]int64, total int64, err error) {
	defer rows.Close()
	blogs = map[uuid.UUID]int64{}
	comments = map[uuid.UUID]int64{}
	for rows.Next() {
		var blogID, commentID *uuid.UUID
		if err := rows.Scan(&blogID, &commentID); err != nil {
			return nil, nil, 0, fmt.Errorf("scan deleted like: %w", err)
		}
		switch {
		case blogID != nil:
			blogs[*blogID]--
		case commentID != nil:
			comments[*commentID]--
		}
		total++
	}
	return blogs, comments, total, rows.Err()
}
