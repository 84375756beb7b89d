// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"blognest/internal/apperr"
)

// Counter names one denormalized count column. Only the values declared
// below exist, so table and column never come from input.
type Counter struct {
	table  string
	column string
	what   string
}

func (c Counter) String() string { return c.table + "." + c.column }

// Every denormalized counter in the schema.
var (
	UserFollowers   = Counter{"users", "followers_count", "user"}
	UserFollowing   = Counter{"users", "following_count", "user"}
	UserBlogs       = Counter{"users", "blogs_count", "user"}
	BlogViews       = Counter{"blogs", "views_count", "blog"}
	BlogLikes       = Counter{"blogs", "likes_count", "blog"}
	BlogComments    = Counter{"blogs", "comments_count", "blog"}
	CommentLikes    = Counter{"comments", "likes_count", "comment"}
	CommentReplies  = Counter{"comments", "replies_count", "comment"}
	TagUsage        = Counter{"tags", "usage_count", "tag"}
	CategoryBlogs   = Counter{"categories", "blog_count", "category"}
	CategorySubtree = Counter{"categories", "subtree_blog_count", "category"}
)

// Adjust adds delta to the counter on row id in one statement. Negative
// results are clamped to zero.
func Adjust(ctx context.Context, db DBTX, c Counter, id uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	res, err := db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %[1]s SET %[2]s = GREATEST(%[2]s + $2, 0) WHERE id = $1`,
		c.table, c.column,
	), id, delta)
	if err != nil {
		return mapError("adjust "+c.String(), err)
	}
	return mustAffect(res, c.what)
}

// Increment adds one to the counter.
func Increment(ctx context.Context, db DBTX, c Counter, id uuid.UUID) error {
	return Adjust(ctx, db, c, id, 1)
}

// Decrement subtracts one from the counter, never going below zero.
func Decrement(ctx context.Context, db DBTX, c Counter, id uuid.UUID) error {
	return Adjust(ctx, db, c, id, -1)
}

// AdjustMany applies delta to every row in ids with one statement and
// returns the number of rows touched.
func AdjustMany(ctx context.Context, db DBTX, c Counter, ids []uuid.UUID, delta int64) (int64, error) {
	if delta == 0 || len(ids) == 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %[1]s SET %[2]s = GREATEST(%[2]s + $2, 0) WHERE id = ANY($1::uuid[])`,
		c.table, c.column,
	), uuidStrings(ids), delta)
	if err != nil {
		return 0, mapError("adjust many "+c.String(), err)
	}
	return res.RowsAffected()
}

// AdjustByCount subtracts or adds per-row amounts in one statement. Used by
// bulk operations where each target row receives a different delta.
func AdjustByCount(ctx context.Context, db DBTX, c Counter, deltas map[uuid.UUID]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]string, 0, len(deltas))
	amounts := make([]int64, 0, len(deltas))
	for id, d := range deltas {
		if d == 0 {
			continue
		}
		ids = append(ids, id.String())
		amounts = append(amounts, d)
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %[1]s t SET %[2]s = GREATEST(t.%[2]s + d.delta, 0)
		FROM unnest($1::uuid[], $2::bigint[]) AS d(id, delta)
		WHERE t.id = d.id`,
		c.table, c.column,
	), ids, amounts)
	if err != nil {
		return mapError("adjust by count "+c.String(), err)
	}
	return nil
}

// Value reads the current counter value.
func Value(ctx context.Context, db DBTX, c Counter, id uuid.UUID) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, c.column, c.table,
	), id).Scan(&n)
	if err != nil {
		return 0, notFound("read "+c.String(), err, c.what)
	}
	return n, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// requireIDs rejects empty bulk requests.
func requireIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return apperr.E(apperr.Validation, "at least one id is required")
	}
	return nil
}
