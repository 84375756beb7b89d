// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
)

// recount statements rebuild every denormalized counter from the rows it
// summarizes. Each only touches rows whose stored value drifted.
var recounts = []struct {
	counter Counter
	query   string
}{
	{BlogLikes, `
		UPDATE blogs b SET likes_count = x.n FROM (
			SELECT b2.id, COUNT(l.id) AS n FROM blogs b2 LEFT JOIN likes l ON l.blog_id = b2.id GROUP BY b2.id
		) x WHERE b.id = x.id AND b.likes_count <> x.n`},
	{CommentLikes, `
		UPDATE comments c SET likes_count = x.n FROM (
			SELECT c2.id, COUNT(l.id) AS n FROM comments c2 LEFT JOIN likes l ON l.comment_id = c2.id GROUP BY c2.id
		) x WHERE c.id = x.id AND c.likes_count <> x.n`},
	{BlogComments, `
		UPDATE blogs b SET comments_count = x.n FROM (
			SELECT b2.id, COUNT(c.id) FILTER (WHERE NOT c.is_deleted AND c.is_approved) AS n
			FROM blogs b2 LEFT JOIN comments c ON c.blog_id = b2.id GROUP BY b2.id
		) x WHERE b.id = x.id AND b.comments_count <> x.n`},
	{CommentReplies, `
		UPDATE comments c SET replies_count = x.n FROM (
			SELECT p.id, COUNT(r.id) FILTER (WHERE NOT r.is_deleted AND r.is_approved) AS n
			FROM comments p LEFT JOIN comments r ON r.parent_id = p.id GROUP BY p.id
		) x WHERE c.id = x.id AND c.replies_count <> x.n`},
	{UserFollowers, `
		UPDATE users u SET followers_count = x.n FROM (
			SELECT u2.id, COUNT(f.id) AS n FROM users u2 LEFT JOIN follows f ON f.following_id = u2.id GROUP BY u2.id
		) x WHERE u.id = x.id AND u.followers_count <> x.n`},
	{UserFollowing, `
		UPDATE users u SET following_count = x.n FROM (
			SELECT u2.id, COUNT(f.id) AS n FROM users u2 LEFT JOIN follows f ON f.follower_id = u2.id GROUP BY u2.id
		) x WHERE u.id = x.id AND u.following_count <> x.n`},
	{UserBlogs, `
		UPDATE users u SET blogs_count = x.n FROM (
			SELECT u2.id, COUNT(b.id) AS n FROM users u2 LEFT JOIN blogs b ON b.author_id = u2.id GROUP BY u2.id
		) x WHERE u.id = x.id AND u.blogs_count <> x.n`},
	{TagUsage, `
		UPDATE tags t SET usage_count = x.n FROM (
			SELECT t2.id, COUNT(bt.blog_id) AS n FROM tags t2 LEFT JOIN blog_tags bt ON bt.tag_id = t2.id GROUP BY t2.id
		) x WHERE t.id = x.id AND t.usage_count <> x.n`},
	{CategoryBlogs, `
		UPDATE categories c SET blog_count = x.n FROM (
			SELECT c2.id, COUNT(b.id) AS n FROM categories c2 LEFT JOIN blogs b ON b.category_id = c2.id GROUP BY c2.id
		) x WHERE c.id = x.id AND c.blog_count <> x.n`},
	// Runs after CategoryBlogs so it sums fresh direct counts.
	{CategorySubtree, `
		WITH RECURSIVE walk AS (
			SELECT id AS root, id FROM categories
			UNION
			SELECT w.root, c.id FROM categories c JOIN walk w ON c.parent_id = w.id
		), sums AS (
			SELECT w.root AS id, SUM(c.blog_count)::bigint AS n
			FROM walk w JOIN categories c ON c.id = w.id GROUP BY w.root
		)
		UPDATE categories c SET subtree_blog_count = sums.n FROM sums
		WHERE c.id = sums.id AND c.subtree_blog_count <> sums.n`},
}

// RecountIsolation is the isolation level Recount must run at. Under it a
// counter row changed by a concurrent like, follow or comment after the
// recount's snapshot fails the recount with a serialization error instead of
// being overwritten with the stale count, so run it through RetryTx.
const RecountIsolation = sql.LevelRepeatableRead

// Recount rebuilds every counter and returns how many rows were corrected
// per counter. db must be a transaction at RecountIsolation.
func Recount(ctx context.Context, db DBTX) (map[string]int64, error) {
	fixed := make(map[string]int64, len(recounts))
	for _, r := range recounts {
		res, err := db.ExecContext(ctx, r.query)
		if err != nil {
			return nil, mapError("recount "+r.counter.String(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, mapError("recount "+r.counter.String(), err)
		}
		fixed[r.counter.String()] = n
	}
	return fixed, nil
}
