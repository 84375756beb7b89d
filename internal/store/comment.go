// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

// CommentStore manages comments. Counters on blogs (comments_count) and on
// parent comments (replies_count) count visible comments: not deleted and
// approved. Methods that change visibility return CommentChange values so
// the caller can adjust those counters in the same transaction.
type CommentStore struct {
	db DBTX
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(db DBTX) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumnsC = `cm.id, cm.blog_id, cm.author_id, cm.parent_id, cm.content,
	cm.is_deleted, cm.is_approved, cm.is_edited, cm.edit_reason, cm.likes_count, cm.replies_count,
	cm.created_by, cm.modified_by, cm.version, cm.created_at, cm.updated_at`

var commentColumns = strings.ReplaceAll(commentColumnsC, "cm.", "")

func scanComment(s scanner) (*models.Comment, error) {
	var c models.Comment
	err := s.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.ParentID, &c.Content,
		&c.IsDeleted, &c.IsApproved, &c.IsEdited, &c.EditReason, &c.LikesCount, &c.RepliesCount,
		&c.CreatedBy, &c.ModifiedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const visibleComment = `NOT cm.is_deleted AND cm.is_approved`

var (
	commentSortSpec = sortSpec{
		columns: map[string]string{
			"createdat": "cm.created_at",
			"likes":     "cm.likes_count",
			"replies":   "cm.replies_count",
		},
		fallback: "cm.created_at ASC",
	}
	newestCommentSort   = sortSpec{columns: commentSortSpec.columns, fallback: "cm.created_at DESC"}
	trendingCommentSort = sortSpec{fallback: "(cm.likes_count * 0.6 + cm.replies_count * 0.4) DESC, cm.created_at DESC"}
)

// CommentChange describes a comment whose visibility changed.
type CommentChange struct {
	ID       uuid.UUID
	BlogID   uuid.UUID
	ParentID *uuid.UUID
}

// Create inserts a comment. Parent and blog consistency is checked by the
// caller before insert.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment, by string) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (blog_id, author_id, parent_id, content, is_approved, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+commentColumns,
		c.BlogID, c.AuthorID, c.ParentID, c.Content, c.IsApproved, nullString(by))
	created, err := scanComment(row)
	if err != nil {
		return nil, mapError("create comment", err)
	}
	return created, nil
}

// FindByID retrieves a comment regardless of visibility.
func (s *CommentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("find comment", err, "comment")
	}
	return c, nil
}

// LockForUpdate reads a comment and locks its row until the transaction ends.
func (s *CommentStore) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("lock comment", err, "comment")
	}
	return c, nil
}

// threadCTE walks from comment $1 through every transitive reply. Deleted
// and unapproved comments are walked through so their replies stay reachable.
const threadCTE = `WITH RECURSIVE thread AS (
		SELECT id FROM comments WHERE id = $1
		UNION
		SELECT c.id FROM comments c JOIN thread t ON c.parent_id = t.id
	)`

// Thread returns the root comment and all its transitive replies that are
// visible, ordered by creation time. Replies below a deleted comment are
// included and keep their parent_id.
func (s *CommentStore) Thread(ctx context.Context, rootID uuid.UUID) ([]models.Comment, error) {
	return s.thread(ctx, rootID, visibleComment)
}

// Subtree returns rootID and every transitive reply regardless of
// visibility, in created_at order. It gives hidden comments' positions so
// visible replies below them can be placed.
func (s *CommentStore) Subtree(ctx context.Context, rootID uuid.UUID) ([]models.Comment, error) {
	return s.thread(ctx, rootID, `TRUE`)
}

func (s *CommentStore) thread(ctx context.Context, rootID uuid.UUID, filter string) ([]models.Comment, error) {
	if _, err := s.FindByID(ctx, rootID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, threadCTE+`
		SELECT `+commentColumnsC+` FROM comments cm JOIN thread t ON t.id = cm.id
		WHERE `+filter+`
		ORDER BY cm.created_at ASC, cm.id`, rootID)
	if err != nil {
		return nil, mapError("comment thread", err)
	}
	return collect(rows, "comment thread", scanComment)
}

func (s *CommentStore) page(ctx context.Context, op, where string, args []any, spec sortSpec, p PageRequest) (*Page[models.Comment], error) {
	return pageQuery(ctx, s.db, op,
		`SELECT COUNT(*) FROM comments cm WHERE `+where,
		`SELECT `+commentColumnsC+` FROM comments cm WHERE `+where,
		args, spec, "cm.id", p, scanComment)
}

// VisibleByBlog returns every visible comment on a blog.
func (s *CommentStore) VisibleByBlog(ctx context.Context, blogID uuid.UUID, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "comments by blog", `cm.blog_id = $1 AND `+visibleComment, []any{blogID}, commentSortSpec, p)
}

// TopLevelByBlog returns visible comments attached directly to the blog.
func (s *CommentStore) TopLevelByBlog(ctx context.Context, blogID uuid.UUID, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "top-level comments",
		`cm.blog_id = $1 AND cm.parent_id IS NULL AND `+visibleComment, []any{blogID}, commentSortSpec, p)
}

// Replies returns visible direct replies of a comment.
func (s *CommentStore) Replies(ctx context.Context, parentID uuid.UUID, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "comment replies",
		`cm.parent_id = $1 AND `+visibleComment, []any{parentID}, commentSortSpec, p)
}

// ByAuthor returns an author's comments that are not deleted.
func (s *CommentStore) ByAuthor(ctx context.Context, authorID uuid.UUID, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "comments by author",
		`cm.author_id = $1 AND NOT cm.is_deleted`, []any{authorID}, newestCommentSort, p)
}

// AwaitingApproval returns comments held for moderation.
func (s *CommentStore) AwaitingApproval(ctx context.Context, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "comments awaiting approval",
		`NOT cm.is_approved AND NOT cm.is_deleted`, nil, commentSortSpec, p)
}

// Trending ranks visible comments created at or after since by
// likes*0.6 + replies*0.4.
func (s *CommentStore) Trending(ctx context.Context, since time.Time, p PageRequest) (*Page[models.Comment], error) {
	p.Sort = ""
	return s.page(ctx, "trending comments",
		`cm.created_at >= $1 AND `+visibleComment, []any{since}, trendingCommentSort, p)
}

// Search matches visible comment content case-insensitively.
func (s *CommentStore) Search(ctx context.Context, query string, p PageRequest) (*Page[models.Comment], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.E(apperr.Validation, "search query is required")
	}
	return s.page(ctx, "search comments",
		`cm.content ILIKE '%' || $1 || '%' AND `+visibleComment, []any{escapeLike(query)}, newestCommentSort, p)
}

// LowEngagement returns visible comments older than before with no likes
// and no replies.
func (s *CommentStore) LowEngagement(ctx context.Context, before time.Time, p PageRequest) (*Page[models.Comment], error) {
	return s.page(ctx, "low engagement comments",
		`cm.likes_count = 0 AND cm.replies_count = 0 AND cm.created_at < $1 AND `+visibleComment,
		[]any{before}, commentSortSpec, p)
}

// ConversationParticipants returns the distinct authors of visible comments
// on a blog, excluding one user.
func (s *CommentStore) ConversationParticipants(ctx context.Context, blogID, exclude uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT cm.author_id FROM comments cm
		WHERE cm.blog_id = $1 AND cm.author_id <> $2 AND `+visibleComment, blogID, exclude)
	if err != nil {
		return nil, mapError("conversation participants", err)
	}
	return collectIDs(rows, "conversation participants")
}

// Edit replaces the content if the version matches and marks the comment
// edited. Deleted comments cannot be edited.
func (s *CommentStore) Edit(ctx context.Context, id uuid.UUID, version int64, content string, reason *string, by string) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE comments SET content = $3, is_edited = TRUE, edit_reason = $4,
			modified_by = $5, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND NOT is_deleted
		RETURNING `+commentColumns, id, version, content, reason, nullString(by))
	c, err := scanComment(row)
	if err != nil {
		if isNoRows(err) {
			if cur, ferr := s.FindByID(ctx, id); ferr == nil && cur.IsDeleted {
				return nil, apperr.E(apperr.Validation, "deleted comments cannot be edited")
			}
			return nil, versionMismatch(ctx, s.db, "comments", id, "comment")
		}
		return nil, mapError("edit comment", err)
	}
	return c, nil
}

// changes collects CommentChange rows returned by an UPDATE.
func changes(rows *sql.Rows) ([]CommentChange, error) {
	defer rows.Close()
	var out []CommentChange
	for rows.Next() {
		var ch CommentChange
		if err := rows.Scan(&ch.ID, &ch.BlogID, &ch.ParentID); err != nil {
			return nil, fmt.Errorf("scan comment change: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// SoftDelete blanks the given comments and flags them deleted in one
// statement. Rows stay in place so replies keep their parent. The result
// lists the comments that were visible before, whose counters must drop.
func (s *CommentStore) SoftDelete(ctx context.Context, ids []uuid.UUID, by string) ([]CommentChange, error) {
	if err := requireIDs(ids); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		WITH target AS (
			SELECT id, is_approved FROM comments
			WHERE id = ANY($1::uuid[]) AND NOT is_deleted
			FOR UPDATE
		), upd AS (
			UPDATE comments c SET is_deleted = TRUE, content = $2,
				modified_by = $3, version = c.version + 1, updated_at = NOW()
			FROM target WHERE c.id = target.id
			RETURNING c.id, c.blog_id, c.parent_id, target.is_approved AS was_visible
		)
		SELECT id, blog_id, parent_id FROM upd WHERE was_visible`,
		uuidStrings(ids), models.DeletedCommentContent, nullString(by))
	if err != nil {
		return nil, mapError("soft delete comments", err)
	}
	return changes(rows)
}

// SetApproved approves or rejects the given comments in one statement. Only
// comments whose flag actually flips and that are not deleted are returned.
func (s *CommentStore) SetApproved(ctx context.Context, ids []uuid.UUID, approved bool, by string) ([]CommentChange, error) {
	if err := requireIDs(ids); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		UPDATE comments SET is_approved = $2, modified_by = $3, version = version + 1, updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND is_approved <> $2 AND NOT is_deleted
		RETURNING id, blog_id, parent_id`,
		uuidStrings(ids), approved, nullString(by))
	if err != nil {
		return nil, mapError("set comment approval", err)
	}
	return changes(rows)
}

// VisibleInSubtree counts visible comments in the thread rooted at id,
// including id itself.
func (s *CommentStore) VisibleInSubtree(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, threadCTE+`
		SELECT COUNT(*) FROM comments cm JOIN thread t ON t.id = cm.id WHERE `+visibleComment, id).Scan(&n)
	if err != nil {
		return 0, mapError("count subtree", err)
	}
	return n, nil
}

// HardDelete removes a comment and, by cascade, its replies and likes.
func (s *CommentStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete comment", err)
	}
	return mustAffect(res, "comment")
}

// CommentStats aggregates comment moderation state.
type CommentStats struct {
	Total    int64 `json:"total"`
	Visible  int64 `json:"visible"`
	Pending  int64 `json:"pending"`
	Deleted  int64 `json:"deleted"`
	Edited   int64 `json:"edited"`
	TopLevel int64 `json:"top_level"`
}

// Stats aggregates over all comments, or one blog's when blogID is set.
func (s *CommentStore) Stats(ctx context.Context, blogID *uuid.UUID) (*CommentStats, error) {
	var st CommentStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_deleted AND is_approved),
			COUNT(*) FILTER (WHERE NOT is_deleted AND NOT is_approved),
			COUNT(*) FILTER (WHERE is_deleted),
			COUNT(*) FILTER (WHERE is_edited),
			COUNT(*) FILTER (WHERE parent_id IS NULL)
		FROM comments WHERE $1::uuid IS NULL OR blog_id = $1`, blogID,
	).Scan(&st.Total, &st.Visible, &st.Pending, &st.Deleted, &st.Edited, &st.TopLevel)
	if err != nil {
		return nil, mapError("comment stats", err)
	}
	return &st, nil
}
