// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/hierarchy"
	"blognest/internal/models"
	"blognest/internal/store"
)

// Comments handles threads, replies and moderation. blogs.comments_count
// and comments.replies_count count visible comments only, so every change
// in visibility moves them.
type Comments struct {
	base
	// RequireApproval holds new comments for moderation.
	RequireApproval bool
}

// NewComments wires the comment service.
func NewComments(d Deps) *Comments {
	return &Comments{base: newBase(d)}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.E(apperr.Validation, "comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", apperr.E(apperr.Validation, "comment is too long (max %d characters)", models.MaxCommentLength)
	}
	return content, nil
}

// Create adds a top-level comment, or a reply when parentID is set. The
// parent must belong to the same blog and be visible.
func (s *Comments) Create(ctx context.Context, p *auth.Principal, blogID uuid.UUID, parentID *uuid.UUID, content string) (*models.Comment, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	var created *models.Comment
	err = s.inTx(ctx, func(o *outbox) error {
		b, err := store.NewBlogStore(o.tx).FindByID(ctx, blogID)
		if err != nil {
			return err
		}
		if !b.Status.CanReceiveInteractions() {
			return apperr.E(apperr.Validation, "comments are only accepted on published blogs")
		}
		if !b.IsCommentsEnabled {
			return apperr.E(apperr.Validation, "comments are disabled for this blog")
		}

		comments := store.NewCommentStore(o.tx)
		var parent *models.Comment
		if parentID != nil {
			if parent, err = comments.LockForUpdate(ctx, *parentID); err != nil {
				return err
			}
			if parent.BlogID != blogID {
				return apperr.E(apperr.Validation, "parent comment belongs to another blog")
			}
			if !parent.IsVisible() {
				return apperr.E(apperr.Validation, "cannot reply to a deleted or unapproved comment")
			}
		}

		created, err = comments.Create(ctx, &models.Comment{
			BlogID:     blogID,
			AuthorID:   p.UserID,
			ParentID:   parentID,
			Content:    content,
			IsApproved: !s.RequireApproval || p.Role.CanModerate(),
		}, p.Actor())
		if err != nil {
			return err
		}
		if !created.IsVisible() {
			return nil
		}
		if err := applyVisibility(ctx, o.tx, []store.CommentChange{{ID: created.ID, BlogID: blogID, ParentID: parentID}}, 1); err != nil {
			return err
		}
		return s.notifyNewComment(ctx, o, p, b, parent, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// notifyNewComment tells the blog author and the parent comment's author.
// Nobody is told twice.
func (s *Comments) notifyNewComment(ctx context.Context, o *outbox, p *auth.Principal, b *models.Blog, parent, c *models.Comment) error {
	told := map[uuid.UUID]bool{p.UserID: true}
	if parent != nil && !told[parent.AuthorID] {
		n := models.NewNotification(parent.AuthorID, models.NotifyCommentReplied)
		n.ActorID = &p.UserID
		n.RelatedBlogID = &b.ID
		n.RelatedCommentID = &c.ID
		n.Message = p.Username + " replied to your comment on \"" + b.Title + "\""
		if err := o.notify(ctx, n); err != nil {
			return err
		}
		told[parent.AuthorID] = true
	}
	if !told[b.AuthorID] {
		n := models.NewNotification(b.AuthorID, models.NotifyBlogCommented)
		n.ActorID = &p.UserID
		n.RelatedBlogID = &b.ID
		n.RelatedCommentID = &c.ID
		n.Message = p.Username + " commented on \"" + b.Title + "\""
		return o.notify(ctx, n)
	}
	return nil
}

// applyVisibility moves blog and parent counters by delta for each change.
func applyVisibility(ctx context.Context, tx *sql.Tx, changes []store.CommentChange, delta int64) error {
	blogs := make(map[uuid.UUID]int64)
	parents := make(map[uuid.UUID]int64)
	for _, ch := range changes {
		blogs[ch.BlogID] += delta
		if ch.ParentID != nil {
			parents[*ch.ParentID] += delta
		}
	}
	if err := store.AdjustByCount(ctx, tx, store.BlogComments, blogs); err != nil {
		return err
	}
	return store.AdjustByCount(ctx, tx, store.CommentReplies, parents)
}

// Edit replaces the content of the caller's own comment.
func (s *Comments) Edit(ctx context.Context, p *auth.Principal, id uuid.UUID, version int64, content string, reason *string) (*models.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	comments := store.NewCommentStore(s.db)
	c, err := comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if c.AuthorID != p.UserID {
		return nil, apperr.E(apperr.Forbidden, "only the author can edit a comment")
	}
	c.Edit(content, reason)
	return comments.Edit(ctx, id, version, c.Content, c.EditReason, p.Actor())
}

// Delete soft-deletes a comment. Authors may delete their own; moderators
// any. Replies stay attached to the placeholder.
func (s *Comments) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	return s.inTx(ctx, func(o *outbox) error {
		c, err := store.NewCommentStore(o.tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireOwnerOr(p, c.AuthorID, models.RoleModerator); err != nil {
			return err
		}
		if c.IsDeleted {
			return nil
		}
		return s.softDelete(ctx, o, p, []uuid.UUID{id})
	})
}

func (s *Comments) softDelete(ctx context.Context, o *outbox, p *auth.Principal, ids []uuid.UUID) error {
	changes, err := store.NewCommentStore(o.tx).SoftDelete(ctx, ids, p.Actor())
	if err != nil {
		return err
	}
	return applyVisibility(ctx, o.tx, changes, -1)
}

// BulkDelete soft-deletes many comments. Moderators only.
func (s *Comments) BulkDelete(ctx context.Context, p *auth.Principal, ids []uuid.UUID) error {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error { return s.softDelete(ctx, o, p, ids) })
}

// HardDelete removes a comment and its whole reply subtree. Moderators only.
func (s *Comments) HardDelete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error {
		comments := store.NewCommentStore(o.tx)
		c, err := comments.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		visible, err := comments.VisibleInSubtree(ctx, id)
		if err != nil {
			return err
		}
		if err := store.Adjust(ctx, o.tx, store.BlogComments, c.BlogID, -visible); err != nil {
			return err
		}
		if c.ParentID != nil && c.IsVisible() {
			if err := store.Decrement(ctx, o.tx, store.CommentReplies, *c.ParentID); err != nil {
				return err
			}
		}
		return comments.HardDelete(ctx, id)
	})
}

// Approve makes held comments visible. Moderators only.
func (s *Comments) Approve(ctx context.Context, p *auth.Principal, ids []uuid.UUID) (int, error) {
	return s.moderate(ctx, p, ids, true)
}

// Reject hides comments from readers. Moderators only.
func (s *Comments) Reject(ctx context.Context, p *auth.Principal, ids []uuid.UUID) (int, error) {
	return s.moderate(ctx, p, ids, false)
}

func (s *Comments) moderate(ctx context.Context, p *auth.Principal, ids []uuid.UUID, approve bool) (int, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return 0, err
	}
	var changed int
	err := s.inTx(ctx, func(o *outbox) error {
		comments := store.NewCommentStore(o.tx)
		changes, err := comments.SetApproved(ctx, ids, approve, p.Actor())
		if err != nil {
			return err
		}
		changed = len(changes)
		delta, kind := int64(1), models.NotifyCommentApproved
		if !approve {
			delta, kind = -1, models.NotifyCommentRejected
		}
		if err := applyVisibility(ctx, o.tx, changes, delta); err != nil {
			return err
		}
		for _, ch := range changes {
			c, err := comments.FindByID(ctx, ch.ID)
			if err != nil {
				return err
			}
			n := models.NewNotification(c.AuthorID, kind)
			n.ActorID = &p.UserID
			n.RelatedBlogID = ptr(ch.BlogID)
			n.RelatedCommentID = ptr(ch.ID)
			if err := o.notify(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	return changed, err
}

// Thread returns rootID and its visible transitive replies nested into a
// tree. Deleted and unapproved comments are left out; replies below them
// move up to their nearest visible ancestor.
func (s *Comments) Thread(ctx context.Context, rootID uuid.UUID) (*models.Comment, error) {
	all, err := store.NewCommentStore(s.db).Subtree(ctx, rootID)
	if err != nil {
		return nil, err
	}
	root, ok := hierarchy.VisibleFrom(all, rootID)
	if !ok {
		return nil, apperr.E(apperr.NotFound, "comment not found")
	}
	return &root, nil
}
