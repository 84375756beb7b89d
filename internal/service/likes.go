// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/models"
	"blognest/internal/store"
)

// Likes records likes on blogs and comments.
type Likes struct {
	base
}

// NewLikes wires the like service.
func NewLikes(d Deps) *Likes {
	return &Likes{base: newBase(d)}
}

// Like records the caller's like on target and tells its author. Liking
// twice is a Conflict.
func (s *Likes) Like(ctx context.Context, p *auth.Principal, target models.LikeTarget) (*models.Like, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var like *models.Like
	err := s.inTx(ctx, func(o *outbox) error {
		n, err := likeNotification(ctx, o, p, target)
		if err != nil {
			return err
		}
		if like, err = store.NewLikeStore(o.tx).Create(ctx, p.UserID, target); err != nil {
			return err
		}
		return o.notify(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

// likeNotification checks that target accepts likes and builds the
// notification for its author.
func likeNotification(ctx context.Context, o *outbox, p *auth.Principal, target models.LikeTarget) (*models.Notification, error) {
	blogs := store.NewBlogStore(o.tx)
	switch t := target.(type) {
	case models.BlogTarget:
		b, err := blogs.FindByID(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if !b.Status.CanReceiveInteractions() {
			return nil, apperr.E(apperr.Validation, "only published blogs can be liked")
		}
		n := models.NewNotification(b.AuthorID, models.NotifyBlogLiked)
		n.ActorID = &p.UserID
		n.RelatedBlogID = &b.ID
		n.Message = p.Username + " liked \"" + b.Title + "\""
		return n, nil
	case models.CommentTarget:
		c, err := store.NewCommentStore(o.tx).FindByID(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if !c.IsVisible() {
			return nil, apperr.E(apperr.Validation, "deleted or unapproved comments cannot be liked")
		}
		b, err := blogs.FindByID(ctx, c.BlogID)
		if err != nil {
			return nil, err
		}
		if !b.Status.CanReceiveInteractions() {
			return nil, apperr.E(apperr.Validation, "the comment's blog is not published")
		}
		n := models.NewNotification(c.AuthorID, models.NotifyCommentLiked)
		n.ActorID = &p.UserID
		n.RelatedBlogID = &b.ID
		n.RelatedCommentID = &c.ID
		n.Message = p.Username + " liked your comment"
		return n, nil
	default:
		return nil, apperr.E(apperr.Validation, "unknown like target")
	}
}

// Unlike removes the caller's like. A missing like is NotFound.
func (s *Likes) Unlike(ctx context.Context, p *auth.Principal, target models.LikeTarget) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error {
		return store.NewLikeStore(o.tx).Delete(ctx, p.UserID, target)
	})
}
