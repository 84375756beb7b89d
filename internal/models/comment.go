// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"

	"github.com/google/uuid"
)

// DeletedCommentContent replaces the body of a soft-deleted comment.
const DeletedCommentContent = "[Comment deleted]"

// MaxCommentLength bounds comment bodies.
const MaxCommentLength = 2000

// Comment is a node in a blog's comment thread. Soft-deleted comments keep
// their row so replies stay attached.
type Comment struct {
	ID           uuid.UUID  `json:"id"`
	BlogID       uuid.UUID  `json:"blog_id"`
	AuthorID     uuid.UUID  `json:"author_id"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	Content      string     `json:"content"`
	IsDeleted    bool       `json:"is_deleted"`
	IsApproved   bool       `json:"is_approved"`
	IsEdited     bool       `json:"is_edited"`
	EditReason   *string    `json:"edit_reason,omitempty"`
	LikesCount   int64      `json:"likes_count"`
	RepliesCount int64      `json:"replies_count"`
	Audit

	// Populated when a thread is nested.
	Replies []Comment `json:"replies,omitempty"`
	Depth   int       `json:"depth"`
}

// IsTopLevel reports whether the comment is attached directly to the blog.
func (c *Comment) IsTopLevel() bool { return c.ParentID == nil }

// HasReplies reports whether the comment has at least one reply.
func (c *Comment) HasReplies() bool { return c.RepliesCount > 0 }

// IsVisible reports whether the comment may be served publicly.
func (c *Comment) IsVisible() bool { return !c.IsDeleted && c.IsApproved }

// SoftDelete blanks the content and flags the comment deleted.
func (c *Comment) SoftDelete() {
	c.IsDeleted = true
	c.Content = DeletedCommentContent
}

// Edit replaces the content and records the edit.
func (c *Comment) Edit(content string, reason *string) {
	c.Content = content
	c.IsEdited = true
	if reason != nil && strings.TrimSpace(*reason) != "" {
		r := strings.TrimSpace(*reason)
		c.EditReason = &r
	}
}
