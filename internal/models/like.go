// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TargetKind names what a like points at.
type TargetKind string

const (
	TargetBlog    TargetKind = "blog"
	TargetComment TargetKind = "comment"
)

// LikeTarget is either a BlogTarget or a CommentTarget. The unexported
// method closes the set.
type LikeTarget interface {
	Kind() TargetKind
	TargetID() uuid.UUID
	isLikeTarget()
}

// BlogTarget points a like at a blog.
type BlogTarget struct{ ID uuid.UUID }

func (t BlogTarget) Kind() TargetKind    { return TargetBlog }
func (t BlogTarget) TargetID() uuid.UUID { return t.ID }
func (BlogTarget) isLikeTarget()         {}

// CommentTarget points a like at a comment.
type CommentTarget struct{ ID uuid.UUID }

func (t CommentTarget) Kind() TargetKind    { return TargetComment }
func (t CommentTarget) TargetID() uuid.UUID { return t.ID }
func (CommentTarget) isLikeTarget()         {}

// ParseLikeTarget builds a target from a kind name and id.
func ParseLikeTarget(kind string, id uuid.UUID) (LikeTarget, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("like target id is required")
	}
	switch TargetKind(kind) {
	case TargetBlog:
		return BlogTarget{ID: id}, nil
	case TargetComment:
		return CommentTarget{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown like target %q", kind)
	}
}

// LikeTargetFromColumns rebuilds a target from the nullable blog_id and
// comment_id columns. Exactly one must be set.
func LikeTargetFromColumns(blogID, commentID *uuid.UUID) (LikeTarget, error) {
	switch {
	case blogID != nil && commentID == nil:
		return BlogTarget{ID: *blogID}, nil
	case commentID != nil && blogID == nil:
		return CommentTarget{ID: *commentID}, nil
	case blogID == nil:
		return nil, fmt.Errorf("like has neither blog nor comment")
	default:
		return nil, fmt.Errorf("like has both blog and comment")
	}
}

// Columns splits a target into the blog_id and comment_id column values.
func Columns(t LikeTarget) (blogID, commentID *uuid.UUID) {
	id := t.TargetID()
	switch t.Kind() {
	case TargetBlog:
		return &id, nil
	default:
		return nil, &id
	}
}

// Like is a user's like on a blog or comment.
type Like struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Target    LikeTarget `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// MarshalJSON flattens the target into target_type and target_id.
func (l Like) MarshalJSON() ([]byte, error) {
	out := struct {
		ID         uuid.UUID  `json:"id"`
		UserID     uuid.UUID  `json:"user_id"`
		TargetType TargetKind `json:"target_type"`
		TargetID   uuid.UUID  `json:"target_id"`
		CreatedAt  time.Time  `json:"created_at"`
	}{ID: l.ID, UserID: l.UserID, CreatedAt: l.CreatedAt}
	if l.Target != nil {
		out.TargetType = l.Target.Kind()
		out.TargetID = l.Target.TargetID()
	}
	return json.Marshal(out)
}
