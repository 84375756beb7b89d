// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"github.com/google/uuid"

	"blognest/internal/models"
)

// Thread is a forest of comments keyed by id, nested by ParentID. Replies
// whose parent is not in the list surface as roots.
type Thread struct {
	*Forest[uuid.UUID, models.Comment]
}

// NewThread indexes comments, which should already be in created_at order.
func NewThread(flat []models.Comment) Thread {
	return Thread{New(flat,
		func(c models.Comment) uuid.UUID { return c.ID },
		func(c models.Comment) (uuid.UUID, bool) {
			if c.ParentID == nil {
				return uuid.Nil, false
			}
			return *c.ParentID, true
		},
	)}
}

func attachReplies(c models.Comment, replies []models.Comment, depth int) models.Comment {
	c.Replies = replies
	c.Depth = depth
	return c
}

// Nested returns every root comment with Replies filled in.
func (t Thread) Nested() []models.Comment {
	return t.Nest(attachReplies)
}

// NestedFrom returns the comment id with its replies nested below it.
func (t Thread) NestedFrom(id uuid.UUID) (models.Comment, bool) {
	return t.NestFrom(id, attachReplies)
}

// VisibleFrom nests the visible comments of a subtree below id. all holds
// the whole subtree in created_at order, hidden rows included. A visible
// reply under a deleted or unapproved comment hangs from its nearest visible
// ancestor, keeping its own ParentID. It reports false when id itself is
// hidden or missing.
func VisibleFrom(all []models.Comment, id uuid.UUID) (models.Comment, bool) {
	byID := make(map[uuid.UUID]*models.Comment, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	if c, ok := byID[id]; !ok || !c.IsVisible() {
		return models.Comment{}, false
	}

	shown := make([]models.Comment, 0, len(all))
	anchor := make(map[uuid.UUID]uuid.UUID, len(all))
	for _, c := range all {
		if !c.IsVisible() {
			continue
		}
		shown = append(shown, c)
		if c.ID == id {
			continue
		}
		// Bounded walk: a corrupt parent chain cannot loop forever.
		p := c.ParentID
		for steps := 0; p != nil && steps < len(all); steps++ {
			parent, ok := byID[*p]
			if !ok {
				p = nil
				break
			}
			if parent.IsVisible() {
				break
			}
			p = parent.ParentID
		}
		if p != nil {
			if _, ok := byID[*p]; ok {
				anchor[c.ID] = *p
			}
		}
	}

	forest := New(shown,
		func(c models.Comment) uuid.UUID { return c.ID },
		func(c models.Comment) (uuid.UUID, bool) {
			p, ok := anchor[c.ID]
			return p, ok
		},
	)
	return forest.NestFrom(id, attachReplies)
}
