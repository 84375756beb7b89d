// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"github.com/google/uuid"
)

// DefaultCategoryColor is used when neither a category nor any of its
// ancestors defines a color.
const DefaultCategoryColor = "#6B7280"

// Category is a node in the self-referencing category tree. BlogCount counts
// blogs assigned directly to this node; SubtreeBlogCount counts blogs
// assigned to this node or any descendant.
type Category struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Description      *string    `json:"description,omitempty"`
	Color            *string    `json:"color,omitempty"`
	Icon             *string    `json:"icon,omitempty"`
	IsActive         bool       `json:"is_active"`
	ParentID         *uuid.UUID `json:"parent_id"`
	SortOrder        int        `json:"sort_order"`
	BlogCount        int64      `json:"blog_count"`
	SubtreeBlogCount int64      `json:"subtree_blog_count"`
	Audit

	// Virtual fields populated by store methods.
	Children []Category `json:"children,omitempty"`
	Depth    int        `json:"depth"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool { return c.ParentID == nil }

// HasChildren reports whether loaded children exist.
func (c *Category) HasChildren() bool { return len(c.Children) > 0 }

// OwnColor returns the color set on the node itself, or "".
func (c *Category) OwnColor() string {
	if c.Color == nil {
		return ""
	}
	return *c.Color
}
