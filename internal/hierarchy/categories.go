// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"strings"

	"github.com/google/uuid"

	"blognest/internal/models"
)

// PathSeparator joins category names in FullPath.
const PathSeparator = " > "

// Categories is a forest of categories keyed by id.
type Categories struct {
	*Forest[uuid.UUID, models.Category]
}

// NewCategories indexes a flat category list.
func NewCategories(flat []models.Category) Categories {
	return Categories{New(flat,
		func(c models.Category) uuid.UUID { return c.ID },
		func(c models.Category) (uuid.UUID, bool) {
			if c.ParentID == nil {
				return uuid.Nil, false
			}
			return *c.ParentID, true
		},
	)}
}

// Tree nests every root with Children and Depth filled in.
func (c Categories) Tree() []models.Category {
	return c.Nest(func(cat models.Category, children []models.Category, depth int) models.Category {
		cat.Children = children
		cat.Depth = depth
		return cat
	})
}

// TotalBlogCount sums the direct blog counts over the subtree at id.
func (c Categories) TotalBlogCount(id uuid.UUID) int64 {
	return c.SubtreeSum(id, func(cat models.Category) int64 { return cat.BlogCount })
}

// EffectiveColor returns the color of the nearest ancestor-or-self that
// defines one, or DefaultCategoryColor.
func (c Categories) EffectiveColor(id uuid.UUID) string {
	self, ok := c.Get(id)
	if !ok {
		return models.DefaultCategoryColor
	}
	if col := self.OwnColor(); col != "" {
		return col
	}
	anc := c.Ancestors(id)
	for i := len(anc) - 1; i >= 0; i-- {
		if col := anc[i].OwnColor(); col != "" {
			return col
		}
	}
	return models.DefaultCategoryColor
}

// FullPath renders "Root > Child > Leaf" for id.
func (c Categories) FullPath(id uuid.UUID) string {
	self, ok := c.Get(id)
	if !ok {
		return ""
	}
	anc := c.Ancestors(id)
	names := make([]string, 0, len(anc)+1)
	for _, a := range anc {
		names = append(names, a.Name)
	}
	names = append(names, self.Name)
	return strings.Join(names, PathSeparator)
}
