// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/models"
	"blognest/internal/slug"
	"blognest/internal/store"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Taxonomy manages categories and tags. Writes require a moderator.
type Taxonomy struct {
	base
}

// NewTaxonomy wires the category and tag service.
func NewTaxonomy(d Deps) *Taxonomy {
	return &Taxonomy{base: newBase(d)}
}

// CategoryInput carries the editable category fields.
type CategoryInput struct {
	Name        string
	Slug        string
	Description *string
	Color       *string
	Icon        *string
	IsActive    *bool
	ParentID    *uuid.UUID
}

func (in CategoryInput) validate() error {
	if in.Color != nil && *in.Color != "" && !hexColor.MatchString(*in.Color) {
		return apperr.E(apperr.Validation, "color must look like #RRGGBB")
	}
	return nil
}

// CreateCategory adds a category at the end of its parent's children.
func (s *Taxonomy) CreateCategory(ctx context.Context, p *auth.Principal, in CategoryInput) (*models.Category, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.E(apperr.Validation, "category name is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Category{
		Name:        name,
		Slug:        slugOr(in.Slug, name),
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		IsActive:    in.IsActive == nil || *in.IsActive,
		ParentID:    in.ParentID,
	}
	var created *models.Category
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		categories := store.NewCategoryStore(tx)
		if c.ParentID != nil {
			if _, err := categories.FindByID(ctx, *c.ParentID); err != nil {
				return err
			}
		}
		var err error
		if c.SortOrder, err = categories.NextSortOrder(ctx, c.ParentID); err != nil {
			return err
		}
		created, err = categories.Create(ctx, c, p.Actor())
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func slugOr(requested, name string) string {
	if s := slug.Generate(requested); s != "" {
		return s
	}
	return slug.Generate(name)
}

// UpdateCategory edits descriptive fields at the given version. A changed
// ParentID reparents the category in the same transaction.
func (s *Taxonomy) UpdateCategory(ctx context.Context, p *auth.Principal, id uuid.UUID, version int64, in CategoryInput) (*models.Category, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *models.Category
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		categories := store.NewCategoryStore(tx)
		c, err := categories.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			c.Name = name
		}
		if in.Slug != "" {
			c.Slug = slugOr(in.Slug, c.Name)
		}
		if in.Description != nil {
			c.Description = in.Description
		}
		if in.Color != nil {
			c.Color = in.Color
		}
		if in.Icon != nil {
			c.Icon = in.Icon
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}
		c.Version = version
		if updated, err = categories.Update(ctx, c, p.Actor()); err != nil {
			return err
		}
		if in.ParentID != nil && !uuidPtrEqual(in.ParentID, updated.ParentID) {
			updated, err = categories.Reparent(ctx, id, in.ParentID, p.Actor())
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveCategory puts id under parent, or makes it a root when parent is nil.
// Moving a category below itself or one of its descendants is a Validation
// error.
func (s *Taxonomy) MoveCategory(ctx context.Context, p *auth.Principal, id uuid.UUID, parent *uuid.UUID) (*models.Category, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return nil, err
	}
	var moved *models.Category
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		moved, err = store.NewCategoryStore(tx).Reparent(ctx, id, parent, p.Actor())
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// DeleteCategory removes an empty leaf category.
func (s *Taxonomy) DeleteCategory(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return err
	}
	return store.NewCategoryStore(s.db).Delete(ctx, id)
}

// TagInput carries the editable tag fields.
type TagInput struct {
	Name        string
	Description *string
	Color       *string
	IsActive    *bool
}

// CreateTag adds a tag. Tags are also created implicitly when a blog uses a
// new name.
func (s *Taxonomy) CreateTag(ctx context.Context, p *auth.Principal, in TagInput) (*models.Tag, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	sl := slug.Generate(name)
	if sl == "" {
		return nil, apperr.E(apperr.Validation, "tag name is required")
	}
	if in.Color != nil && *in.Color != "" && !hexColor.MatchString(*in.Color) {
		return nil, apperr.E(apperr.Validation, "color must look like #RRGGBB")
	}
	return store.NewTagStore(s.db).Create(ctx, &models.Tag{
		Name: name, Slug: sl, Description: in.Description, Color: in.Color,
	}, p.Actor())
}

// UpdateTag edits a tag at the given version. The slug never changes.
func (s *Taxonomy) UpdateTag(ctx context.Context, p *auth.Principal, tagSlug string, version int64, in TagInput) (*models.Tag, error) {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return nil, err
	}
	tags := store.NewTagStore(s.db)
	t, err := tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		t.Name = name
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Color != nil {
		if *in.Color != "" && !hexColor.MatchString(*in.Color) {
			return nil, apperr.E(apperr.Validation, "color must look like #RRGGBB")
		}
		t.Color = in.Color
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	t.Version = version
	return tags.Update(ctx, t, p.Actor())
}

// DeleteTag removes a tag and unlinks it from every blog.
func (s *Taxonomy) DeleteTag(ctx context.Context, p *auth.Principal, tagSlug string) error {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return err
	}
	tags := store.NewTagStore(s.db)
	t, err := tags.FindBySlug(ctx, tagSlug)
	if err != nil {
		return err
	}
	return tags.Delete(ctx, t.ID)
}
