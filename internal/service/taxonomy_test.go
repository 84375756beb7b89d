// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blognest/internal/apperr"
	"blognest/internal/models"
	"blognest/internal/store"
	"blognest/internal/testdb"
)

func TestCategoryMoves(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mod := e.user(t, models.RoleModerator)
	author := e.user(t, models.RoleUser)
	tax := NewTaxonomy(e.deps)

	_, err := tax.CreateCategory(ctx, author, CategoryInput{Name: "nope"})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
	_, err = tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("Bad"), Color: ptr("red")})
	assert.True(t, apperr.Is(err, apperr.Validation))

	a, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("A")})
	require.NoError(t, err)
	b, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("B"), ParentID: &a.ID})
	require.NoError(t, err)
	c, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("C"), ParentID: &b.ID})
	require.NoError(t, err)
	sibling, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("B2"), ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, b.SortOrder+1, sibling.SortOrder)

	_, err = NewBlogs(e.deps).Create(ctx, author, BlogInput{Title: "filed", Content: "x", CategoryID: &c.ID})
	require.NoError(t, err)

	_, err = tax.MoveCategory(ctx, mod, a.ID, &c.ID)
	assert.True(t, apperr.Is(err, apperr.Validation), "cycle")

	moved, err := tax.MoveCategory(ctx, mod, c.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.EqualValues(t, 0, e.counter(t, store.CategorySubtree, a.ID))
	assert.EqualValues(t, 1, e.counter(t, store.CategorySubtree, c.ID))

	updated, err := tax.UpdateCategory(ctx, mod, c.ID, moved.Version, CategoryInput{Color: ptr("#112233"), ParentID: &sibling.ID})
	require.NoError(t, err)
	assert.Equal(t, sibling.ID, *updated.ParentID)
	assert.EqualValues(t, 1, e.counter(t, store.CategorySubtree, a.ID))

	assert.True(t, apperr.Is(tax.DeleteCategory(ctx, mod, c.ID), apperr.Conflict), "has a blog")
	require.NoError(t, tax.DeleteCategory(ctx, mod, b.ID))
}

func TestTagAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mod := e.user(t, models.RoleModerator)
	tax := NewTaxonomy(e.deps)
	name := testdb.Unique("Golang")

	tag, err := tax.CreateTag(ctx, mod, TagInput{Name: name})
	require.NoError(t, err)
	_, err = tax.CreateTag(ctx, mod, TagInput{Name: name})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	tag, err = tax.UpdateTag(ctx, mod, tag.Slug, tag.Version, TagInput{Description: ptr("the language")})
	require.NoError(t, err)
	assert.Equal(t, "the language", *tag.Description)

	require.NoError(t, tax.DeleteTag(ctx, mod, tag.Slug))
	assert.True(t, apperr.Is(tax.DeleteTag(ctx, mod, tag.Slug), apperr.NotFound))
}
