// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blognest/internal/apperr"
	"blognest/internal/models"
	"blognest/internal/store"
	"blognest/internal/testdb"
)

func TestBlogLifecycleKeepsCounters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, models.RoleUser)
	mod := e.user(t, models.RoleModerator)
	tax := NewTaxonomy(e.deps)
	blogs := NewBlogs(e.deps)

	root, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("Root")})
	require.NoError(t, err)
	leaf, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("Leaf"), ParentID: &root.ID})
	require.NoError(t, err)
	other, err := tax.CreateCategory(ctx, mod, CategoryInput{Name: testdb.Unique("Other")})
	require.NoError(t, err)

	tagA, tagB := testdb.Unique("go"), testdb.Unique("sql")
	b, err := blogs.Create(ctx, author, BlogInput{
		Title:      "Counting things",
		Content:    "a body long enough to count",
		CategoryID: &leaf.ID,
		Tags:       []string{tagA, tagB, tagA},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusDraft, b.Status)
	assert.Len(t, b.Tags, 2, "duplicate tag names collapse")
	assert.EqualValues(t, 1, e.counter(t, store.UserBlogs, author.UserID))
	assert.EqualValues(t, 1, e.counter(t, store.CategoryBlogs, leaf.ID))
	assert.EqualValues(t, 1, e.counter(t, store.CategorySubtree, root.ID))

	tag, err := store.NewTagStore(e.db).FindBySlug(ctx, tagA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tag.UsageCount)

	b, err = blogs.Update(ctx, author, b.ID, b.Version, BlogInput{CategoryID: &other.ID, Tags: []string{tagB}})
	require.NoError(t, err)
	assert.Len(t, b.Tags, 1)
	assert.EqualValues(t, 0, e.counter(t, store.CategoryBlogs, leaf.ID))
	assert.EqualValues(t, 0, e.counter(t, store.CategorySubtree, root.ID))
	assert.EqualValues(t, 1, e.counter(t, store.CategoryBlogs, other.ID))
	assert.EqualValues(t, 0, e.counter(t, store.TagUsage, tag.ID))

	_, err = blogs.Update(ctx, author, b.ID, b.Version-1, BlogInput{Title: "stale"})
	assert.True(t, apperr.Is(err, apperr.Concurrency), "got %v", err)

	require.NoError(t, blogs.Delete(ctx, author, b.ID))
	assert.EqualValues(t, 0, e.counter(t, store.UserBlogs, author.UserID))
	assert.EqualValues(t, 0, e.counter(t, store.CategoryBlogs, other.ID))
	tagBRow, err := store.NewTagStore(e.db).FindBySlug(ctx, tagB)
	require.NoError(t, err)
	assert.EqualValues(t, 0, tagBRow.UsageCount)
}

func TestBlogSlugCollision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, models.RoleUser)
	blogs := NewBlogs(e.deps)
	title := testdb.Unique("Same Title")

	first, err := blogs.Create(ctx, author, BlogInput{Title: title, Content: "one"})
	require.NoError(t, err)
	second, err := blogs.Create(ctx, author, BlogInput{Title: title, Content: "two"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, first.Slug)
}

func TestBlogTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, models.RoleUser)
	stranger := e.user(t, models.RoleUser)
	blogs := NewBlogs(e.deps)

	b, err := blogs.Create(ctx, author, BlogInput{Title: "Transitions", Content: "body"})
	require.NoError(t, err)

	_, err = blogs.Publish(ctx, stranger, b.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = blogs.Schedule(ctx, author, b.ID, e.clock.Now().Add(-time.Minute))
	assert.True(t, apperr.Is(err, apperr.Validation), "past schedule")

	b, err = blogs.Archive(ctx, author, b.ID)
	require.NoError(t, err)
	_, err = blogs.Publish(ctx, author, b.ID)
	assert.True(t, apperr.Is(err, apperr.Validation), "archived cannot publish directly")

	b, err = blogs.MakeDraft(ctx, author, b.ID)
	require.NoError(t, err)
	b, err = blogs.Publish(ctx, author, b.ID)
	require.NoError(t, err)
	require.NotNil(t, b.PublishedAt)
	assert.True(t, b.PublishedAt.Equal(e.clock.Now()))

	_, err = blogs.Update(ctx, author, b.ID, b.Version, BlogInput{Title: "edited live"})
	assert.True(t, apperr.Is(err, apperr.Validation), "published blogs are edited through draft")

	got, err := blogs.Get(ctx, nil, b.Slug)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	b, err = blogs.MakeDraft(ctx, author, b.ID)
	require.NoError(t, err)
	assert.Nil(t, b.PublishedAt)
	_, err = blogs.Get(ctx, stranger, b.Slug)
	assert.True(t, apperr.Is(err, apperr.NotFound), "drafts are hidden from others")
	_, err = blogs.Get(ctx, author, b.Slug)
	assert.NoError(t, err)
}

func TestSweepPublishesDueBlogs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, models.RoleUser)
	blogs := NewBlogs(e.deps)

	b, err := blogs.Create(ctx, author, BlogInput{Title: "Later", Content: "body"})
	require.NoError(t, err)
	at := e.clock.Now().Add(time.Hour)
	_, err = blogs.Schedule(ctx, author, b.ID, at)
	require.NoError(t, err)
	// Rescheduling a scheduled blog is allowed.
	_, err = blogs.Schedule(ctx, author, b.ID, at)
	require.NoError(t, err)
	e.drain(t)

	e.clock.Advance(2 * time.Hour)
	published, err := blogs.Sweep(ctx)
	require.NoError(t, err)
	var ids []string
	for _, p := range published {
		ids = append(ids, p.ID.String())
	}
	assert.Contains(t, ids, b.ID.String())

	got, err := store.NewBlogStore(e.db).FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BlogStatusPublished, got.Status)
	assert.Nil(t, got.ScheduledAt)
	assert.Contains(t, eventsFor(e.drain(t), author.UserID), models.NotifyBlogPublished)

	again, err := blogs.Sweep(ctx)
	require.NoError(t, err)
	for _, p := range again {
		assert.NotEqual(t, b.ID, p.ID, "published once")
	}
}

func TestSetFeatured(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	author := e.user(t, models.RoleUser)
	mod := e.user(t, models.RoleModerator)
	blogs := NewBlogs(e.deps)
	b := e.publishedBlog(t, author)
	e.drain(t)

	assert.True(t, apperr.Is(blogs.SetFeatured(ctx, author, b.ID, true), apperr.Forbidden))
	require.NoError(t, blogs.SetFeatured(ctx, mod, b.ID, true))
	assert.Equal(t, []models.NotificationType{models.NotifyBlogFeatured}, eventsFor(e.drain(t), author.UserID))

	require.NoError(t, blogs.RecordView(ctx, b.ID))
	assert.EqualValues(t, 1, e.counter(t, store.BlogViews, b.ID))
}
