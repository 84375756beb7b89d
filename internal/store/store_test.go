// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides fixtures shared by the store integration tests.
// Every fixture uses unique names so tests can share one database.
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"blognest/internal/models"
	"blognest/internal/testdb"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	return testdb.Open(t)
}

func newUser(t *testing.T, db DBTX) *models.User {
	t.Helper()
	name := testdb.Unique("user")
	u, err := NewUserStore(db).Create(context.Background(), NewUser{
		Username: name,
		Email:    name + "@store-test.local",
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func newBlog(t *testing.T, db DBTX, author uuid.UUID, status models.BlogStatus) *models.Blog {
	t.Helper()
	b := models.NewBlog(author, "Store test blog", "some words for the body of this blog")
	b.Slug = testdb.Unique("blog")
	now := time.Now().UTC()
	switch status {
	case models.BlogStatusPublished:
		require.NoError(t, b.Publish(now))
	case models.BlogStatusScheduled:
		require.NoError(t, b.Schedule(now.Add(time.Hour), now))
	case models.BlogStatusArchived:
		require.NoError(t, b.Archive())
	}
	created, err := NewBlogStore(db).Create(context.Background(), b, "test")
	require.NoError(t, err)
	return created
}

func newCategory(t *testing.T, db DBTX, parent *uuid.UUID) *models.Category {
	t.Helper()
	slug := testdb.Unique("cat")
	c, err := NewCategoryStore(db).Create(context.Background(), &models.Category{
		Name: slug, Slug: slug, IsActive: true, ParentID: parent,
	}, "test")
	require.NoError(t, err)
	return c
}

func newComment(t *testing.T, db DBTX, blogID, author uuid.UUID, parent *uuid.UUID) *models.Comment {
	t.Helper()
	c, err := NewCommentStore(db).Create(context.Background(), &models.Comment{
		BlogID: blogID, AuthorID: author, ParentID: parent, Content: "a comment", IsApproved: true,
	}, "test")
	require.NoError(t, err)
	if parent != nil {
		require.NoError(t, Increment(context.Background(), db, CommentReplies, *parent))
	}
	require.NoError(t, Increment(context.Background(), db, BlogComments, blogID))
	return c
}

func counter(t *testing.T, db DBTX, c Counter, id uuid.UUID) int64 {
	t.Helper()
	n, err := Value(context.Background(), db, c, id)
	require.NoError(t, err)
	return n
}
