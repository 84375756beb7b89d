// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"blognest/internal/models"
)

// TagStore manages tags and blog_tags rows.
type TagStore struct {
	db DBTX
}

// NewTagStore returns a new TagStore.
func NewTagStore(db DBTX) *TagStore {
	return &TagStore{db: db}
}

const tagColumnsT = `t.id, t.name, t.slug, t.description, t.color, t.is_active, t.usage_count,
	t.created_by, t.modified_by, t.version, t.created_at, t.updated_at`

var tagColumns = strings.ReplaceAll(tagColumnsT, "t.", "")

func scanTag(s scanner) (*models.Tag, error) {
	var t models.Tag
	err := s.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.IsActive, &t.UsageCount,
		&t.CreatedBy, &t.ModifiedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var tagSort = sortSpec{
	columns: map[string]string{
		"name":  "t.name",
		"usage": "t.usage_count",
	},
	fallback: "t.usage_count DESC, t.name",
}

// Create inserts a tag.
func (s *TagStore) Create(ctx context.Context, t *models.Tag, by string) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug, description, color, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+tagColumns,
		t.Name, t.Slug, t.Description, t.Color, nullString(by))
	created, err := scanTag(row)
	if err != nil {
		return nil, mapError("create tag", err)
	}
	return created, nil
}

// FindOrCreate returns the tag with slug, inserting it with name when absent.
// Concurrent callers converge on the same row.
func (s *TagStore) FindOrCreate(ctx context.Context, name, slug, by string) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		WITH ins AS (
			INSERT INTO tags (name, slug, created_by, modified_by)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (slug) DO NOTHING
			RETURNING `+tagColumns+`
		)
		SELECT `+tagColumns+` FROM ins
		UNION ALL
		SELECT `+tagColumns+` FROM tags WHERE slug = $2
		LIMIT 1`, name, slug, nullString(by))
	t, err := scanTag(row)
	if isNoRows(err) {
		// A concurrent insert committed after this statement's snapshot.
		return s.FindBySlug(ctx, slug)
	}
	if err != nil {
		return nil, mapError("find or create tag", err)
	}
	return t, nil
}

// FindBySlug retrieves a tag by slug.
func (s *TagStore) FindBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound("find tag", err, "tag")
	}
	return t, nil
}

// List returns active tags, most used first by default.
func (s *TagStore) List(ctx context.Context, p PageRequest) (*Page[models.Tag], error) {
	return pageQuery(ctx, s.db, "list tags",
		`SELECT COUNT(*) FROM tags t WHERE t.is_active`,
		`SELECT `+tagColumnsT+` FROM tags t WHERE t.is_active`,
		nil, tagSort, "t.id", p, scanTag)
}

// Popular returns the most used tags.
func (s *TagStore) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumnsT+` FROM tags t
		WHERE t.is_active AND t.usage_count > 0
		ORDER BY t.usage_count DESC, t.name LIMIT $1`, limit)
	if err != nil {
		return nil, mapError("popular tags", err)
	}
	return collect(rows, "popular tags", scanTag)
}

// Update changes name, description and color if the version matches.
func (s *TagStore) Update(ctx context.Context, t *models.Tag, by string) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE tags SET name = $3, description = $4, color = $5, is_active = $6,
			modified_by = $7, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+tagColumns,
		t.ID, t.Version, t.Name, t.Description, t.Color, t.IsActive, nullString(by))
	updated, err := scanTag(row)
	if err != nil {
		if isNoRows(err) {
			return nil, versionMismatch(ctx, s.db, "tags", t.ID, "tag")
		}
		return nil, mapError("update tag", err)
	}
	return updated, nil
}

// Delete removes a tag and its blog links.
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return mapError("delete tag", err)
	}
	return mustAffect(res, "tag")
}

// Attach links a tag to a blog and bumps its usage count. Attaching an
// already linked tag is a no-op and reports false.
func (s *TagStore) Attach(ctx context.Context, blogID, tagID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO blog_tags (blog_id, tag_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, blogID, tagID)
	if err != nil {
		return false, mapError("attach tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attach tag rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	return true, Increment(ctx, s.db, TagUsage, tagID)
}

// Detach unlinks a tag from a blog and lowers its usage count. Detaching a
// tag that is not linked reports false.
func (s *TagStore) Detach(ctx context.Context, blogID, tagID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_tags WHERE blog_id = $1 AND tag_id = $2`, blogID, tagID)
	if err != nil {
		return false, mapError("detach tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("detach tag rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	return true, Decrement(ctx, s.db, TagUsage, tagID)
}

// TagIDsForBlog returns the ids of tags linked to a blog.
func (s *TagStore) TagIDsForBlog(ctx context.Context, blogID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_id FROM blog_tags WHERE blog_id = $1`, blogID)
	if err != nil {
		return nil, mapError("blog tag ids", err)
	}
	return collectIDs(rows, "blog tag ids")
}

// ForBlog returns the tags linked to a blog, by name.
func (s *TagStore) ForBlog(ctx context.Context, blogID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumnsT+` FROM tags t JOIN blog_tags bt ON bt.tag_id = t.id
		WHERE bt.blog_id = $1 ORDER BY t.name`, blogID)
	if err != nil {
		return nil, mapError("tags for blog", err)
	}
	return collect(rows, "tags for blog", scanTag)
}
