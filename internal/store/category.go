// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/hierarchy"
	"blognest/internal/models"
)

// CategoryStore manages categories in the database. The tree is stored flat
// through parent_id; walks use recursive CTEs built with UNION so that a
// cycle in bad data ends the recursion instead of looping.
type CategoryStore struct {
	db DBTX
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db DBTX) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumnsC = `c.id, c.name, c.slug, c.description, c.color, c.icon, c.is_active,
	c.parent_id, c.sort_order, c.blog_count, c.subtree_blog_count,
	c.created_by, c.modified_by, c.version, c.created_at, c.updated_at`

var categoryColumns = strings.ReplaceAll(categoryColumnsC, "c.", "")

// scanCategory scans a row into a Category struct.
func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	err := s.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon, &c.IsActive,
		&c.ParentID, &c.SortOrder, &c.BlogCount, &c.SubtreeBlogCount,
		&c.CreatedBy, &c.ModifiedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// treeLock serializes structural changes to the category tree so two
// concurrent reparents cannot build a cycle between them. Lineage walks take
// treeReadLock on the same key so a reparent cannot move a subtree between
// the walk reading parent_id and the walk's update landing.
const (
	treeLockKey  = `hashtext('blognest.categories.tree')`
	treeLock     = `SELECT pg_advisory_xact_lock(` + treeLockKey + `)`
	treeReadLock = `SELECT pg_advisory_xact_lock_shared(` + treeLockKey + `)`
)

// subtreeCTE selects the category $1 and every descendant.
const subtreeCTE = `WITH RECURSIVE sub AS (
		SELECT id FROM categories WHERE id = $1
		UNION
		SELECT c.id FROM categories c JOIN sub ON c.parent_id = sub.id
	)`

// lineageCTE selects the category $1 and every ancestor.
const lineageCTE = `WITH RECURSIVE up AS (
		SELECT id, parent_id, 0 AS depth FROM categories WHERE id = $1
		UNION
		SELECT c.id, c.parent_id, up.depth + 1 FROM categories c JOIN up ON c.id = up.parent_id
		WHERE up.depth < 1000
	)`

// Create inserts a new category and returns it. The caller runs it in a
// transaction when a parent is given.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category, by string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, color, icon, is_active, parent_id, sort_order, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Color, c.Icon, c.IsActive, c.ParentID, c.SortOrder, nullString(by),
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, mapError("create category", err)
	}
	return result, nil
}

// FindByID retrieves a category by ID.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("find category by id", err, "category")
	}
	return c, nil
}

// FindBySlug retrieves a category by slug.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound("find category by slug", err, "category")
	}
	return c, nil
}

// List returns all categories ordered for display.
func (s *CategoryStore) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumnsC+` FROM categories c
		WHERE NOT $1 OR c.is_active
		ORDER BY c.sort_order, c.name`, activeOnly)
	if err != nil {
		return nil, mapError("list categories", err)
	}
	return collect(rows, "list categories", scanCategory)
}

// Forest loads every category into an in-memory forest.
func (s *CategoryStore) Forest(ctx context.Context, activeOnly bool) (hierarchy.Categories, error) {
	flat, err := s.List(ctx, activeOnly)
	if err != nil {
		return hierarchy.Categories{}, err
	}
	return hierarchy.NewCategories(flat), nil
}

// Tree returns categories as nested roots with Children and Depth set.
func (s *CategoryStore) Tree(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	f, err := s.Forest(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return f.Tree(), nil
}

// Roots returns categories with no parent.
func (s *CategoryStore) Roots(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumnsC+` FROM categories c
		WHERE c.parent_id IS NULL ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, mapError("root categories", err)
	}
	return collect(rows, "root categories", scanCategory)
}

// Children returns the direct children of id.
func (s *CategoryStore) Children(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumnsC+` FROM categories c
		WHERE c.parent_id = $1 ORDER BY c.sort_order, c.name`, id)
	if err != nil {
		return nil, mapError("child categories", err)
	}
	return collect(rows, "child categories", scanCategory)
}

// Ancestors returns the chain from the root down to the immediate parent
// of id. The recursion is depth-bounded and stops at a missing parent.
func (s *CategoryStore) Ancestors(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, lineageCTE+`
		SELECT `+categoryColumnsC+` FROM categories c
		JOIN (SELECT id, MIN(depth) AS depth FROM up WHERE depth > 0 AND id <> $1 GROUP BY id) a ON a.id = c.id
		ORDER BY a.depth DESC`, id)
	if err != nil {
		return nil, mapError("category ancestors", err)
	}
	return collect(rows, "category ancestors", scanCategory)
}

// Depth is the number of ancestors of id; roots are at depth 0.
func (s *CategoryStore) Depth(ctx context.Context, id uuid.UUID) (int, error) {
	anc, err := s.Ancestors(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(anc), nil
}

// subtree loads id and every descendant.
func (s *CategoryStore) subtree(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, subtreeCTE+`
		SELECT `+categoryColumnsC+` FROM categories c JOIN sub ON sub.id = c.id
		ORDER BY c.sort_order, c.name`, id)
	if err != nil {
		return nil, mapError("category subtree", err)
	}
	return collect(rows, "category subtree", scanCategory)
}

// Descendants returns every category below id in pre-order, siblings
// ordered by sort_order then name.
func (s *CategoryStore) Descendants(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	flat, err := s.subtree(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return nil, apperr.E(apperr.NotFound, "category not found")
	}
	return hierarchy.NewCategories(flat).Descendants(id), nil
}

// TotalBlogCount sums blog_count over id and its whole subtree.
func (s *CategoryStore) TotalBlogCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, subtreeCTE+`
		SELECT SUM(c.blog_count) FROM categories c JOIN sub ON sub.id = c.id`, id).Scan(&total)
	if err != nil {
		return 0, mapError("total blog count", err)
	}
	if !total.Valid {
		return 0, apperr.E(apperr.NotFound, "category not found")
	}
	return total.Int64, nil
}

// FullPath renders "Root > Child > Leaf" for id.
func (s *CategoryStore) FullPath(ctx context.Context, id uuid.UUID) (string, error) {
	self, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	anc, err := s.Ancestors(ctx, id)
	if err != nil {
		return "", err
	}
	f := hierarchy.NewCategories(append(anc, *self))
	return f.FullPath(id), nil
}

// EffectiveColor returns the nearest ancestor-or-self color, or the
// default color.
func (s *CategoryStore) EffectiveColor(ctx context.Context, id uuid.UUID) (string, error) {
	self, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	anc, err := s.Ancestors(ctx, id)
	if err != nil {
		return "", err
	}
	return hierarchy.NewCategories(append(anc, *self)).EffectiveColor(id), nil
}

// AdjustBlogCount changes the direct blog_count of id by delta and the
// subtree_blog_count of id and every ancestor by the same delta. Both
// statements clamp at zero. Run inside the transaction that assigns or
// unassigns the blog; the shared tree lock is held until it ends.
func (s *CategoryStore) AdjustBlogCount(ctx context.Context, id uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, treeReadLock); err != nil {
		return mapError("lock category tree", err)
	}
	if err := Adjust(ctx, s.db, CategoryBlogs, id, delta); err != nil {
		return err
	}
	return s.adjustLineage(ctx, id, delta)
}

// adjustLineage adds delta to subtree_blog_count on id and its ancestors.
func (s *CategoryStore) adjustLineage(ctx context.Context, id uuid.UUID, delta int64) error {
	_, err := s.db.ExecContext(ctx, lineageCTE+`
		UPDATE categories SET subtree_blog_count = GREATEST(subtree_blog_count + $2, 0)
		WHERE id IN (SELECT id FROM up)`, id, delta)
	if err != nil {
		return mapError("adjust category lineage", err)
	}
	return nil
}

// WouldCycle reports whether making newParent the parent of id would put id
// among its own ancestors.
func (s *CategoryStore) WouldCycle(ctx context.Context, id, newParent uuid.UUID) (bool, error) {
	if id == newParent {
		return true, nil
	}
	var cycle bool
	err := s.db.QueryRowContext(ctx, subtreeCTE+`
		SELECT EXISTS (SELECT 1 FROM sub WHERE id = $2)`, id, newParent).Scan(&cycle)
	if err != nil {
		return false, mapError("category cycle check", err)
	}
	return cycle, nil
}

// Reparent moves id under newParent, or to the root when newParent is nil.
// It must run inside a transaction: it takes the tree lock, rejects moves
// that would create a cycle, and shifts the moved subtree's blog total from
// the old ancestors to the new ones.
func (s *CategoryStore) Reparent(ctx context.Context, id uuid.UUID, newParent *uuid.UUID, by string) (*models.Category, error) {
	if _, err := s.db.ExecContext(ctx, treeLock); err != nil {
		return nil, mapError("lock category tree", err)
	}

	moving, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("lock category", err, "category")
	}

	if newParent != nil {
		if _, err := s.FindByID(ctx, *newParent); err != nil {
			return nil, err
		}
		cycle, err := s.WouldCycle(ctx, id, *newParent)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, apperr.E(apperr.Validation, "a category cannot be moved under itself or its descendants")
		}
	}
	if uuidPtrEqual(moving.ParentID, newParent) {
		return moving, nil
	}

	total := moving.SubtreeBlogCount
	if moving.ParentID != nil && total > 0 {
		if err := s.adjustLineage(ctx, *moving.ParentID, -total); err != nil {
			return nil, err
		}
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET parent_id = $2, modified_by = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns, id, newParent, nullString(by))
	moved, err := scanCategory(row)
	if err != nil {
		return nil, mapError("reparent category", err)
	}

	if newParent != nil && total > 0 {
		if err := s.adjustLineage(ctx, *newParent, total); err != nil {
			return nil, err
		}
	}
	return moved, nil
}

// Update changes descriptive fields if the version matches. The parent is
// changed only through Reparent.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category, by string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET name = $3, slug = $4, description = $5, color = $6, icon = $7,
			is_active = $8, sort_order = $9, modified_by = $10, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+categoryColumns,
		c.ID, c.Version, c.Name, c.Slug, c.Description, c.Color, c.Icon, c.IsActive, c.SortOrder, nullString(by))
	updated, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, versionMismatch(ctx, s.db, "categories", c.ID, "category")
		}
		return nil, mapError("update category", err)
	}
	return updated, nil
}

// Delete removes a category that has neither subcategories nor blogs.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM categories c
		WHERE c.id = $1
		  AND NOT EXISTS (SELECT 1 FROM categories ch WHERE ch.parent_id = c.id)
		  AND NOT EXISTS (SELECT 1 FROM blogs b WHERE b.category_id = c.id)`, id)
	if err != nil {
		return mapError("delete category", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return apperr.E(apperr.Conflict, "category still has subcategories or blogs")
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(sort_order) FROM categories WHERE parent_id IS NOT DISTINCT FROM $1`, parentID,
	).Scan(&maxOrder)
	if err != nil {
		return 0, mapError("next sort order", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}

// uuidPtrEqual compares two *uuid.UUID for equality (both nil or same value).
func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
