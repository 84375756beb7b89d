// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

// BlogStore manages blogs in the database.
type BlogStore struct {
	db DBTX
}

// NewBlogStore returns a new BlogStore.
func NewBlogStore(db DBTX) *BlogStore {
	return &BlogStore{db: db}
}

const blogColumns = `b.id, b.author_id, b.category_id, b.title, b.slug, b.summary, b.content,
	b.featured_image_url, b.status, b.is_featured, b.is_comments_enabled,
	b.views_count, b.likes_count, b.comments_count, b.reading_time_minutes,
	b.published_at, b.scheduled_at, b.meta_title, b.meta_description, b.meta_keywords,
	b.created_by, b.modified_by, b.version, b.created_at, b.updated_at`

// returningBlog is blogColumns for RETURNING clauses, where the table
// cannot be aliased.
var returningBlog = strings.ReplaceAll(blogColumns, "b.", "")

func scanBlog(s scanner) (*models.Blog, error) {
	var b models.Blog
	err := s.Scan(
		&b.ID, &b.AuthorID, &b.CategoryID, &b.Title, &b.Slug, &b.Summary, &b.Content,
		&b.FeaturedImageURL, &b.Status, &b.IsFeatured, &b.IsCommentsEnabled,
		&b.ViewsCount, &b.LikesCount, &b.CommentsCount, &b.ReadingTimeMinutes,
		&b.PublishedAt, &b.ScheduledAt, &b.MetaTitle, &b.MetaDescription, &b.MetaKeywords,
		&b.CreatedBy, &b.ModifiedBy, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const publishedOnly = `b.status = 'PUBLISHED'`

// Trending score weights.
const trendingScore = `(b.likes_count * 0.4 + b.comments_count * 0.4 + b.views_count * 0.2)`

var (
	blogSort = sortSpec{
		columns: map[string]string{
			"publishedat": "b.published_at",
			"createdat":   "b.created_at",
			"updatedat":   "b.updated_at",
			"title":       "b.title",
			"views":       "b.views_count",
			"likes":       "b.likes_count",
			"comments":    "b.comments_count",
		},
		fallback: "b.published_at DESC NULLS LAST, b.created_at DESC",
	}
	draftSort = sortSpec{
		columns:  blogSort.columns,
		fallback: "b.updated_at DESC",
	}
	trendingSort = sortSpec{fallback: trendingScore + " DESC, b.published_at DESC"}
	popularSort  = sortSpec{fallback: "b.likes_count DESC, b.published_at DESC"}
	viewedSort   = sortSpec{fallback: "b.views_count DESC, b.published_at DESC"}
	commentSort  = sortSpec{fallback: "b.comments_count DESC, b.published_at DESC"}
	staleSort    = sortSpec{fallback: "b.created_at ASC"}
)

// Create inserts a new blog and returns it.
func (s *BlogStore) Create(ctx context.Context, b *models.Blog, by string) (*models.Blog, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO blogs (author_id, category_id, title, slug, summary, content, featured_image_url,
			status, is_featured, is_comments_enabled, reading_time_minutes, published_at, scheduled_at,
			meta_title, meta_description, meta_keywords, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING `+returningBlog,
		b.AuthorID, b.CategoryID, b.Title, b.Slug, b.Summary, b.Content, b.FeaturedImageURL,
		b.Status, b.IsFeatured, b.IsCommentsEnabled, b.ReadingTimeMinutes, b.PublishedAt, b.ScheduledAt,
		b.MetaTitle, b.MetaDescription, b.MetaKeywords, nullString(by),
	)
	created, err := scanBlog(row)
	if err != nil {
		return nil, mapError("create blog", err)
	}
	return created, nil
}

// FindByID retrieves a blog by ID regardless of status.
func (s *BlogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs b WHERE b.id = $1`, id))
	if err != nil {
		return nil, notFound("find blog by id", err, "blog")
	}
	return b, nil
}

// FindBySlug retrieves a blog by slug regardless of status.
func (s *BlogStore) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs b WHERE b.slug = $1`, slug))
	if err != nil {
		return nil, notFound("find blog by slug", err, "blog")
	}
	return b, nil
}

// FindPublishedBySlug retrieves a blog by slug only when it is published.
func (s *BlogStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs b WHERE b.slug = $1 AND `+publishedOnly, slug))
	if err != nil {
		return nil, notFound("find published blog", err, "blog")
	}
	return b, nil
}

// LockForUpdate reads a blog and locks its row until the transaction ends.
func (s *BlogStore) LockForUpdate(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	b, err := scanBlog(s.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs b WHERE b.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("lock blog", err, "blog")
	}
	return b, nil
}

// SlugExists reports whether a blog already uses slug.
func (s *BlogStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blog slug: %w", err)
	}
	return exists, nil
}

// Update writes every editable column of b if its version still matches.
// Counters are not written. The returned blog carries the new version.
func (s *BlogStore) Update(ctx context.Context, b *models.Blog, by string) (*models.Blog, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE blogs SET
			category_id = $3, title = $4, slug = $5, summary = $6, content = $7,
			featured_image_url = $8, status = $9, is_featured = $10, is_comments_enabled = $11,
			reading_time_minutes = $12, published_at = $13, scheduled_at = $14,
			meta_title = $15, meta_description = $16, meta_keywords = $17,
			modified_by = $18, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+returningBlog,
		b.ID, b.Version, b.CategoryID, b.Title, b.Slug, b.Summary, b.Content,
		b.FeaturedImageURL, b.Status, b.IsFeatured, b.IsCommentsEnabled,
		b.ReadingTimeMinutes, b.PublishedAt, b.ScheduledAt,
		b.MetaTitle, b.MetaDescription, b.MetaKeywords, nullString(by),
	)
	updated, err := scanBlog(row)
	if err != nil {
		if isNoRows(err) {
			return nil, versionMismatch(ctx, s.db, "blogs", b.ID, "blog")
		}
		return nil, mapError("update blog", err)
	}
	return updated, nil
}

// Delete removes a blog. Comments, likes and tag links cascade.
func (s *BlogStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return mapError("delete blog", err)
	}
	return mustAffect(res, "blog")
}

// SetFeatured toggles the featured flag.
func (s *BlogStore) SetFeatured(ctx context.Context, id uuid.UUID, featured bool, by string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE blogs SET is_featured = $2, modified_by = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1`, id, featured, nullString(by))
	if err != nil {
		return mapError("set featured", err)
	}
	return mustAffect(res, "blog")
}

// ScheduledPublish identifies a blog moved to PUBLISHED by the sweep.
type ScheduledPublish struct {
	ID       uuid.UUID
	AuthorID uuid.UUID
	Title    string
	Slug     string
}

// PublishScheduled publishes every SCHEDULED blog due at or before now in
// one statement. The status check is part of the UPDATE predicate, so
// overlapping sweeps publish each blog exactly once: a second sweep waiting
// on the row lock re-checks the predicate and skips it.
func (s *BlogStore) PublishScheduled(ctx context.Context, now time.Time) ([]ScheduledPublish, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE blogs SET
			status = 'PUBLISHED',
			published_at = COALESCE(published_at, $1),
			scheduled_at = NULL,
			version = version + 1,
			updated_at = NOW()
		WHERE status = 'SCHEDULED' AND scheduled_at <= $1
		RETURNING id, author_id, title, slug`, now)
	if err != nil {
		return nil, mapError("publish scheduled", err)
	}
	defer rows.Close()

	var out []ScheduledPublish
	for rows.Next() {
		var p ScheduledPublish
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Slug); err != nil {
			return nil, fmt.Errorf("scan scheduled: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *BlogStore) page(ctx context.Context, op, from, where string, args []any, spec sortSpec, p PageRequest) (*Page[models.Blog], error) {
	return pageQuery(ctx, s.db, op,
		`SELECT COUNT(*) FROM `+from+` WHERE `+where,
		`SELECT `+blogColumns+` FROM `+from+` WHERE `+where,
		args, spec, "b.id", p, scanBlog)
}

// ListPublished returns published blogs, newest first by default.
func (s *BlogStore) ListPublished(ctx context.Context, p PageRequest) (*Page[models.Blog], error) {
	return s.page(ctx, "list published", "blogs b", publishedOnly, nil, blogSort, p)
}

// ListByAuthor returns an author's blogs. Unpublished ones are included only
// when includeUnpublished is set (the author's own view).
func (s *BlogStore) ListByAuthor(ctx context.Context, authorID uuid.UUID, includeUnpublished bool, p PageRequest) (*Page[models.Blog], error) {
	where := `b.author_id = $1`
	if !includeUnpublished {
		where += ` AND ` + publishedOnly
	}
	return s.page(ctx, "list by author", "blogs b", where, []any{authorID}, blogSort, p)
}

// ListByAuthorAndStatus returns an author's blogs in one status, e.g. drafts.
func (s *BlogStore) ListByAuthorAndStatus(ctx context.Context, authorID uuid.UUID, status models.BlogStatus, p PageRequest) (*Page[models.Blog], error) {
	return s.page(ctx, "list by author and status", "blogs b",
		`b.author_id = $1 AND b.status = $2`, []any{authorID, status}, draftSort, p)
}

// ListByStatus returns blogs in one status for moderators.
func (s *BlogStore) ListByStatus(ctx context.Context, status models.BlogStatus, p PageRequest) (*Page[models.Blog], error) {
	return s.page(ctx, "list by status", "blogs b", `b.status = $1`, []any{status}, draftSort, p)
}

// ListByCategorySlug returns published blogs in the category. With
// includeDescendants the whole subtree below the category is searched.
func (s *BlogStore) ListByCategorySlug(ctx context.Context, slug string, includeDescendants bool, p PageRequest) (*Page[models.Blog], error) {
	if !includeDescendants {
		return s.page(ctx, "list by category", "blogs b JOIN categories c ON c.id = b.category_id",
			`c.slug = $1 AND `+publishedOnly, []any{slug}, blogSort, p)
	}
	// UNION (not UNION ALL) stops on a cycle.
	where := `b.category_id IN (
		WITH RECURSIVE sub AS (
			SELECT id FROM categories WHERE slug = $1
			UNION
			SELECT c.id FROM categories c JOIN sub ON c.parent_id = sub.id
		) SELECT id FROM sub) AND ` + publishedOnly
	return s.page(ctx, "list by category tree", "blogs b", where, []any{slug}, blogSort, p)
}

// ListByTagSlug returns published blogs carrying the tag.
func (s *BlogStore) ListByTagSlug(ctx context.Context, slug string, p PageRequest) (*Page[models.Blog], error) {
	where := `EXISTS (SELECT 1 FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
		WHERE bt.blog_id = b.id AND t.slug = $1) AND ` + publishedOnly
	return s.page(ctx, "list by tag", "blogs b", where, []any{slug}, blogSort, p)
}

// normalizeSlugs lowercases, trims and de-duplicates slugs.
func normalizeSlugs(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, sl := range slugs {
		sl = strings.ToLower(strings.TrimSpace(sl))
		if sl == "" || seen[sl] {
			continue
		}
		seen[sl] = true
		out = append(out, sl)
	}
	return out
}

// ListByAllTags returns published blogs carrying every requested tag. A
// blog qualifies only when the number of distinct matching slugs equals the
// number requested.
func (s *BlogStore) ListByAllTags(ctx context.Context, slugs []string, p PageRequest) (*Page[models.Blog], error) {
	slugs = normalizeSlugs(slugs)
	if len(slugs) == 0 {
		return nil, apperr.E(apperr.Validation, "at least one tag is required")
	}
	where := `b.id IN (
		SELECT bt.blog_id FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
		WHERE t.slug = ANY($1::text[])
		GROUP BY bt.blog_id
		HAVING COUNT(DISTINCT t.slug) = $2) AND ` + publishedOnly
	return s.page(ctx, "list by all tags", "blogs b", where, []any{slugs, len(slugs)}, blogSort, p)
}

// ListByAnyTags returns published blogs carrying at least one of the tags.
func (s *BlogStore) ListByAnyTags(ctx context.Context, slugs []string, p PageRequest) (*Page[models.Blog], error) {
	slugs = normalizeSlugs(slugs)
	if len(slugs) == 0 {
		return nil, apperr.E(apperr.Validation, "at least one tag is required")
	}
	where := `EXISTS (SELECT 1 FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
		WHERE bt.blog_id = b.id AND t.slug = ANY($1::text[])) AND ` + publishedOnly
	return s.page(ctx, "list by any tags", "blogs b", where, []any{slugs}, blogSort, p)
}

// Search matches query case-insensitively against title, summary and
// content of published blogs.
func (s *BlogStore) Search(ctx context.Context, query string, p PageRequest) (*Page[models.Blog], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.E(apperr.Validation, "search query is required")
	}
	where := `(b.title ILIKE '%' || $1 || '%'
		OR b.summary ILIKE '%' || $1 || '%'
		OR b.content ILIKE '%' || $1 || '%') AND ` + publishedOnly
	return s.page(ctx, "search blogs", "blogs b", where, []any{escapeLike(query)}, blogSort, p)
}

// Featured returns featured published blogs.
func (s *BlogStore) Featured(ctx context.Context, p PageRequest) (*Page[models.Blog], error) {
	return s.page(ctx, "featured blogs", "blogs b", `b.is_featured AND `+publishedOnly, nil, blogSort, p)
}

// Trending ranks blogs published at or after since by
// likes*0.4 + comments*0.4 + views*0.2.
func (s *BlogStore) Trending(ctx context.Context, since time.Time, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "trending blogs", "blogs b",
		`b.published_at >= $1 AND `+publishedOnly, []any{since}, trendingSort, p)
}

// Popular ranks published blogs by likes.
func (s *BlogStore) Popular(ctx context.Context, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "popular blogs", "blogs b", publishedOnly, nil, popularSort, p)
}

// MostViewed ranks published blogs by views.
func (s *BlogStore) MostViewed(ctx context.Context, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "most viewed", "blogs b", publishedOnly, nil, viewedSort, p)
}

// MostCommented ranks published blogs by comment count.
func (s *BlogStore) MostCommented(ctx context.Context, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "most commented", "blogs b", publishedOnly, nil, commentSort, p)
}

// PublishedBetween returns blogs published in [from, to).
func (s *BlogStore) PublishedBetween(ctx context.Context, from, to time.Time, p PageRequest) (*Page[models.Blog], error) {
	return s.page(ctx, "published between", "blogs b",
		`b.published_at >= $1 AND b.published_at < $2 AND `+publishedOnly, []any{from, to}, blogSort, p)
}

// Feed returns published blogs by authors the user follows.
func (s *BlogStore) Feed(ctx context.Context, userID uuid.UUID, p PageRequest) (*Page[models.Blog], error) {
	where := `b.author_id IN (SELECT following_id FROM follows WHERE follower_id = $1) AND ` + publishedOnly
	return s.page(ctx, "feed", "blogs b", where, []any{userID}, blogSort, p)
}

// Similar returns other published blogs in the same category, most liked
// first.
func (s *BlogStore) Similar(ctx context.Context, blogID uuid.UUID, limit int) ([]models.Blog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+blogColumns+` FROM blogs b
		JOIN blogs src ON src.id = $1
		WHERE b.category_id = src.category_id AND b.id <> src.id AND `+publishedOnly+`
		ORDER BY b.likes_count DESC, b.published_at DESC, b.id
		LIMIT $2`, blogID, limit)
	if err != nil {
		return nil, mapError("similar blogs", err)
	}
	return collect(rows, "similar blogs", scanBlog)
}

// LowEngagement returns published blogs older than before with no likes and
// no comments.
func (s *BlogStore) LowEngagement(ctx context.Context, before time.Time, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "low engagement", "blogs b",
		`b.likes_count = 0 AND b.comments_count = 0 AND b.published_at < $1 AND `+publishedOnly,
		[]any{before}, staleSort, p)
}

// OldDrafts returns drafts not touched since before.
func (s *BlogStore) OldDrafts(ctx context.Context, before time.Time, p PageRequest) (*Page[models.Blog], error) {
	p.Sort = ""
	return s.page(ctx, "old drafts", "blogs b",
		`b.status = 'DRAFT' AND b.updated_at < $1`, []any{before}, staleSort, p)
}

// BlogStats aggregates blog counts and engagement.
type BlogStats struct {
	Total         int64 `json:"total"`
	Published     int64 `json:"published"`
	Drafts        int64 `json:"drafts"`
	Scheduled     int64 `json:"scheduled"`
	Archived      int64 `json:"archived"`
	TotalViews    int64 `json:"total_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`
}

// Stats aggregates over all blogs, or over one author's when authorID is set.
func (s *BlogStore) Stats(ctx context.Context, authorID *uuid.UUID) (*BlogStats, error) {
	var st BlogStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PUBLISHED'),
			COUNT(*) FILTER (WHERE status = 'DRAFT'),
			COUNT(*) FILTER (WHERE status = 'SCHEDULED'),
			COUNT(*) FILTER (WHERE status = 'ARCHIVED'),
			COALESCE(SUM(views_count), 0),
			COALESCE(SUM(likes_count), 0),
			COALESCE(SUM(comments_count), 0)
		FROM blogs WHERE $1::uuid IS NULL OR author_id = $1`, authorID,
	).Scan(&st.Total, &st.Published, &st.Drafts, &st.Scheduled, &st.Archived,
		&st.TotalViews, &st.TotalLikes, &st.TotalComments)
	if err != nil {
		return nil, mapError("blog stats", err)
	}
	return &st, nil
}

// LoadTags fills Tags on each blog with one query.
func (s *BlogStore) LoadTags(ctx context.Context, blogs []models.Blog) error {
	if len(blogs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(blogs))
	pos := make(map[uuid.UUID][]int, len(blogs))
	for i, b := range blogs {
		ids[i] = b.ID
		pos[b.ID] = append(pos[b.ID], i)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT bt.blog_id, `+tagColumnsT+`
		FROM blog_tags bt JOIN tags t ON t.id = bt.tag_id
		WHERE bt.blog_id = ANY($1::uuid[])
		ORDER BY t.name`, uuidStrings(ids))
	if err != nil {
		return mapError("load blog tags", err)
	}
	defer rows.Close()
	for rows.Next() {
		var blogID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&blogID, &t.ID, &t.Name, &t.Slug, &t.Description, &t.Color, &t.IsActive, &t.UsageCount,
			&t.CreatedBy, &t.ModifiedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("scan blog tag: %w", err)
		}
		for _, i := range pos[blogID] {
			blogs[i].Tags = append(blogs[i].Tags, t)
		}
	}
	return rows.Err()
}
