// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blognest/internal/apperr"
	"blognest/internal/clock"
	"blognest/internal/logging"
	"blognest/internal/markdown"
	"blognest/internal/models"
	"blognest/internal/service"
	"blognest/internal/store"
)

// Default windows for the time-based listings.
const (
	defaultTrendingDays = 7
	maxTrendingDays     = 90
	defaultStaleDays    = 30
)

// Blogs groups blog handlers: public listings, the author's write paths and
// the moderator tools.
type Blogs struct {
	blogs     *service.Blogs
	likes     *service.Likes
	blogStore *store.BlogStore
	likeStore *store.LikeStore
	clock     clock.Clock
}

// NewBlogs creates a new Blogs handler group.
func NewBlogs(blogs *service.Blogs, likes *service.Likes, blogStore *store.BlogStore, likeStore *store.LikeStore, c clock.Clock) *Blogs {
	if c == nil {
		c = clock.System{}
	}
	return &Blogs{blogs: blogs, likes: likes, blogStore: blogStore, likeStore: likeStore, clock: c}
}

// blogView is a single blog with its rendered body and derived fields.
type blogView struct {
	*models.Blog
	ContentHTML        string `json:"content_html"`
	EffectiveSummary   string `json:"effective_summary"`
	EffectiveMetaTitle string `json:"effective_meta_title"`
	EffectiveMetaDesc  string `json:"effective_meta_description"`
	LikedByMe          *bool  `json:"liked_by_me,omitempty"`
}

// blogListing is a page of blogs plus, for signed-in callers, the ids they
// have liked.
type blogListing struct {
	*store.Page[models.Blog]
	Liked []uuid.UUID `json:"liked,omitempty"`
}

// writePage loads tags for a page of blogs and writes it.
func (h *Blogs) writePage(w http.ResponseWriter, r *http.Request, page *store.Page[models.Blog], err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.blogStore.LoadTags(r.Context(), page.Items); err != nil {
		fail(w, r, err)
		return
	}
	out := blogListing{Page: page}
	if p := principal(r); p != nil && len(page.Items) > 0 {
		ids := make([]uuid.UUID, len(page.Items))
		for i := range page.Items {
			ids[i] = page.Items[i].ID
		}
		liked, err := h.likeStore.LikedBlogs(r.Context(), p.UserID, ids)
		if err != nil {
			fail(w, r, err)
			return
		}
		for _, id := range ids {
			if liked[id] {
				out.Liked = append(out.Liked, id)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// List returns published blogs. Filters, in order of precedence: q
// (full-text search), category (with descendants=true for the subtree),
// tag, tags (comma-separated, match=all|any) and author.
func (h *Blogs) List(w http.ResponseWriter, r *http.Request) {
	ctx, q, p := r.Context(), r.URL.Query(), pageRequest(r)

	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		page, err := h.blogStore.Search(ctx, q.Get("q"), p)
		h.writePage(w, r, page, err)
	case q.Get("category") != "":
		page, err := h.blogStore.ListByCategorySlug(ctx, q.Get("category"), queryBool(r, "descendants"), p)
		h.writePage(w, r, page, err)
	case q.Get("tag") != "":
		page, err := h.blogStore.ListByTagSlug(ctx, q.Get("tag"), p)
		h.writePage(w, r, page, err)
	case q.Get("tags") != "":
		tags := queryList(r, "tags")
		if strings.EqualFold(q.Get("match"), "any") {
			page, err := h.blogStore.ListByAnyTags(ctx, tags, p)
			h.writePage(w, r, page, err)
			return
		}
		page, err := h.blogStore.ListByAllTags(ctx, tags, p)
		h.writePage(w, r, page, err)
	case q.Get("author") != "":
		authorID, err := uuid.Parse(q.Get("author"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author")
			return
		}
		page, err := h.blogStore.ListByAuthorAndStatus(ctx, authorID, models.BlogStatusPublished, p)
		h.writePage(w, r, page, err)
	default:
		page, err := h.blogStore.ListPublished(ctx, p)
		h.writePage(w, r, page, err)
	}
}

// Trending ranks blogs published in the last ?days days (default 7).
func (h *Blogs) Trending(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultTrendingDays, maxTrendingDays)
	since := h.clock.Now().AddDate(0, 0, -days)
	page, err := h.blogStore.Trending(r.Context(), since, pageRequest(r))
	h.writePage(w, r, page, err)
}

// Popular lists published blogs by likes.
func (h *Blogs) Popular(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogStore.Popular(r.Context(), pageRequest(r))
	h.writePage(w, r, page, err)
}

// Featured lists featured published blogs.
func (h *Blogs) Featured(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogStore.Featured(r.Context(), pageRequest(r))
	h.writePage(w, r, page, err)
}

// MostViewed lists published blogs by views.
func (h *Blogs) MostViewed(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogStore.MostViewed(r.Context(), pageRequest(r))
	h.writePage(w, r, page, err)
}

// MostCommented lists published blogs by visible comments.
func (h *Blogs) MostCommented(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogStore.MostCommented(r.Context(), pageRequest(r))
	h.writePage(w, r, page, err)
}

// PublishedBetween lists blogs published in [from, to).
func (h *Blogs) PublishedBetween(w http.ResponseWriter, r *http.Request) {
	from, okFrom, err := queryTime(r, "from")
	if err != nil {
		fail(w, r, err)
		return
	}
	to, okTo, err := queryTime(r, "to")
	if err != nil {
		fail(w, r, err)
		return
	}
	if !okFrom || !okTo || !from.Before(to) {
		writeError(w, http.StatusBadRequest, "from and to are required and from must be before to")
		return
	}
	page, err := h.blogStore.PublishedBetween(r.Context(), from, to, pageRequest(r))
	h.writePage(w, r, page, err)
}

// Feed lists published blogs by authors the caller follows.
func (h *Blogs) Feed(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogStore.Feed(r.Context(), principal(r).UserID, pageRequest(r))
	h.writePage(w, r, page, err)
}

// Mine lists the caller's blogs in every status, or one ?status.
func (h *Blogs) Mine(w http.ResponseWriter, r *http.Request) {
	ctx, me, p := r.Context(), principal(r).UserID, pageRequest(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseBlogStatus(raw)
		if err != nil {
			fail(w, r, apperr.Wrap(apperr.Validation, err, err.Error()))
			return
		}
		page, err := h.blogStore.ListByAuthorAndStatus(ctx, me, status, p)
		h.writePage(w, r, page, err)
		return
	}
	page, err := h.blogStore.ListByAuthor(ctx, me, true, p)
	h.writePage(w, r, page, err)
}

// ByStatus lists blogs in one status across all authors. Moderators only.
func (h *Blogs) ByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseBlogStatus(chi.URLParam(r, "status"))
	if err != nil {
		fail(w, r, apperr.Wrap(apperr.Validation, err, err.Error()))
		return
	}
	page, err := h.blogStore.ListByStatus(r.Context(), status, pageRequest(r))
	h.writePage(w, r, page, err)
}

// staleCutoff reads ?before or defaults to defaultStaleDays ago.
func (h *Blogs) staleCutoff(r *http.Request) (time.Time, error) {
	before, ok, err := queryTime(r, "before")
	if err != nil || ok {
		return before, err
	}
	return h.clock.Now().AddDate(0, 0, -defaultStaleDays), nil
}

// LowEngagement lists old published blogs nobody liked or commented on.
func (h *Blogs) LowEngagement(w http.ResponseWriter, r *http.Request) {
	before, err := h.staleCutoff(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.blogStore.LowEngagement(r.Context(), before, pageRequest(r))
	h.writePage(w, r, page, err)
}

// OldDrafts lists drafts not touched for a while.
func (h *Blogs) OldDrafts(w http.ResponseWriter, r *http.Request) {
	before, err := h.staleCutoff(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.blogStore.OldDrafts(r.Context(), before, pageRequest(r))
	h.writePage(w, r, page, err)
}

// Stats returns counts for the caller's blogs. Moderators may pass
// ?scope=all for site-wide numbers.
func (h *Blogs) Stats(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	author := &p.UserID
	if r.URL.Query().Get("scope") == "all" {
		if !p.Role.CanModerate() {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		author = nil
	}
	st, err := h.blogStore.Stats(r.Context(), author)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// lookup resolves {ref} as an id or, failing that, a slug.
func (h *Blogs) lookup(r *http.Request) (*models.Blog, error) {
	ref := chi.URLParam(r, "ref")
	if id, err := uuid.Parse(ref); err == nil {
		return h.blogs.GetByID(r.Context(), principal(r), id)
	}
	return h.blogs.Get(r.Context(), principal(r), ref)
}

// Get returns one blog with its rendered HTML body.
func (h *Blogs) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	html, err := markdown.ToHTML(b.Content)
	if err != nil {
		logging.L().Warn("render blog content failed", zap.Stringer("blog_id", b.ID), zap.Error(err))
	}
	view := blogView{
		Blog:               b,
		ContentHTML:        html,
		EffectiveSummary:   b.EffectiveSummary(),
		EffectiveMetaTitle: b.EffectiveMetaTitle(),
		EffectiveMetaDesc:  b.EffectiveMetaDescription(),
	}
	if p := principal(r); p != nil {
		liked, err := h.likeStore.Exists(r.Context(), p.UserID, models.BlogTarget{ID: b.ID})
		if err != nil {
			fail(w, r, err)
			return
		}
		view.LikedByMe = &liked
	}
	writeJSON(w, http.StatusOK, view)
}

// Similar returns other published blogs from the same category.
func (h *Blogs) Similar(w http.ResponseWriter, r *http.Request) {
	b, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	blogs, err := h.blogStore.Similar(r.Context(), b.ID, queryInt(r, "limit", 5, 20))
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.blogStore.LoadTags(r.Context(), blogs); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blogs)
}

type blogRequest struct {
	Version           int64      `json:"version"`
	Title             string     `json:"title"`
	Slug              string     `json:"slug"`
	Content           string     `json:"content"`
	Summary           *string    `json:"summary"`
	CategoryID        *uuid.UUID `json:"category_id"`
	FeaturedImageURL  *string    `json:"featured_image_url"`
	IsCommentsEnabled *bool      `json:"is_comments_enabled"`
	MetaTitle         *string    `json:"meta_title"`
	MetaDescription   *string    `json:"meta_description"`
	MetaKeywords      *string    `json:"meta_keywords"`
	Tags              []string   `json:"tags"`
}

func (req *blogRequest) input() service.BlogInput {
	return service.BlogInput{
		Title:             req.Title,
		Slug:              strings.TrimSpace(req.Slug),
		Content:           req.Content,
		Summary:           req.Summary,
		CategoryID:        req.CategoryID,
		FeaturedImageURL:  req.FeaturedImageURL,
		IsCommentsEnabled: req.IsCommentsEnabled,
		MetaTitle:         req.MetaTitle,
		MetaDescription:   req.MetaDescription,
		MetaKeywords:      req.MetaKeywords,
		Tags:              req.Tags,
	}
}

// Create writes a new draft owned by the caller.
func (h *Blogs) Create(w http.ResponseWriter, r *http.Request) {
	var req blogRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateBlog(&req, true)); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.blogs.Create(r.Context(), principal(r), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Update edits a draft or scheduled blog. The body must carry the version
// the client last saw.
func (h *Blogs) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req blogRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateBlog(&req, false)); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.blogs.Update(r.Context(), principal(r), id, req.Version, req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete removes a blog with its comments, likes and tag links.
func (h *Blogs) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.blogs.Delete(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transition runs a status change and writes the updated blog.
func (h *Blogs) transition(w http.ResponseWriter, r *http.Request, move func(id uuid.UUID) (*models.Blog, error)) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	b, err := move(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Publish makes a blog public now.
func (h *Blogs) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*models.Blog, error) {
		return h.blogs.Publish(r.Context(), principal(r), id)
	})
}

type scheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// Schedule sets a future publication time.
func (h *Blogs) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.ScheduledAt.IsZero() {
		writeError(w, http.StatusBadRequest, "scheduled_at is required")
		return
	}
	h.transition(w, r, func(id uuid.UUID) (*models.Blog, error) {
		return h.blogs.Schedule(r.Context(), principal(r), id, req.ScheduledAt)
	})
}

// Archive takes a blog out of circulation.
func (h *Blogs) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*models.Blog, error) {
		return h.blogs.Archive(r.Context(), principal(r), id)
	})
}

// Draft moves a blog back to draft.
func (h *Blogs) Draft(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*models.Blog, error) {
		return h.blogs.MakeDraft(r.Context(), principal(r), id)
	})
}

// View counts one read of a published blog.
func (h *Blogs) View(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.blogs.RecordView(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like records the caller's like.
func (h *Blogs) Like(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	like, err := h.likes.Like(r.Context(), principal(r), models.BlogTarget{ID: id})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, like)
}

// Unlike removes the caller's like.
func (h *Blogs) Unlike(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.likes.Unlike(r.Context(), principal(r), models.BlogTarget{ID: id}); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Likes lists who liked a blog.
func (h *Blogs) Likes(w http.ResponseWriter, r *http.Request) {
	b, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.likeStore.ForTarget(r.Context(), models.BlogTarget{ID: b.ID}, pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type featuredRequest struct {
	Featured bool `json:"featured"`
}

// SetFeatured toggles the featured flag. Moderators only.
func (h *Blogs) SetFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req featuredRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.blogs.SetFeatured(r.Context(), principal(r), id, req.Featured); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"featured": req.Featured})
}
