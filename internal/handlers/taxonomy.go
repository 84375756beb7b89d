// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/models"
	"blognest/internal/service"
	"blognest/internal/store"
)

// Taxonomy groups category and tag handlers.
type Taxonomy struct {
	svc           *service.Taxonomy
	categoryStore *store.CategoryStore
	tagStore      *store.TagStore
	blogs         *Blogs
}

// NewTaxonomy creates a new Taxonomy handler group. blogs serves the
// per-category and per-tag blog listings.
func NewTaxonomy(svc *service.Taxonomy, categoryStore *store.CategoryStore, tagStore *store.TagStore, blogs *Blogs) *Taxonomy {
	return &Taxonomy{svc: svc, categoryStore: categoryStore, tagStore: tagStore, blogs: blogs}
}

// --- Categories ---

var errCategoryNotFound = apperr.E(apperr.NotFound, "category not found")

// showInactive lets moderators ask for inactive categories with ?all=true.
func showInactive(r *http.Request) bool {
	p := principal(r)
	return queryBool(r, "all") && p != nil && p.Role.CanModerate()
}

// CategoryTree returns the category forest with children nested.
func (h *Taxonomy) CategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categoryStore.Tree(r.Context(), !showInactive(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// CategoryList returns categories flat, in display order.
func (h *Taxonomy) CategoryList(w http.ResponseWriter, r *http.Request) {
	list, err := h.categoryStore.List(r.Context(), !showInactive(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// category resolves {ref} as an id or a slug. Inactive categories are only
// visible to moderators.
func (h *Taxonomy) category(r *http.Request) (*models.Category, error) {
	ref := chi.URLParam(r, "ref")
	var (
		c   *models.Category
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		c, err = h.categoryStore.FindByID(r.Context(), id)
	} else {
		c, err = h.categoryStore.FindBySlug(r.Context(), ref)
	}
	if err != nil {
		return nil, err
	}
	if p := principal(r); !c.IsActive && (p == nil || !p.Role.CanModerate()) {
		return nil, errCategoryNotFound
	}
	return c, nil
}

// categoryView adds hierarchy-derived fields to a category.
type categoryView struct {
	*models.Category
	Path           string `json:"path"`
	EffectiveColor string `json:"effective_color"`
	TotalBlogCount int64  `json:"total_blog_count"`
}

// GetCategory returns one category with its path and effective color.
func (h *Taxonomy) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.category(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ctx := r.Context()
	view := categoryView{Category: c}
	if view.Path, err = h.categoryStore.FullPath(ctx, c.ID); err != nil {
		fail(w, r, err)
		return
	}
	if view.EffectiveColor, err = h.categoryStore.EffectiveColor(ctx, c.ID); err != nil {
		fail(w, r, err)
		return
	}
	if view.TotalBlogCount, err = h.categoryStore.TotalBlogCount(ctx, c.ID); err != nil {
		fail(w, r, err)
		return
	}
	if view.Depth, err = h.categoryStore.Depth(ctx, c.ID); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// relatives writes the categories returned by load for {ref}.
func (h *Taxonomy) relatives(w http.ResponseWriter, r *http.Request, load func(id uuid.UUID) ([]models.Category, error)) {
	c, err := h.category(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	list, err := load(c.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Category{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Ancestors returns the chain from the root down to the parent.
func (h *Taxonomy) Ancestors(w http.ResponseWriter, r *http.Request) {
	h.relatives(w, r, func(id uuid.UUID) ([]models.Category, error) {
		return h.categoryStore.Ancestors(r.Context(), id)
	})
}

// Descendants returns the whole subtree in pre-order.
func (h *Taxonomy) Descendants(w http.ResponseWriter, r *http.Request) {
	h.relatives(w, r, func(id uuid.UUID) ([]models.Category, error) {
		return h.categoryStore.Descendants(r.Context(), id)
	})
}

// Children returns the direct children.
func (h *Taxonomy) Children(w http.ResponseWriter, r *http.Request) {
	h.relatives(w, r, func(id uuid.UUID) ([]models.Category, error) {
		return h.categoryStore.Children(r.Context(), id)
	})
}

// CategoryBlogs lists published blogs in a category; ?descendants=true
// includes the subtree.
func (h *Taxonomy) CategoryBlogs(w http.ResponseWriter, r *http.Request) {
	c, err := h.category(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.blogs.blogStore.ListByCategorySlug(r.Context(), c.Slug, queryBool(r, "descendants"), pageRequest(r))
	h.blogs.writePage(w, r, page, err)
}

type categoryRequest struct {
	Version     int64      `json:"version"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	Color       *string    `json:"color"`
	Icon        *string    `json:"icon"`
	IsActive    *bool      `json:"is_active"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

func (req *categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsActive:    req.IsActive,
		ParentID:    req.ParentID,
	}
}

// CreateCategory adds a category. Moderators only.
func (h *Taxonomy) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateCategory(&req)); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), principal(r), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory edits a category, moving it when parent_id changes.
func (h *Taxonomy) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateCategory(&req)); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), principal(r), id, req.Version, req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type moveRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// MoveCategory reparents a category; a null parent_id makes it a root.
func (h *Taxonomy) MoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.MoveCategory(r.Context(), principal(r), id, req.ParentID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory removes an empty leaf category.
func (h *Taxonomy) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tags ---

// TagList pages through active tags.
func (h *Taxonomy) TagList(w http.ResponseWriter, r *http.Request) {
	page, err := h.tagStore.List(r.Context(), pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PopularTags returns the most used tags.
func (h *Taxonomy) PopularTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagStore.Popular(r.Context(), queryInt(r, "limit", 10, 50))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// GetTag returns one tag by slug.
func (h *Taxonomy) GetTag(w http.ResponseWriter, r *http.Request) {
	t, err := h.tagStore.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// TagBlogs lists published blogs carrying a tag.
func (h *Taxonomy) TagBlogs(w http.ResponseWriter, r *http.Request) {
	page, err := h.blogs.blogStore.ListByTagSlug(r.Context(), chi.URLParam(r, "slug"), pageRequest(r))
	h.blogs.writePage(w, r, page, err)
}

type tagRequest struct {
	Version     int64   `json:"version"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"is_active"`
}

func (req *tagRequest) input() service.TagInput {
	return service.TagInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	}
}

// CreateTag adds a tag. Moderators only.
func (h *Taxonomy) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateTag(&req)); err != nil {
		fail(w, r, err)
		return
	}
	t, err := h.svc.CreateTag(r.Context(), principal(r), req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTag edits a tag.
func (h *Taxonomy) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateTag(&req)); err != nil {
		fail(w, r, err)
		return
	}
	t, err := h.svc.UpdateTag(r.Context(), principal(r), chi.URLParam(r, "slug"), req.Version, req.input())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTag removes a tag and detaches it from every blog.
func (h *Taxonomy) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTag(r.Context(), principal(r), chi.URLParam(r, "slug")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
