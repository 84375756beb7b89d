// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/clock"
	"blognest/internal/models"
	"blognest/internal/service"
	"blognest/internal/store"
)

// Comments groups comment handlers: threads under a blog, the author's
// edits, likes and the moderation queue.
type Comments struct {
	comments     *service.Comments
	blogs        *service.Blogs
	likes        *service.Likes
	commentStore *store.CommentStore
	likeStore    *store.LikeStore
	clock        clock.Clock
}

// NewComments creates a new Comments handler group.
func NewComments(comments *service.Comments, blogs *service.Blogs, likes *service.Likes, commentStore *store.CommentStore, likeStore *store.LikeStore, c clock.Clock) *Comments {
	if c == nil {
		c = clock.System{}
	}
	return &Comments{comments: comments, blogs: blogs, likes: likes, commentStore: commentStore, likeStore: likeStore, clock: c}
}

// visibleBlog returns the blog id from {ref} if the caller may read it.
func (h *Comments) visibleBlog(r *http.Request) (uuid.UUID, error) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		return uuid.Nil, err
	}
	b, err := h.blogs.GetByID(r.Context(), principal(r), id)
	if err != nil {
		return uuid.Nil, err
	}
	return b.ID, nil
}

// visibleComment loads {id} and checks the caller may read its blog.
func (h *Comments) visibleComment(r *http.Request) (*models.Comment, error) {
	id, err := uuidParam(r, "id")
	if err != nil {
		return nil, err
	}
	c, err := h.commentStore.FindByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := h.blogs.GetByID(r.Context(), principal(r), c.BlogID); err != nil {
		return nil, err
	}
	return c, nil
}

// ForBlog lists a blog's top-level comments, or every visible comment with
// ?flat=true.
func (h *Comments) ForBlog(w http.ResponseWriter, r *http.Request) {
	blogID, err := h.visibleBlog(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var page *store.Page[models.Comment]
	if queryBool(r, "flat") {
		page, err = h.commentStore.VisibleByBlog(r.Context(), blogID, pageRequest(r))
	} else {
		page, err = h.commentStore.TopLevelByBlog(r.Context(), blogID, pageRequest(r))
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Participants lists the other users commenting on a blog, for mention
// suggestions.
func (h *Comments) Participants(w http.ResponseWriter, r *http.Request) {
	blogID, err := h.visibleBlog(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	ids, err := h.commentStore.ConversationParticipants(r.Context(), blogID, principal(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]uuid.UUID{"user_ids": ids})
}

type commentRequest struct {
	Version    int64      `json:"version"`
	Content    string     `json:"content"`
	ParentID   *uuid.UUID `json:"parent_id"`
	EditReason *string    `json:"edit_reason"`
}

// Create posts a comment on a blog, or a reply when parent_id is set.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	blogID, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.comments.Create(r.Context(), principal(r), blogID, req.ParentID, req.Content)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get returns one comment.
func (h *Comments) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.visibleComment(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !c.IsVisible() && (principal(r) == nil || !principal(r).Role.CanModerate()) {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Thread returns a comment with its replies nested below it.
func (h *Comments) Thread(w http.ResponseWriter, r *http.Request) {
	c, err := h.visibleComment(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	root, err := h.comments.Thread(r.Context(), c.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

// Replies lists the direct replies of a comment.
func (h *Comments) Replies(w http.ResponseWriter, r *http.Request) {
	c, err := h.visibleComment(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.commentStore.Replies(r.Context(), c.ID, pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Edit changes a comment's content. Authors only.
func (h *Comments) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req commentRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateEditReason(req.EditReason)); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.comments.Edit(r.Context(), principal(r), id, req.Version, req.Content, req.EditReason)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete soft-deletes a comment. Replies stay attached.
func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.comments.Delete(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Purge removes a comment and its whole subtree. Moderators only.
func (h *Comments) Purge(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.comments.HardDelete(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like records the caller's like on a comment.
func (h *Comments) Like(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	like, err := h.likes.Like(r.Context(), principal(r), models.CommentTarget{ID: id})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, like)
}

// Unlike removes the caller's like from a comment.
func (h *Comments) Unlike(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.likes.Unlike(r.Context(), principal(r), models.CommentTarget{ID: id}); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trending ranks recent comments by likes and replies.
func (h *Comments) Trending(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultTrendingDays, maxTrendingDays)
	page, err := h.commentStore.Trending(r.Context(), h.clock.Now().AddDate(0, 0, -days), pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// --- Moderation ---

// Pending lists comments held for approval.
func (h *Comments) Pending(w http.ResponseWriter, r *http.Request) {
	page, err := h.commentStore.AwaitingApproval(r.Context(), pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Search matches visible comment content.
func (h *Comments) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	page, err := h.commentStore.Search(r.Context(), q, pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// LowEngagement lists old comments with no likes and no replies.
func (h *Comments) LowEngagement(w http.ResponseWriter, r *http.Request) {
	before, ok, err := queryTime(r, "before")
	if err != nil {
		fail(w, r, err)
		return
	}
	if !ok {
		before = h.clock.Now().AddDate(0, 0, -defaultStaleDays)
	}
	page, err := h.commentStore.LowEngagement(r.Context(), before, pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Stats aggregates comment counts, site-wide or for ?blog.
func (h *Comments) Stats(w http.ResponseWriter, r *http.Request) {
	var blogID *uuid.UUID
	if raw := r.URL.Query().Get("blog"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid blog")
			return
		}
		blogID = &id
	}
	st, err := h.commentStore.Stats(r.Context(), blogID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// bulk decodes an id list and runs op over it.
func (h *Comments) bulk(w http.ResponseWriter, r *http.Request, op func(ids []uuid.UUID) (int, error)) {
	var req idsRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		fail(w, r, apperr.E(apperr.Validation, "ids are required"))
		return
	}
	n, err := op(req.IDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": n})
}

// Approve releases held comments.
func (h *Comments) Approve(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(ids []uuid.UUID) (int, error) {
		return h.comments.Approve(r.Context(), principal(r), ids)
	})
}

// Reject hides comments.
func (h *Comments) Reject(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(ids []uuid.UUID) (int, error) {
		return h.comments.Reject(r.Context(), principal(r), ids)
	})
}

// BulkDelete soft-deletes many comments at once.
func (h *Comments) BulkDelete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(ids []uuid.UUID) (int, error) {
		if err := h.comments.BulkDelete(r.Context(), principal(r), ids); err != nil {
			return 0, err
		}
		return len(ids), nil
	})
}
