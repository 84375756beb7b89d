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

	"blognest/internal/apperr"
	"blognest/internal/models"
	"blognest/internal/service"
	"blognest/internal/store"
)

// Forgetter drops cached accounts after an admin changes them.
type Forgetter interface {
	Forget(id uuid.UUID)
}

// Users groups profile, follow-graph and user administration handlers.
type Users struct {
	users        *service.Users
	userStore    *store.UserStore
	followStore  *store.FollowStore
	commentStore *store.CommentStore
	blogs        *Blogs
	cache        Forgetter
}

// NewUsers creates a new Users handler group. cache may be nil.
func NewUsers(users *service.Users, userStore *store.UserStore, followStore *store.FollowStore, commentStore *store.CommentStore, blogs *Blogs, cache Forgetter) *Users {
	return &Users{
		users:        users,
		userStore:    userStore,
		followStore:  followStore,
		commentStore: commentStore,
		blogs:        blogs,
		cache:        cache,
	}
}

var errUserNotFound = apperr.E(apperr.NotFound, "user not found")

// profile is what other users see of an account.
type profile struct {
	ID             uuid.UUID   `json:"id"`
	Username       string      `json:"username"`
	FullName       string      `json:"full_name"`
	Bio            *string     `json:"bio,omitempty"`
	AvatarURL      *string     `json:"avatar_url,omitempty"`
	Role           models.Role `json:"role"`
	FollowersCount int64       `json:"followers_count"`
	FollowingCount int64       `json:"following_count"`
	BlogsCount     int64       `json:"blogs_count"`
	CreatedAt      time.Time   `json:"created_at"`
	FollowedByMe   *bool       `json:"followed_by_me,omitempty"`
}

func profileOf(u *models.User) profile {
	return profile{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName(),
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		Role:           u.Role,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		BlogsCount:     u.BlogsCount,
		CreatedAt:      u.CreatedAt,
	}
}

func profilesOf(users []models.User) []profile {
	out := make([]profile, len(users))
	for i := range users {
		out[i] = profileOf(&users[i])
	}
	return out
}

// writeProfiles writes a page of users as public profiles.
func writeProfiles(w http.ResponseWriter, r *http.Request, page *store.Page[models.User], err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Page[profile]{
		Items:      profilesOf(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages,
	})
}

// lookup resolves {ref} as an id or a username. Deactivated accounts are
// hidden from everyone but admins.
func (h *Users) lookup(r *http.Request) (*models.User, error) {
	ref := chi.URLParam(r, "ref")
	var (
		u   *models.User
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		u, err = h.userStore.FindByID(r.Context(), id)
	} else {
		u, err = h.userStore.FindByUsername(r.Context(), ref)
	}
	if err != nil {
		return nil, err
	}
	if p := principal(r); !u.IsActive && (p == nil || !p.Role.CanManageUsers()) {
		return nil, errUserNotFound
	}
	return u, nil
}

// Get returns a public profile.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := profileOf(u)
	if p := principal(r); p != nil && p.UserID != u.ID {
		following, err := h.followStore.IsFollowing(r.Context(), p.UserID, u.ID)
		if err != nil {
			fail(w, r, err)
			return
		}
		out.FollowedByMe = &following
	}
	writeJSON(w, http.StatusOK, out)
}

// Search suggests users whose username starts with ?q, for mentions.
func (h *Users) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	users, err := h.userStore.SearchByUsername(r.Context(), q, queryInt(r, "limit", 10, 50))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profilesOf(users))
}

// TopAuthors lists the authors with the most followers.
func (h *Users) TopAuthors(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.TopAuthors(r.Context(), queryInt(r, "limit", 10, 50))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profilesOf(users))
}

// followList serves one of the follow-graph listings for {ref}.
func (h *Users) followList(w http.ResponseWriter, r *http.Request, list func(id uuid.UUID, p store.PageRequest) (*store.Page[models.User], error)) {
	u, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := list(u.ID, pageRequest(r))
	writeProfiles(w, r, page, err)
}

// Followers lists who follows a user.
func (h *Users) Followers(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, func(id uuid.UUID, p store.PageRequest) (*store.Page[models.User], error) {
		return h.followStore.Followers(r.Context(), id, p)
	})
}

// Following lists who a user follows.
func (h *Users) Following(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, func(id uuid.UUID, p store.PageRequest) (*store.Page[models.User], error) {
		return h.followStore.Following(r.Context(), id, p)
	})
}

// Mutual lists users that follow a user back.
func (h *Users) Mutual(w http.ResponseWriter, r *http.Request) {
	h.followList(w, r, func(id uuid.UUID, p store.PageRequest) (*store.Page[models.User], error) {
		return h.followStore.Mutual(r.Context(), id, p)
	})
}

// Suggestions lists users followed by the people the caller follows.
func (h *Users) Suggestions(w http.ResponseWriter, r *http.Request) {
	page, err := h.followStore.Suggestions(r.Context(), principal(r).UserID, pageRequest(r))
	writeProfiles(w, r, page, err)
}

// Blogs lists a user's blogs. Authors and moderators also see unpublished
// ones.
func (h *Users) Blogs(w http.ResponseWriter, r *http.Request) {
	u, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p := principal(r)
	all := p != nil && (p.UserID == u.ID || p.Role.CanModerate())
	page, err := h.blogs.blogStore.ListByAuthor(r.Context(), u.ID, all, pageRequest(r))
	h.blogs.writePage(w, r, page, err)
}

// Comments lists a user's comments.
func (h *Users) Comments(w http.ResponseWriter, r *http.Request) {
	u, err := h.lookup(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	page, err := h.commentStore.ByAuthor(r.Context(), u.ID, pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Follow makes the caller follow {ref}.
func (h *Users) Follow(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.users.Follow(r.Context(), principal(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Unfollow removes the caller's follow of {ref}.
func (h *Users) Unfollow(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.Unfollow(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Administration ---

// List pages through every account, including private fields. Admins only.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.userStore.List(r.Context(), pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

// SetRole changes a user's role.
func (h *Users) SetRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.SetRole(r.Context(), principal(r), id, req.Role); err != nil {
		fail(w, r, err)
		return
	}
	h.forget(id)
	writeJSON(w, http.StatusOK, req)
}

type activeRequest struct {
	Active bool `json:"active"`
}

// SetActive enables or disables an account.
func (h *Users) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req activeRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.SetActive(r.Context(), principal(r), id, req.Active); err != nil {
		fail(w, r, err)
		return
	}
	h.forget(id)
	writeJSON(w, http.StatusOK, req)
}

// ResetTwoFA disables two-factor login for a user.
func (h *Users) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "ref")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.ResetTOTP(r.Context(), principal(r), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Users) forget(id uuid.UUID) {
	if h.cache != nil {
		h.cache.Forget(id)
	}
}
