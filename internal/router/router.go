// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// BlogNest API. Reads are open to anonymous callers; writes sit behind
// RequireAuth, and moderation and administration behind RequireRole.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"blognest/internal/cache"
	"blognest/internal/handlers"
	"blognest/internal/middleware"
	"blognest/internal/models"
)

// Handlers bundles the handler groups served by the router.
type Handlers struct {
	Auth          *handlers.Auth
	Blogs         *handlers.Blogs
	Comments      *handlers.Comments
	Taxonomy      *handlers.Taxonomy
	Users         *handlers.Users
	Notifications *handlers.Notifications
}

// New creates and returns the configured Chi router. limiter throttles the
// credential endpoints and responses caches the hot public listings; either
// may be nil.
func New(h Handlers, authn *middleware.Authenticator, limiter *middleware.RateLimiter, responses *cache.ResponseCache) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(authn.Load)

	r.Get("/health", healthHandler)

	moderator := middleware.RequireRole(models.RoleModerator)
	admin := middleware.RequireRole(models.RoleAdmin)
	cached := func(next http.Handler) http.Handler { return next }
	if responses != nil {
		cached = responses.Middleware
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if limiter != nil {
					r.Use(limiter.Middleware)
				}
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/logout", h.Auth.Logout)
				r.Get("/me", h.Auth.Me)
				r.Put("/me", h.Auth.UpdateProfile)
				r.Put("/me/password", h.Auth.ChangePassword)
				r.Post("/2fa/setup", h.Auth.TwoFASetup)
				r.Post("/2fa/verify", h.Auth.TwoFAVerify)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", h.Blogs.List)
			r.With(cached).Get("/trending", h.Blogs.Trending)
			r.With(cached).Get("/popular", h.Blogs.Popular)
			r.With(cached).Get("/featured", h.Blogs.Featured)
			r.With(cached).Get("/most-viewed", h.Blogs.MostViewed)
			r.With(cached).Get("/most-commented", h.Blogs.MostCommented)
			r.Get("/published", h.Blogs.PublishedBetween)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", h.Blogs.Create)
				r.Get("/feed", h.Blogs.Feed)
				r.Get("/mine", h.Blogs.Mine)
			})

			r.Group(func(r chi.Router) {
				r.Use(moderator)
				r.Get("/status/{status}", h.Blogs.ByStatus)
				r.Get("/low-engagement", h.Blogs.LowEngagement)
				r.Get("/old-drafts", h.Blogs.OldDrafts)
				r.Get("/stats", h.Blogs.Stats)
			})

			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", h.Blogs.Get)
				r.Get("/similar", h.Blogs.Similar)
				r.Get("/likes", h.Blogs.Likes)
				r.Get("/comments", h.Comments.ForBlog)
				r.Post("/view", h.Blogs.View)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Put("/", h.Blogs.Update)
					r.Delete("/", h.Blogs.Delete)
					r.Post("/publish", h.Blogs.Publish)
					r.Post("/schedule", h.Blogs.Schedule)
					r.Post("/archive", h.Blogs.Archive)
					r.Post("/draft", h.Blogs.Draft)
					r.Post("/like", h.Blogs.Like)
					r.Delete("/like", h.Blogs.Unlike)
					r.Post("/comments", h.Comments.Create)
					r.Get("/comments/participants", h.Comments.Participants)
				})

				r.With(moderator).Put("/featured", h.Blogs.SetFeatured)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/trending", h.Comments.Trending)

			r.Group(func(r chi.Router) {
				r.Use(moderator)
				r.Get("/pending", h.Comments.Pending)
				r.Get("/search", h.Comments.Search)
				r.Get("/low-engagement", h.Comments.LowEngagement)
				r.Get("/stats", h.Comments.Stats)
				r.Post("/approve", h.Comments.Approve)
				r.Post("/reject", h.Comments.Reject)
				r.Post("/bulk-delete", h.Comments.BulkDelete)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Comments.Get)
				r.Get("/thread", h.Comments.Thread)
				r.Get("/replies", h.Comments.Replies)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Put("/", h.Comments.Edit)
					r.Delete("/", h.Comments.Delete)
					r.Post("/like", h.Comments.Like)
					r.Delete("/like", h.Comments.Unlike)
				})

				r.With(moderator).Delete("/purge", h.Comments.Purge)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(cached).Get("/", h.Taxonomy.CategoryTree)
			r.Get("/flat", h.Taxonomy.CategoryList)
			r.Get("/{ref}", h.Taxonomy.GetCategory)
			r.Get("/{ref}/ancestors", h.Taxonomy.Ancestors)
			r.Get("/{ref}/descendants", h.Taxonomy.Descendants)
			r.Get("/{ref}/children", h.Taxonomy.Children)
			r.Get("/{ref}/blogs", h.Taxonomy.CategoryBlogs)

			r.Group(func(r chi.Router) {
				r.Use(moderator)
				r.Post("/", h.Taxonomy.CreateCategory)
				r.Put("/{ref}", h.Taxonomy.UpdateCategory)
				r.Put("/{ref}/parent", h.Taxonomy.MoveCategory)
				r.Delete("/{ref}", h.Taxonomy.DeleteCategory)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.Taxonomy.TagList)
			r.With(cached).Get("/popular", h.Taxonomy.PopularTags)
			r.Get("/{slug}", h.Taxonomy.GetTag)
			r.Get("/{slug}/blogs", h.Taxonomy.TagBlogs)

			r.Group(func(r chi.Router) {
				r.Use(moderator)
				r.Post("/", h.Taxonomy.CreateTag)
				r.Put("/{slug}", h.Taxonomy.UpdateTag)
				r.Delete("/{slug}", h.Taxonomy.DeleteTag)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/search", h.Users.Search)
			r.With(cached).Get("/top-authors", h.Users.TopAuthors)
			r.With(middleware.RequireAuth).Get("/suggestions", h.Users.Suggestions)
			r.With(admin).Get("/", h.Users.List)

			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", h.Users.Get)
				r.Get("/followers", h.Users.Followers)
				r.Get("/following", h.Users.Following)
				r.Get("/mutual", h.Users.Mutual)
				r.Get("/blogs", h.Users.Blogs)
				r.Get("/comments", h.Users.Comments)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Post("/follow", h.Users.Follow)
					r.Delete("/follow", h.Users.Unfollow)
				})

				// User management, admin only.
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Put("/role", h.Users.SetRole)
					r.Put("/active", h.Users.SetActive)
					r.Post("/reset-2fa", h.Users.ResetTwoFA)
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.Notifications.List)
			r.Get("/unread-count", h.Notifications.UnreadCount)
			r.Get("/types", h.Notifications.Types)
			r.Post("/read-all", h.Notifications.MarkAllRead)
			r.Post("/{id}/read", h.Notifications.MarkRead)
			r.Delete("/{id}", h.Notifications.Delete)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
