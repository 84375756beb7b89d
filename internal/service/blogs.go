// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/logging"
	"blognest/internal/models"
	"blognest/internal/slug"
	"blognest/internal/store"
)

// MaxTagsPerBlog caps the tags attached to one blog.
const MaxTagsPerBlog = 10

// Blogs handles blog authoring, the status machine and featured flags.
type Blogs struct {
	base
}

// NewBlogs wires the blog service.
func NewBlogs(d Deps) *Blogs {
	return &Blogs{base: newBase(d)}
}

// BlogInput carries the editable fields of a blog. Nil pointers leave a
// field unchanged on update; a nil Tags slice leaves tags untouched.
type BlogInput struct {
	Title             string
	Slug              string
	Content           string
	Summary           *string
	CategoryID        *uuid.UUID
	FeaturedImageURL  *string
	IsCommentsEnabled *bool
	MetaTitle         *string
	MetaDescription   *string
	MetaKeywords      *string
	Tags              []string
}

func (in BlogInput) apply(b *models.Blog) {
	if t := strings.TrimSpace(in.Title); t != "" {
		b.Title = t
	}
	if in.Content != "" {
		b.SetContent(in.Content)
	}
	if in.Summary != nil {
		b.Summary = in.Summary
	}
	if in.FeaturedImageURL != nil {
		b.FeaturedImageURL = in.FeaturedImageURL
	}
	if in.IsCommentsEnabled != nil {
		b.IsCommentsEnabled = *in.IsCommentsEnabled
	}
	if in.MetaTitle != nil {
		b.MetaTitle = in.MetaTitle
	}
	if in.MetaDescription != nil {
		b.MetaDescription = in.MetaDescription
	}
	if in.MetaKeywords != nil {
		b.MetaKeywords = in.MetaKeywords
	}
}

// Create writes a new draft, bumps the author's and category's blog counts
// and links tags.
func (s *Blogs) Create(ctx context.Context, p *auth.Principal, in BlogInput) (*models.Blog, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperr.E(apperr.Validation, "title and content are required")
	}

	b := models.NewBlog(p.UserID, strings.TrimSpace(in.Title), in.Content)
	in.apply(b)
	b.CategoryID = in.CategoryID

	var created *models.Blog
	err := s.inTx(ctx, func(o *outbox) error {
		blogs := store.NewBlogStore(o.tx)
		var err error
		if b.Slug, err = uniqueSlug(ctx, blogs, in.Slug, b.Title); err != nil {
			return err
		}
		if b.CategoryID != nil {
			if err := requireActiveCategory(ctx, o.tx, *b.CategoryID); err != nil {
				return err
			}
		}
		if created, err = blogs.Create(ctx, b, p.Actor()); err != nil {
			return err
		}
		if err := store.Increment(ctx, o.tx, store.UserBlogs, p.UserID); err != nil {
			return err
		}
		if created.CategoryID != nil {
			if err := store.NewCategoryStore(o.tx).AdjustBlogCount(ctx, *created.CategoryID, 1); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if created.Tags, err = setTags(ctx, o.tx, created.ID, in.Tags, p.Actor()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// uniqueSlug derives a slug from the requested one or the title, adding a
// random suffix when it is already taken.
func uniqueSlug(ctx context.Context, blogs *store.BlogStore, requested, title string) (string, error) {
	source := requested
	if strings.TrimSpace(source) == "" {
		source = title
	}
	s := slug.Generate(source)
	if s == "" {
		return slug.WithSuffix(title), nil
	}
	taken, err := blogs.SlugExists(ctx, s)
	if err != nil {
		return "", err
	}
	if taken {
		return slug.WithSuffix(source), nil
	}
	return s, nil
}

func requireActiveCategory(ctx context.Context, db store.DBTX, id uuid.UUID) error {
	c, err := store.NewCategoryStore(db).FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return apperr.E(apperr.Validation, "category %q is not active", c.Name)
	}
	return nil
}

// setTags makes the blog's tags exactly names, creating tags on first use.
func setTags(ctx context.Context, tx *sql.Tx, blogID uuid.UUID, names []string, by string) ([]models.Tag, error) {
	tags := store.NewTagStore(tx)
	wanted := make(map[uuid.UUID]bool)
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		s := slug.Generate(name)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		if len(seen) > MaxTagsPerBlog {
			return nil, apperr.E(apperr.Validation, "a blog may have at most %d tags", MaxTagsPerBlog)
		}
		t, err := tags.FindOrCreate(ctx, name, s, by)
		if err != nil {
			return nil, err
		}
		wanted[t.ID] = true
	}

	current, err := tags.TagIDsForBlog(ctx, blogID)
	if err != nil {
		return nil, err
	}
	for _, id := range current {
		if wanted[id] {
			delete(wanted, id)
			continue
		}
		if _, err := tags.Detach(ctx, blogID, id); err != nil {
			return nil, err
		}
	}
	for id := range wanted {
		if _, err := tags.Attach(ctx, blogID, id); err != nil {
			return nil, err
		}
	}
	return tags.ForBlog(ctx, blogID)
}

// Update edits a draft or scheduled blog at the given version. Moving it to
// another category shifts the category counts.
func (s *Blogs) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, version int64, in BlogInput) (*models.Blog, error) {
	var updated *models.Blog
	err := s.inTx(ctx, func(o *outbox) error {
		blogs := store.NewBlogStore(o.tx)
		b, err := blogs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireOwnerOr(p, b.AuthorID, models.RoleModerator); err != nil {
			return err
		}
		if !b.Status.CanBeEdited() {
			return apperr.E(apperr.Validation, "a %s blog must be returned to draft before editing", strings.ToLower(string(b.Status)))
		}

		oldCategory := b.CategoryID
		in.apply(b)
		if in.Slug != "" && slug.Generate(in.Slug) != b.Slug {
			if b.Slug, err = uniqueSlug(ctx, blogs, in.Slug, b.Title); err != nil {
				return err
			}
		}
		if in.CategoryID != nil {
			if err := requireActiveCategory(ctx, o.tx, *in.CategoryID); err != nil {
				return err
			}
			b.CategoryID = in.CategoryID
		}
		b.Version = version

		if updated, err = blogs.Update(ctx, b, p.Actor()); err != nil {
			return err
		}
		if err := moveCategory(ctx, o.tx, oldCategory, updated.CategoryID); err != nil {
			return err
		}
		if in.Tags != nil {
			updated.Tags, err = setTags(ctx, o.tx, updated.ID, in.Tags, p.Actor())
			return err
		}
		updated.Tags, err = store.NewTagStore(o.tx).ForBlog(ctx, updated.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func moveCategory(ctx context.Context, tx *sql.Tx, from, to *uuid.UUID) error {
	if uuidPtrEqual(from, to) {
		return nil
	}
	categories := store.NewCategoryStore(tx)
	if from != nil {
		if err := categories.AdjustBlogCount(ctx, *from, -1); err != nil {
			return err
		}
	}
	if to != nil {
		return categories.AdjustBlogCount(ctx, *to, 1)
	}
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// transition locks the blog, applies move and writes the result.
func (s *Blogs) transition(ctx context.Context, p *auth.Principal, id uuid.UUID, move func(b *models.Blog, now time.Time) error) (*models.Blog, error) {
	var updated *models.Blog
	err := s.inTx(ctx, func(o *outbox) error {
		blogs := store.NewBlogStore(o.tx)
		b, err := blogs.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := requireOwnerOr(p, b.AuthorID, models.RoleModerator); err != nil {
			return err
		}
		if err := move(b, s.clock.Now()); err != nil {
			return apperr.Wrap(apperr.Validation, err, err.Error())
		}
		updated, err = blogs.Update(ctx, b, p.Actor())
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Publish makes the blog live now.
func (s *Blogs) Publish(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, p, id, func(b *models.Blog, now time.Time) error { return b.Publish(now) })
}

// Schedule queues the blog for publication at t.
func (s *Blogs) Schedule(ctx context.Context, p *auth.Principal, id uuid.UUID, t time.Time) (*models.Blog, error) {
	return s.transition(ctx, p, id, func(b *models.Blog, now time.Time) error { return b.Schedule(t.UTC(), now) })
}

// Archive hides the blog.
func (s *Blogs) Archive(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, p, id, func(b *models.Blog, _ time.Time) error { return b.Archive() })
}

// MakeDraft returns the blog to draft.
func (s *Blogs) MakeDraft(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Blog, error) {
	return s.transition(ctx, p, id, func(b *models.Blog, _ time.Time) error { return b.MakeDraft() })
}

// Delete removes a blog with its comments, likes and tag links, and lowers
// the author, category and tag counts it contributed to.
func (s *Blogs) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	return s.inTx(ctx, func(o *outbox) error {
		blogs := store.NewBlogStore(o.tx)
		b, err := blogs.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := requireOwnerOr(p, b.AuthorID, models.RoleModerator); err != nil {
			return err
		}
		tagIDs, err := store.NewTagStore(o.tx).TagIDsForBlog(ctx, id)
		if err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			if _, err := store.AdjustMany(ctx, o.tx, store.TagUsage, tagIDs, -1); err != nil {
				return err
			}
		}
		if err := store.Decrement(ctx, o.tx, store.UserBlogs, b.AuthorID); err != nil {
			return err
		}
		if err := moveCategory(ctx, o.tx, b.CategoryID, nil); err != nil {
			return err
		}
		return blogs.Delete(ctx, id)
	})
}

// Get returns a blog by slug. Unpublished blogs are only visible to their
// author and moderators; everyone else gets NotFound.
func (s *Blogs) Get(ctx context.Context, p *auth.Principal, blogSlug string) (*models.Blog, error) {
	b, err := store.NewBlogStore(s.db).FindBySlug(ctx, blogSlug)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, p, b)
}

// GetByID is Get keyed by id.
func (s *Blogs) GetByID(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Blog, error) {
	b, err := store.NewBlogStore(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, p, b)
}

func (s *Blogs) visible(ctx context.Context, p *auth.Principal, b *models.Blog) (*models.Blog, error) {
	if !CanView(p, b) {
		return nil, apperr.E(apperr.NotFound, "blog not found")
	}
	list := []models.Blog{*b}
	if err := store.NewBlogStore(s.db).LoadTags(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CanView reports whether p may read b.
func CanView(p *auth.Principal, b *models.Blog) bool {
	if b.Status.IsPubliclyVisible() {
		return true
	}
	return p != nil && (p.UserID == b.AuthorID || p.Role.CanModerate())
}

// RecordView counts one view of a published blog.
func (s *Blogs) RecordView(ctx context.Context, id uuid.UUID) error {
	b, err := store.NewBlogStore(s.db).FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsPublished() {
		return apperr.E(apperr.NotFound, "blog not found")
	}
	return store.Increment(ctx, s.db, store.BlogViews, id)
}

// SetFeatured toggles the featured flag. Moderators only; the author hears
// about it when the blog is featured.
func (s *Blogs) SetFeatured(ctx context.Context, p *auth.Principal, id uuid.UUID, featured bool) error {
	if err := requireRole(p, models.RoleModerator); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error {
		blogs := store.NewBlogStore(o.tx)
		b, err := blogs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if featured && !b.IsPublished() {
			return apperr.E(apperr.Validation, "only published blogs can be featured")
		}
		if err := blogs.SetFeatured(ctx, id, featured, p.Actor()); err != nil {
			return err
		}
		if !featured || b.IsFeatured {
			return nil
		}
		n := models.NewNotification(b.AuthorID, models.NotifyBlogFeatured)
		n.ActorID = &p.UserID
		n.RelatedBlogID = &b.ID
		n.Message = "\"" + b.Title + "\" is now featured"
		return o.notify(ctx, n)
	})
}

// Sweep publishes every scheduled blog that is due and notifies authors.
// Overlapping sweeps publish each blog once.
func (s *Blogs) Sweep(ctx context.Context) ([]store.ScheduledPublish, error) {
	var published []store.ScheduledPublish
	err := s.inTx(ctx, func(o *outbox) error {
		var err error
		published, err = store.NewBlogStore(o.tx).PublishScheduled(ctx, s.clock.Now())
		if err != nil {
			return err
		}
		for _, sp := range published {
			n := models.NewNotification(sp.AuthorID, models.NotifyBlogPublished)
			n.RelatedBlogID = ptr(sp.ID)
			n.ActionURL = ptr("/api/blogs/" + sp.Slug)
			n.Message = "\"" + sp.Title + "\" has been published"
			if err := o.notify(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(published) > 0 {
		logging.L().Info("scheduled blogs published", zap.Int("count", len(published)))
	}
	return published, nil
}
