// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"blognest/internal/markdown"
)

// BlogStatus represents the publishing state of a blog post.
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "DRAFT"
	BlogStatusPublished BlogStatus = "PUBLISHED"
	BlogStatusScheduled BlogStatus = "SCHEDULED"
	BlogStatusArchived  BlogStatus = "ARCHIVED"
)

const (
	// WordsPerMinute is the reading speed used for reading-time estimates.
	WordsPerMinute = 200
	// SummaryLength is the number of characters kept for a derived summary.
	SummaryLength = 150
)

// transitions lists, for each status, the statuses it may move to.
var transitions = map[BlogStatus][]BlogStatus{
	BlogStatusDraft:     {BlogStatusPublished, BlogStatusScheduled, BlogStatusArchived},
	BlogStatusScheduled: {BlogStatusPublished, BlogStatusDraft, BlogStatusScheduled},
	BlogStatusPublished: {BlogStatusArchived, BlogStatusDraft},
	BlogStatusArchived:  {BlogStatusDraft},
}

// ParseBlogStatus parses a status name case-insensitively.
func ParseBlogStatus(s string) (BlogStatus, error) {
	st := BlogStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown blog status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether the state machine allows s → next.
func (s BlogStatus) CanTransitionTo(next BlogStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsPubliclyVisible reports whether blogs in this status may be served to
// anonymous readers. Only published blogs are.
func (s BlogStatus) IsPubliclyVisible() bool { return s == BlogStatusPublished }

// CanBeEdited reports whether content edits are allowed in this status.
func (s BlogStatus) CanBeEdited() bool {
	return s == BlogStatusDraft || s == BlogStatusScheduled
}

// CanReceiveInteractions reports whether likes and comments are accepted.
func (s BlogStatus) CanReceiveInteractions() bool { return s == BlogStatusPublished }

// TransitionError is returned when a status change is not allowed.
type TransitionError struct {
	From, To BlogStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("blog cannot move from %s to %s", e.From, e.To)
}

// Blog is a post written by one author, optionally filed under a category
// and tagged. ViewsCount, LikesCount and CommentsCount are maintained by
// atomic store updates.
type Blog struct {
	ID                 uuid.UUID  `json:"id"`
	AuthorID           uuid.UUID  `json:"author_id"`
	CategoryID         *uuid.UUID `json:"category_id,omitempty"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Summary            *string    `json:"summary,omitempty"`
	Content            string     `json:"content"`
	FeaturedImageURL   *string    `json:"featured_image_url,omitempty"`
	Status             BlogStatus `json:"status"`
	IsFeatured         bool       `json:"is_featured"`
	IsCommentsEnabled  bool       `json:"is_comments_enabled"`
	ViewsCount         int64      `json:"views_count"`
	LikesCount         int64      `json:"likes_count"`
	CommentsCount      int64      `json:"comments_count"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	MetaTitle          *string    `json:"meta_title,omitempty"`
	MetaDescription    *string    `json:"meta_description,omitempty"`
	MetaKeywords       *string    `json:"meta_keywords,omitempty"`
	Audit

	// Populated by store methods that join tags.
	Tags []Tag `json:"tags,omitempty"`
}

// NewBlog returns a draft with derived fields computed.
func NewBlog(authorID uuid.UUID, title, content string) *Blog {
	b := &Blog{
		AuthorID:          authorID,
		Title:             title,
		Status:            BlogStatusDraft,
		IsCommentsEnabled: true,
	}
	b.SetContent(content)
	return b
}

// ReadingTime estimates minutes to read content at WordsPerMinute,
// rounding half up, never less than one minute.
func ReadingTime(content string) int {
	words := markdown.WordCount(content)
	minutes := int(math.Floor(float64(words)/WordsPerMinute + 0.5))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// SetContent replaces the content and recomputes the reading time.
func (b *Blog) SetContent(content string) {
	b.Content = content
	b.ReadingTimeMinutes = ReadingTime(content)
}

// IsPublished returns true if the blog is in published status.
func (b *Blog) IsPublished() bool { return b.Status == BlogStatusPublished }

// IsDraft returns true if the blog is a draft.
func (b *Blog) IsDraft() bool { return b.Status == BlogStatusDraft }

// IsScheduled returns true if the blog waits for the scheduled-publish sweep.
func (b *Blog) IsScheduled() bool { return b.Status == BlogStatusScheduled }

func (b *Blog) moveTo(next BlogStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return &TransitionError{From: b.Status, To: next}
	}
	b.Status = next
	return nil
}

// Publish makes the blog live. An existing publish time is kept; only a blog
// that was never published (or was reset to draft) gets now.
func (b *Blog) Publish(now time.Time) error {
	if b.Status == BlogStatusPublished {
		return nil
	}
	if err := b.moveTo(BlogStatusPublished); err != nil {
		return err
	}
	if b.PublishedAt == nil {
		t := now
		b.PublishedAt = &t
	}
	b.ScheduledAt = nil
	return nil
}

// Schedule queues the blog for publication at t, which must be after now.
func (b *Blog) Schedule(t, now time.Time) error {
	if !t.After(now) {
		return fmt.Errorf("scheduled time %s is not in the future", t.Format(time.RFC3339))
	}
	if err := b.moveTo(BlogStatusScheduled); err != nil {
		return err
	}
	st := t
	b.ScheduledAt = &st
	return nil
}

// Archive hides the blog. Timestamps are left untouched.
func (b *Blog) Archive() error {
	if b.Status == BlogStatusArchived {
		return nil
	}
	return b.moveTo(BlogStatusArchived)
}

// MakeDraft returns the blog to draft and clears both timestamps.
func (b *Blog) MakeDraft() error {
	if b.Status != BlogStatusDraft {
		if err := b.moveTo(BlogStatusDraft); err != nil {
			return err
		}
	}
	b.PublishedAt = nil
	b.ScheduledAt = nil
	return nil
}

// EffectiveSummary returns the explicit summary, or the first SummaryLength
// characters of the plain-text content followed by "..." when truncated.
func (b *Blog) EffectiveSummary() string {
	if b.Summary != nil && strings.TrimSpace(*b.Summary) != "" {
		return *b.Summary
	}
	return DeriveSummary(b.Content)
}

// DeriveSummary builds a summary from content.
func DeriveSummary(content string) string {
	plain := []rune(markdown.PlainText(content))
	if len(plain) <= SummaryLength {
		return string(plain)
	}
	return strings.TrimSpace(string(plain[:SummaryLength])) + "..."
}

// EffectiveMetaTitle falls back to the title.
func (b *Blog) EffectiveMetaTitle() string {
	if b.MetaTitle != nil && strings.TrimSpace(*b.MetaTitle) != "" {
		return *b.MetaTitle
	}
	return b.Title
}

// EffectiveMetaDescription falls back to the effective summary.
func (b *Blog) EffectiveMetaDescription() string {
	if b.MetaDescription != nil && strings.TrimSpace(*b.MetaDescription) != "" {
		return *b.MetaDescription
	}
	return b.EffectiveSummary()
}

// BlogTag joins a blog to a tag.
type BlogTag struct {
	BlogID    uuid.UUID `json:"blog_id"`
	TagID     uuid.UUID `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
