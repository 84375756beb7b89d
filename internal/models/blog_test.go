// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{name: "empty", words: 0, want: 1},
		{name: "fifty words", words: 50, want: 1},
		{name: "just under half", words: 299, want: 1},
		{name: "half rounds up", words: 300, want: 2},
		{name: "four hundred words", words: 400, want: 2},
		{name: "thousand words", words: 1000, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingTime(words(tt.words)))
		})
	}
}

func TestReadingTimeIgnoresMarkup(t *testing.T) {
	content := "# Title\n\n<p>" + words(398) + "</p>"
	assert.Equal(t, 2, ReadingTime(content))
}

func TestSetContentRecomputesReadingTime(t *testing.T) {
	b := NewBlog(uuid.New(), "Title", words(400))
	assert.Equal(t, BlogStatusDraft, b.Status)
	assert.Equal(t, 2, b.ReadingTimeMinutes)

	b.SetContent(words(50))
	assert.Equal(t, 1, b.ReadingTimeMinutes)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to BlogStatus
		want     bool
	}{
		{BlogStatusDraft, BlogStatusPublished, true},
		{BlogStatusDraft, BlogStatusScheduled, true},
		{BlogStatusDraft, BlogStatusArchived, true},
		{BlogStatusScheduled, BlogStatusPublished, true},
		{BlogStatusScheduled, BlogStatusDraft, true},
		{BlogStatusScheduled, BlogStatusArchived, false},
		{BlogStatusPublished, BlogStatusArchived, true},
		{BlogStatusPublished, BlogStatusDraft, true},
		{BlogStatusPublished, BlogStatusScheduled, false},
		{BlogStatusArchived, BlogStatusDraft, true},
		{BlogStatusArchived, BlogStatusPublished, false},
		{BlogStatusArchived, BlogStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPublishSetsTimestampOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBlog(uuid.New(), "T", "body")

	require.NoError(t, b.Publish(now))
	require.NotNil(t, b.PublishedAt)
	assert.Equal(t, now, *b.PublishedAt)
	assert.Nil(t, b.ScheduledAt)

	// Publishing again keeps the original time.
	require.NoError(t, b.Publish(now.Add(time.Hour)))
	assert.Equal(t, now, *b.PublishedAt)
}

func TestScheduleRequiresFuture(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBlog(uuid.New(), "T", "body")

	assert.Error(t, b.Schedule(now, now))
	assert.Error(t, b.Schedule(now.Add(-time.Minute), now))
	assert.Equal(t, BlogStatusDraft, b.Status)

	at := now.Add(time.Hour)
	require.NoError(t, b.Schedule(at, now))
	assert.Equal(t, BlogStatusScheduled, b.Status)
	assert.Equal(t, at, *b.ScheduledAt)
	assert.Nil(t, b.PublishedAt)

	require.NoError(t, b.Publish(at))
	assert.Nil(t, b.ScheduledAt)
	assert.Equal(t, at, *b.PublishedAt)
}

func TestArchiveKeepsTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBlog(uuid.New(), "T", "body")
	require.NoError(t, b.Publish(now))
	require.NoError(t, b.Archive())
	assert.Equal(t, BlogStatusArchived, b.Status)
	assert.Equal(t, now, *b.PublishedAt)

	var te *TransitionError
	err := b.Publish(now)
	require.Error(t, err)
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, BlogStatusArchived, te.From)
}

func TestMakeDraftClearsTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBlog(uuid.New(), "T", "body")
	require.NoError(t, b.Publish(now))
	require.NoError(t, b.MakeDraft())
	assert.Nil(t, b.PublishedAt)
	assert.Nil(t, b.ScheduledAt)

	later := now.Add(24 * time.Hour)
	require.NoError(t, b.Publish(later))
	assert.Equal(t, later, *b.PublishedAt)
}

// TestPublishedAtFollowsStatus drives random-ish operation sequences and
// checks that published blogs always carry a publish time and drafts never do.
func TestPublishedAtFollowsStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ops := []func(b *Blog){
		func(b *Blog) { _ = b.Publish(now) },
		func(b *Blog) { _ = b.Schedule(now.Add(time.Hour), now) },
		func(b *Blog) { _ = b.Archive() },
		func(b *Blog) { _ = b.MakeDraft() },
	}

	// Every sequence of length 4 over the four operations.
	for i := 0; i < 256; i++ {
		b := NewBlog(uuid.New(), "T", "body")
		seq := i
		for step := 0; step < 4; step++ {
			ops[seq%4](b)
			seq /= 4

			switch b.Status {
			case BlogStatusPublished:
				require.NotNil(t, b.PublishedAt, "sequence %d step %d", i, step)
				require.Nil(t, b.ScheduledAt)
			case BlogStatusDraft:
				require.Nil(t, b.PublishedAt, "sequence %d step %d", i, step)
				require.Nil(t, b.ScheduledAt)
			case BlogStatusScheduled:
				require.NotNil(t, b.ScheduledAt)
			}
		}
	}
}

func TestEffectiveSummary(t *testing.T) {
	long := strings.Repeat("a", 200)
	b := NewBlog(uuid.New(), "T", long)
	got := b.EffectiveSummary()
	assert.Equal(t, strings.Repeat("a", 150)+"...", got)

	short := NewBlog(uuid.New(), "T", "**Short** body")
	assert.Equal(t, "Short body", short.EffectiveSummary())

	s := "Explicit"
	short.Summary = &s
	assert.Equal(t, "Explicit", short.EffectiveSummary())
	assert.Equal(t, "Explicit", short.EffectiveMetaDescription())
	assert.Equal(t, "T", short.EffectiveMetaTitle())
}

func TestParseBlogStatus(t *testing.T) {
	st, err := ParseBlogStatus("published")
	require.NoError(t, err)
	assert.Equal(t, BlogStatusPublished, st)

	_, err = ParseBlogStatus("deleted")
	assert.Error(t, err)
}
