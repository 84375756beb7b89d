// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeTargetFromColumns(t *testing.T) {
	id := uuid.New()
	other := uuid.New()

	target, err := LikeTargetFromColumns(&id, nil)
	require.NoError(t, err)
	assert.Equal(t, BlogTarget{ID: id}, target)

	target, err = LikeTargetFromColumns(nil, &id)
	require.NoError(t, err)
	assert.Equal(t, CommentTarget{ID: id}, target)

	_, err = LikeTargetFromColumns(nil, nil)
	assert.Error(t, err)
	_, err = LikeTargetFromColumns(&id, &other)
	assert.Error(t, err)
}

func TestLikeTargetColumns(t *testing.T) {
	id := uuid.New()

	blogID, commentID := Columns(BlogTarget{ID: id})
	require.NotNil(t, blogID)
	assert.Nil(t, commentID)
	assert.Equal(t, id, *blogID)

	blogID, commentID = Columns(CommentTarget{ID: id})
	assert.Nil(t, blogID)
	require.NotNil(t, commentID)
	assert.Equal(t, id, *commentID)
}

func TestParseLikeTarget(t *testing.T) {
	id := uuid.New()
	target, err := ParseLikeTarget("comment", id)
	require.NoError(t, err)
	assert.Equal(t, TargetComment, target.Kind())

	_, err = ParseLikeTarget("user", id)
	assert.Error(t, err)
	_, err = ParseLikeTarget("blog", uuid.Nil)
	assert.Error(t, err)
}

func TestLikeJSON(t *testing.T) {
	id := uuid.New()
	b, err := json.Marshal(Like{ID: uuid.New(), UserID: uuid.New(), Target: BlogTarget{ID: id}})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "blog", m["target_type"])
	assert.Equal(t, id.String(), m["target_id"])
}

func TestFollowValidate(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	_, err := NewFollow(a, a)
	assert.True(t, errors.Is(err, ErrSelfFollow))

	_, err = NewFollow(uuid.Nil, b)
	assert.Error(t, err)

	f, err := NewFollow(a, b)
	require.NoError(t, err)
	assert.Equal(t, a, f.FollowerID)
	assert.Equal(t, b, f.FollowingID)
}

func TestCommentSoftDelete(t *testing.T) {
	c := &Comment{Content: "hello", IsApproved: true, RepliesCount: 2}
	assert.True(t, c.IsVisible())
	assert.True(t, c.IsTopLevel())
	assert.True(t, c.HasReplies())

	c.SoftDelete()
	assert.True(t, c.IsDeleted)
	assert.Equal(t, DeletedCommentContent, c.Content)
	assert.False(t, c.IsVisible())
	assert.Equal(t, int64(2), c.RepliesCount)
}

func TestCommentEdit(t *testing.T) {
	c := &Comment{Content: "hello"}
	reason := "  typo "
	c.Edit("hello there", &reason)
	assert.True(t, c.IsEdited)
	assert.Equal(t, "hello there", c.Content)
	require.NotNil(t, c.EditReason)
	assert.Equal(t, "typo", *c.EditReason)
}

func TestNotificationTypeMetadata(t *testing.T) {
	tests := []struct {
		typ           NotificationType
		priority      int
		requiresEmail bool
		social        bool
		system        bool
		admin         bool
		canDisable    bool
	}{
		{NotifyBlogLiked, 3, true, true, false, false, true},
		{NotifyCommentLiked, 2, false, true, false, false, true},
		{NotifyUserUnfollowed, 1, false, true, false, false, true},
		{NotifyBlogFeatured, 5, true, false, false, false, true},
		{NotifySecurityAlert, 5, true, false, true, false, false},
		{NotifyPasswordChanged, 4, true, false, true, false, false},
		{NotifySystemMaintenance, 3, false, false, true, true, true},
		{NotifyNewUserRegistered, 2, false, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.priority, tt.typ.Meta().Priority)
			assert.Equal(t, tt.requiresEmail, tt.typ.RequiresEmail())
			assert.Equal(t, tt.social, tt.typ.IsSocial())
			assert.Equal(t, tt.system, tt.typ.IsSystem())
			assert.Equal(t, tt.admin, tt.typ.IsAdmin())
			assert.Equal(t, tt.canDisable, tt.typ.CanBeDisabled())
			assert.Equal(t, tt.priority >= 4, tt.typ.IsHighPriority())
			assert.Equal(t, tt.priority <= 2, tt.typ.IsLowPriority())
		})
	}
}

func TestNotificationTypeText(t *testing.T) {
	tests := []struct {
		typ         NotificationType
		title       string
		message     string
		description string
	}{
		{NotifyBlogRejected, "Blog Rejected", "Your blog post was rejected", "Notification sent when your blog is rejected"},
		{NotifyCommentRejected, "Comment Rejected", "Your comment was rejected", "Notification sent when your comment is rejected"},
		{NotifyCommentFlagged, "Comment Flagged", "Your comment has been flagged", "Notification sent when your comment is flagged"},
		{NotifySecurityAlert, "Security Alert", "Security alert for your account", "Important security alerts"},
		{NotifyNewUserRegistered, "New User", "A new user has registered", "Admin notification for new user registrations"},
		{NotifyContentReported, "Content Reported", "Content has been reported", "Admin notification for reported content"},
		{NotifySystemMaintenance, "System Maintenance", "System maintenance notification", "System maintenance announcements"},
		{NotifyMilestoneReached, "Milestone Reached", "You've reached a new milestone", "Celebration notification for achievements"},
		{NotifyWeeklyDigest, "Weekly Digest", "Your weekly blog digest", "Weekly summary of activities"},
		{NotifyTrendingBlog, "Trending Blog", "Your blog is trending", "Notification when your blog is trending"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			m := tt.typ.Meta()
			assert.Equal(t, tt.title, m.DisplayName)
			assert.Equal(t, tt.message, m.DefaultMessage)
			assert.Equal(t, tt.description, m.Description)

			n := NewNotification(uuid.New(), tt.typ)
			assert.Equal(t, tt.title, n.Title)
			assert.Equal(t, tt.message, n.Message)
		})
	}
}

func TestEveryNotificationTypeHasMeta(t *testing.T) {
	for typ, m := range notificationMeta {
		assert.NotEmpty(t, m.DisplayName, typ)
		assert.NotEmpty(t, m.DefaultMessage, typ)
		assert.NotEmpty(t, m.Description, typ)
		assert.NotEmpty(t, m.Icon, typ)
		assert.Regexp(t, `^#[0-9A-F]{6}$`, m.Color, typ)
		assert.GreaterOrEqual(t, m.Priority, 1, typ)
		assert.LessOrEqual(t, m.Priority, 5, typ)
	}

	_, err := ParseNotificationType("NOPE")
	assert.Error(t, err)

	n := NewNotification(uuid.New(), NotifyUserFollowed)
	assert.Equal(t, "New Follower", n.Title)
	assert.Equal(t, "Someone started following you", n.Message)
}
