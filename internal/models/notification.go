// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotifyBlogLiked         NotificationType = "BLOG_LIKED"
	NotifyBlogCommented     NotificationType = "BLOG_COMMENTED"
	NotifyCommentReplied    NotificationType = "COMMENT_REPLIED"
	NotifyCommentLiked      NotificationType = "COMMENT_LIKED"
	NotifyUserFollowed      NotificationType = "USER_FOLLOWED"
	NotifyUserUnfollowed    NotificationType = "USER_UNFOLLOWED"
	NotifyBlogPublished     NotificationType = "BLOG_PUBLISHED"
	NotifyBlogFeatured      NotificationType = "BLOG_FEATURED"
	NotifyBlogApproved      NotificationType = "BLOG_APPROVED"
	NotifyBlogRejected      NotificationType = "BLOG_REJECTED"
	NotifyCommentApproved   NotificationType = "COMMENT_APPROVED"
	NotifyCommentRejected   NotificationType = "COMMENT_REJECTED"
	NotifyCommentFlagged    NotificationType = "COMMENT_FLAGGED"
	NotifyWelcome           NotificationType = "WELCOME"
	NotifyAccountVerified   NotificationType = "ACCOUNT_VERIFIED"
	NotifyPasswordChanged   NotificationType = "PASSWORD_CHANGED"
	NotifySecurityAlert     NotificationType = "SECURITY_ALERT"
	NotifyNewUserRegistered NotificationType = "NEW_USER_REGISTERED"
	NotifyContentReported   NotificationType = "CONTENT_REPORTED"
	NotifySystemMaintenance NotificationType = "SYSTEM_MAINTENANCE"
	NotifyMilestoneReached  NotificationType = "MILESTONE_REACHED"
	NotifyWeeklyDigest      NotificationType = "WEEKLY_DIGEST"
	NotifyTrendingBlog      NotificationType = "TRENDING_BLOG"
)

// NotificationMeta is the display metadata attached to a type.
type NotificationMeta struct {
	DisplayName    string `json:"display_name"`
	DefaultMessage string `json:"default_message"`
	Icon           string `json:"icon"`
	Color          string `json:"color"`
	Priority       int    `json:"priority"` // 1 (low) to 5 (high)
	RequiresEmail  bool   `json:"requires_email"`
	Description    string `json:"description"`
}

var notificationMeta = map[NotificationType]NotificationMeta{
	NotifyBlogLiked:         {"Blog Liked", "Someone liked your blog post", "👍", "#10B981", 3, true, "Notification sent when someone likes your blog post"},
	NotifyBlogCommented:     {"Blog Commented", "Someone commented on your blog post", "💬", "#3B82F6", 4, true, "Notification sent when someone comments on your blog"},
	NotifyCommentReplied:    {"Comment Replied", "Someone replied to your comment", "↩️", "#6366F1", 4, true, "Notification sent when someone replies to your comment"},
	NotifyCommentLiked:      {"Comment Liked", "Someone liked your comment", "❤️", "#EF4444", 2, false, "Notification sent when someone likes your comment"},
	NotifyUserFollowed:      {"New Follower", "Someone started following you", "👥", "#8B5CF6", 3, true, "Notification sent when someone follows you"},
	NotifyUserUnfollowed:    {"Unfollowed", "Someone unfollowed you", "👥", "#6B7280", 1, false, "Notification sent when someone unfollows you"},
	NotifyBlogPublished:     {"Blog Published", "Your blog post has been published", "🚀", "#059669", 4, false, "Notification sent when your blog is published"},
	NotifyBlogFeatured:      {"Blog Featured", "Your blog post has been featured", "⭐", "#F59E0B", 5, true, "Notification sent when your blog is featured"},
	NotifyBlogApproved:      {"Blog Approved", "Your blog post has been approved", "✅", "#10B981", 3, true, "Notification sent when your blog is approved by moderators"},
	NotifyBlogRejected:      {"Blog Rejected", "Your blog post was rejected", "❌", "#EF4444", 4, true, "Notification sent when your blog is rejected"},
	NotifyCommentApproved:   {"Comment Approved", "Your comment has been approved", "✅", "#10B981", 2, false, "Notification sent when your comment is approved"},
	NotifyCommentRejected:   {"Comment Rejected", "Your comment was rejected", "❌", "#EF4444", 3, true, "Notification sent when your comment is rejected"},
	NotifyCommentFlagged:    {"Comment Flagged", "Your comment has been flagged", "🚩", "#F97316", 4, true, "Notification sent when your comment is flagged"},
	NotifyWelcome:           {"Welcome", "Welcome to BlogNest!", "🎉", "#8B5CF6", 3, true, "Welcome notification for new users"},
	NotifyAccountVerified:   {"Account Verified", "Your account has been verified", "✅", "#10B981", 4, true, "Notification sent when account is verified"},
	NotifyPasswordChanged:   {"Password Changed", "Your password has been changed", "🔒", "#F59E0B", 4, true, "Security notification for password changes"},
	NotifySecurityAlert:     {"Security Alert", "Security alert for your account", "🚨", "#EF4444", 5, true, "Important security alerts"},
	NotifyNewUserRegistered: {"New User", "A new user has registered", "👤", "#3B82F6", 2, false, "Admin notification for new user registrations"},
	NotifyContentReported:   {"Content Reported", "Content has been reported", "🚩", "#F97316", 4, false, "Admin notification for reported content"},
	NotifySystemMaintenance: {"System Maintenance", "System maintenance notification", "⚙️", "#6B7280", 3, false, "System maintenance announcements"},
	NotifyMilestoneReached:  {"Milestone Reached", "You've reached a new milestone", "🎯", "#10B981", 4, true, "Celebration notification for achievements"},
	NotifyWeeklyDigest:      {"Weekly Digest", "Your weekly blog digest", "📊", "#3B82F6", 2, true, "Weekly summary of activities"},
	NotifyTrendingBlog:      {"Trending Blog", "Your blog is trending", "🔥", "#EF4444", 4, true, "Notification when your blog is trending"},
}

// ParseNotificationType validates a type name.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	if _, ok := notificationMeta[t]; !ok {
		return "", fmt.Errorf("unknown notification type %q", s)
	}
	return t, nil
}

// NotificationTypes returns every known type in name order.
func NotificationTypes() []NotificationType {
	return slices.Sorted(maps.Keys(notificationMeta))
}

// Meta returns the display metadata for the type.
func (t NotificationType) Meta() NotificationMeta { return notificationMeta[t] }

// Valid reports whether t is a declared type.
func (t NotificationType) Valid() bool {
	_, ok := notificationMeta[t]
	return ok
}

// RequiresEmail reports whether an email should accompany the notification.
func (t NotificationType) RequiresEmail() bool { return notificationMeta[t].RequiresEmail }

// IsSocial reports whether the type stems from another user's interaction.
func (t NotificationType) IsSocial() bool {
	switch t {
	case NotifyBlogLiked, NotifyBlogCommented, NotifyCommentReplied,
		NotifyCommentLiked, NotifyUserFollowed, NotifyUserUnfollowed:
		return true
	}
	return false
}

// IsSystem reports whether the type is account or platform level.
func (t NotificationType) IsSystem() bool {
	switch t {
	case NotifyWelcome, NotifyAccountVerified, NotifyPasswordChanged,
		NotifySecurityAlert, NotifySystemMaintenance, NotifyWeeklyDigest:
		return true
	}
	return false
}

// IsAdmin reports whether the type is addressed to administrators.
func (t NotificationType) IsAdmin() bool {
	switch t {
	case NotifyNewUserRegistered, NotifyContentReported, NotifySystemMaintenance:
		return true
	}
	return false
}

// IsHighPriority is true for priority 4 and 5.
func (t NotificationType) IsHighPriority() bool { return notificationMeta[t].Priority >= 4 }

// IsLowPriority is true for priority 1 and 2.
func (t NotificationType) IsLowPriority() bool {
	p := notificationMeta[t].Priority
	return p > 0 && p <= 2
}

// CanBeDisabled reports whether a user may opt out of the type.
func (t NotificationType) CanBeDisabled() bool {
	switch t {
	case NotifySecurityAlert, NotifyPasswordChanged, NotifyAccountVerified:
		return false
	}
	return true
}

// Notification is addressed to one recipient, optionally attributed to an
// actor, and may reference a blog, comment or user.
type Notification struct {
	ID               uuid.UUID        `json:"id"`
	RecipientID      uuid.UUID        `json:"recipient_id"`
	ActorID          *uuid.UUID       `json:"actor_id,omitempty"`
	Type             NotificationType `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	ActionURL        *string          `json:"action_url,omitempty"`
	IsRead           bool             `json:"is_read"`
	IsEmailSent      bool             `json:"is_email_sent"`
	RelatedBlogID    *uuid.UUID       `json:"related_blog_id,omitempty"`
	RelatedCommentID *uuid.UUID       `json:"related_comment_id,omitempty"`
	RelatedUserID    *uuid.UUID       `json:"related_user_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewNotification fills title and message from the type's metadata.
func NewNotification(recipient uuid.UUID, t NotificationType) *Notification {
	m := t.Meta()
	return &Notification{
		RecipientID: recipient,
		Type:        t,
		Title:       m.DisplayName,
		Message:     m.DefaultMessage,
	}
}

// Icon returns the type icon.
func (n *Notification) Icon() string { return n.Type.Meta().Icon }

// Priority returns the type priority.
func (n *Notification) Priority() int { return n.Type.Meta().Priority }
