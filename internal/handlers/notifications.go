// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"blognest/internal/models"
	"blognest/internal/store"
)

// Notifications serves the caller's in-app inbox. Every query is scoped to
// the recipient, so one user can never read or change another's rows.
type Notifications struct {
	store *store.NotificationStore
}

// NewNotifications creates a new Notifications handler group.
func NewNotifications(s *store.NotificationStore) *Notifications {
	return &Notifications{store: s}
}

// notificationView adds type metadata to a notification.
type notificationView struct {
	models.Notification
	Icon     string `json:"icon"`
	Priority int    `json:"priority"`
}

// List pages through the caller's notifications, newest first.
// ?unread=true limits it to unread ones.
func (h *Notifications) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.store.ByRecipient(r.Context(), principal(r).UserID, queryBool(r, "unread"), pageRequest(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	items := make([]notificationView, len(page.Items))
	for i, n := range page.Items {
		items[i] = notificationView{Notification: n, Icon: n.Icon(), Priority: n.Priority()}
	}
	writeJSON(w, http.StatusOK, store.Page[notificationView]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages,
	})
}

// UnreadCount returns {"unread": n}.
func (h *Notifications) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.UnreadCount(r.Context(), principal(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// MarkRead marks one notification read.
func (h *Notifications) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.store.MarkRead(r.Context(), principal(r).UserID, id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every unread notification read.
func (h *Notifications) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.MarkAllRead(r.Context(), principal(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

// Delete removes one notification.
func (h *Notifications) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), principal(r).UserID, id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// typeInfo describes one notification type for clients.
type typeInfo struct {
	Type models.NotificationType `json:"type"`
	models.NotificationMeta
	Social        bool `json:"social"`
	System        bool `json:"system"`
	Admin         bool `json:"admin"`
	CanBeDisabled bool `json:"can_be_disabled"`
}

// Types lists every notification type with its display metadata.
func (h *Notifications) Types(w http.ResponseWriter, r *http.Request) {
	all := models.NotificationTypes()
	out := make([]typeInfo, len(all))
	for i, t := range all {
		out[i] = typeInfo{
			Type:             t,
			NotificationMeta: t.Meta(),
			Social:           t.IsSocial(),
			System:           t.IsSystem(),
			Admin:            t.IsAdmin(),
			CanBeDisabled:    t.CanBeDisabled(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
