// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSelfFollow is returned when a user tries to follow themselves.
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow is a directed edge from follower to following.
type Follow struct {
	ID                 uuid.UUID `json:"id"`
	FollowerID         uuid.UUID `json:"follower_id"`
	FollowingID        uuid.UUID `json:"following_id"`
	IsNotificationSent bool      `json:"is_notification_sent"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewFollow validates and builds a follow edge.
func NewFollow(follower, following uuid.UUID) (*Follow, error) {
	f := &Follow{FollowerID: follower, FollowingID: following}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate rejects self-follows and unset endpoints.
func (f *Follow) Validate() error {
	if f.FollowerID == uuid.Nil || f.FollowingID == uuid.Nil {
		return errors.New("follow requires both follower and following")
	}
	if f.FollowerID == f.FollowingID {
		return ErrSelfFollow
	}
	return nil
}
