// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and the value types used throughout the application.
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authority level. Roles are totally ordered:
// RoleUser < RoleModerator < RoleAdmin. The zero value is not a valid role.
type Role int

const (
	RoleUser Role = iota + 1
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:      "USER",
	RoleModerator: "MODERATOR",
	RoleAdmin:     "ADMIN",
}

// ParseRole parses "USER", "MODERATOR" or "ADMIN" (case-insensitive), with an
// optional "ROLE_" prefix.
func ParseRole(s string) (Role, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_")
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// String returns the stored name of the role.
func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Authority returns the Spring-style authority string, e.g. "ROLE_ADMIN".
func (r Role) Authority() string { return "ROLE_" + r.String() }

// AtLeast reports whether r carries at least the authority of min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// CanModerate reports whether the role may approve, reject or delete other
// users' content.
func (r Role) CanModerate() bool { return r.AtLeast(RoleModerator) }

// CanManageUsers reports whether the role may change other users' roles and
// activation.
func (r Role) CanManageUsers() bool { return r == RoleAdmin }

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

// Scan reads a role name from the database.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
}

// User is a registered account. Counters are maintained by the store and
// must never be written from a loaded copy.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Bio            *string   `json:"bio,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	Role           Role      `json:"role"`
	IsActive       bool      `json:"is_active"`
	EmailVerified  bool      `json:"email_verified"`
	TOTPSecret     *string   `json:"-"`
	TOTPEnabled    bool      `json:"totp_enabled"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	BlogsCount     int64     `json:"blogs_count"`
	Audit
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsModerator returns true if the user has exactly the moderator role.
func (u *User) IsModerator() bool { return u.Role == RoleModerator }

// Audit holds the columns every mutable entity carries. Version backs
// optimistic locking: updates match on it and bump it.
type Audit struct {
	CreatedBy  *string   `json:"created_by,omitempty"`
	ModifiedBy *string   `json:"modified_by,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
