// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blognest/internal/apperr"
	"blognest/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db DBTX
}

// NewUserStore creates a new UserStore over a pool or a transaction.
func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, bio, avatar_url,
	role, is_active, email_verified, totp_secret, totp_enabled,
	followers_count, following_count, blogs_count,
	created_by, modified_by, version, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	err := s.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Bio, &u.AvatarURL,
		&u.Role, &u.IsActive, &u.EmailVerified, &u.TOTPSecret, &u.TOTPEnabled,
		&u.FollowersCount, &u.FollowingCount, &u.BlogsCount,
		&u.CreatedBy, &u.ModifiedBy, &u.Version, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var userSort = sortSpec{
	columns: map[string]string{
		"username":  "username",
		"createdat": "created_at",
		"followers": "followers_count",
		"blogs":     "blogs_count",
	},
	fallback: "created_at DESC",
}

// NewUser carries registration input.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
	CreatedBy string
}

// Create inserts a new user with a bcrypt-hashed password. Duplicate
// usernames and emails surface as Conflict.
func (s *UserStore) Create(ctx context.Context, in NewUser) (*models.User, error) {
	if in.Role == 0 {
		in.Role = models.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, role, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+userColumns,
		strings.TrimSpace(in.Username), strings.ToLower(strings.TrimSpace(in.Email)), string(hash),
		in.FirstName, in.LastName, in.Role, nullString(in.CreatedBy),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("create user", err)
	}
	return u, nil
}

// FindByID retrieves a user by UUID.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("find user by id", err, "user")
	}
	return u, nil
}

// FindByUsername retrieves a user by exact username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, notFound("find user by username", err, "user")
	}
	return u, nil
}

// FindByEmail retrieves a user by email address, case-insensitively.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, notFound("find user by email", err, "user")
	}
	return u, nil
}

// FindByLogin accepts either a username or an email.
func (s *UserStore) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	if strings.Contains(login, "@") {
		return s.FindByEmail(ctx, login)
	}
	return s.FindByUsername(ctx, login)
}

// List returns active users.
func (s *UserStore) List(ctx context.Context, p PageRequest) (*Page[models.User], error) {
	return pageQuery(ctx, s.db, "list users",
		`SELECT COUNT(*) FROM users WHERE is_active`,
		`SELECT `+userColumns+` FROM users WHERE is_active`,
		nil, userSort, "id", p, scanUser)
}

// SearchByUsername returns active users whose username starts with prefix,
// used for @mention completion.
func (s *UserStore) SearchByUsername(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active AND username ILIKE $1 || '%'
		ORDER BY followers_count DESC, username
		LIMIT $2`, escapeLike(prefix), limit)
	if err != nil {
		return nil, mapError("search users", err)
	}
	return collect(rows, "search users", scanUser)
}

// TopAuthors returns users with the most followers who have published.
func (s *UserStore) TopAuthors(ctx context.Context, limit int) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active AND blogs_count > 0
		ORDER BY followers_count DESC, blogs_count DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, mapError("top authors", err)
	}
	return collect(rows, "top authors", scanUser)
}

// ProfileUpdate holds editable profile fields.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Bio       *string
	AvatarURL *string
}

// UpdateProfile changes profile fields if version still matches.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, version int64, in ProfileUpdate, by string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET first_name = $3, last_name = $4, bio = $5, avatar_url = $6,
			modified_by = $7, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+userColumns,
		id, version, in.FirstName, in.LastName, in.Bio, in.AvatarURL, nullString(by))
	u, err := scanUser(row)
	if err != nil {
		return nil, s.versionError(ctx, id, err)
	}
	return u, nil
}

func (s *UserStore) versionError(ctx context.Context, id uuid.UUID, err error) error {
	if isNoRows(err) {
		return versionMismatch(ctx, s.db, "users", id, "user")
	}
	return mapError("update user", err)
}

// SetRole changes a user's role.
func (s *UserStore) SetRole(ctx context.Context, id uuid.UUID, role models.Role, by string) error {
	if !role.Valid() {
		return apperr.E(apperr.Validation, "invalid role")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = $2, modified_by = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1`, id, role, nullString(by))
	if err != nil {
		return mapError("set role", err)
	}
	return mustAffect(res, "user")
}

// SetActive activates or deactivates an account. Users are never deleted.
func (s *UserStore) SetActive(ctx context.Context, id uuid.UUID, active bool, by string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = $2, modified_by = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1`, id, active, nullString(by))
	if err != nil {
		return mapError("set active", err)
	}
	return mustAffect(res, "user")
}

// MarkEmailVerified flags the email address as confirmed.
func (s *UserStore) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("verify email", err)
	}
	return mustAffect(res, "user")
}

// ChangePassword replaces the password hash.
func (s *UserStore) ChangePassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, version = version + 1, updated_at = NOW() WHERE id = $1`,
		id, string(hash))
	if err != nil {
		return mapError("change password", err)
	}
	return mustAffect(res, "user")
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW() WHERE id = $2
	`, secret, id)
	if err != nil {
		return mapError("set totp secret", err)
	}
	return mustAffect(res, "user")
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW()
		WHERE id = $1 AND totp_secret IS NOT NULL
	`, id)
	if err != nil {
		return mapError("enable totp", err)
	}
	return mustAffect(res, "user")
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return mapError("reset totp", err)
	}
	return nil
}

// IDsByRole returns the ids of active users holding at least role.
func (s *UserStore) IDsByRole(ctx context.Context, min models.Role) ([]uuid.UUID, error) {
	var names []string
	for r := min; r <= models.RoleAdmin; r++ {
		names = append(names, r.String())
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE is_active AND role = ANY($1::text[])`, names)
	if err != nil {
		return nil, mapError("users by role", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
