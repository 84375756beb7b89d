// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/models"
	"blognest/internal/store"
)

// Users handles accounts, sessions and follows.
type Users struct {
	base
	tokens *auth.Tokens
	deny   auth.Denylist
}

// NewUsers wires the account service.
func NewUsers(d Deps, tokens *auth.Tokens, deny auth.Denylist) *Users {
	return &Users{base: newBase(d), tokens: tokens, deny: deny}
}

// Registration is the sign-up payload.
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a USER account and greets it.
func (s *Users) Register(ctx context.Context, in Registration) (*models.User, error) {
	var u *models.User
	err := s.inTx(ctx, func(o *outbox) error {
		var err error
		u, err = store.NewUserStore(o.tx).Create(ctx, store.NewUser{
			Username:  in.Username,
			Email:     in.Email,
			Password:  in.Password,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      models.RoleUser,
			CreatedBy: in.Username,
		})
		if err != nil {
			return err
		}
		if err := o.notify(ctx, models.NewNotification(u.ID, models.NotifyWelcome)); err != nil {
			return err
		}
		admins, err := store.NewUserStore(o.tx).IDsByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		for _, id := range admins {
			n := models.NewNotification(id, models.NotifyNewUserRegistered)
			n.ActorID = &u.ID
			n.RelatedUserID = &u.ID
			n.Message = u.Username + " just joined"
			if err := o.notify(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Session is an issued token.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks credentials (and the TOTP code when 2FA is on) and issues a
// token. Every credential failure reads the same to the caller.
func (s *Users) Login(ctx context.Context, login, password, code string) (*Session, error) {
	users := store.NewUserStore(s.db)
	u, err := users.FindByLogin(ctx, login)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.E(apperr.Unauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !users.CheckPassword(u, password) || !u.IsActive {
		return nil, apperr.E(apperr.Unauthorized, "invalid credentials")
	}
	if u.TOTPEnabled {
		if code == "" {
			return nil, apperr.E(apperr.Unauthorized, "two-factor code required")
		}
		if u.TOTPSecret == nil || !auth.ValidateCode(code, *u.TOTPSecret) {
			return nil, apperr.E(apperr.Unauthorized, "invalid two-factor code")
		}
	}
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Logout revokes the caller's token for the rest of its lifetime.
func (s *Users) Logout(ctx context.Context, p *auth.Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	return s.deny.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

// SetupTOTP generates and stores a new secret. 2FA stays off until the
// first code is verified.
func (s *Users) SetupTOTP(ctx context.Context, p *auth.Principal) (*auth.Enrollment, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	users := store.NewUserStore(s.db)
	u, err := users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	e, err := auth.NewEnrollment(u.Email)
	if err != nil {
		return nil, err
	}
	if err := users.SetTOTPSecret(ctx, u.ID, e.Secret); err != nil {
		return nil, err
	}
	return e, nil
}

// VerifyTOTP enables 2FA once code matches the pending secret.
func (s *Users) VerifyTOTP(ctx context.Context, p *auth.Principal, code string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	users := store.NewUserStore(s.db)
	u, err := users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if u.TOTPSecret == nil {
		return apperr.E(apperr.Validation, "two-factor setup has not been started")
	}
	if !auth.ValidateCode(code, *u.TOTPSecret) {
		return apperr.E(apperr.Validation, "invalid two-factor code")
	}
	return users.EnableTOTP(ctx, u.ID)
}

// ChangePassword replaces the caller's password after checking the current
// one, and raises a PASSWORD_CHANGED notification.
func (s *Users) ChangePassword(ctx context.Context, p *auth.Principal, current, next string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error {
		users := store.NewUserStore(o.tx)
		u, err := users.FindByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		if !users.CheckPassword(u, current) {
			return apperr.E(apperr.Unauthorized, "current password is incorrect")
		}
		if err := users.ChangePassword(ctx, u.ID, next); err != nil {
			return err
		}
		return o.notify(ctx, models.NewNotification(u.ID, models.NotifyPasswordChanged))
	})
}

// UpdateProfile edits the caller's own profile.
func (s *Users) UpdateProfile(ctx context.Context, p *auth.Principal, version int64, in store.ProfileUpdate) (*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	return store.NewUserStore(s.db).UpdateProfile(ctx, p.UserID, version, in, p.Actor())
}

// SetRole changes a user's role. Admins only, and never their own.
func (s *Users) SetRole(ctx context.Context, p *auth.Principal, id uuid.UUID, role models.Role) error {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.E(apperr.Validation, "invalid role")
	}
	if id == p.UserID {
		return apperr.E(apperr.Validation, "admins cannot change their own role")
	}
	return store.NewUserStore(s.db).SetRole(ctx, id, role, p.Actor())
}

// SetActive enables or disables an account. Admins only.
func (s *Users) SetActive(ctx context.Context, p *auth.Principal, id uuid.UUID, active bool) error {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return err
	}
	if id == p.UserID && !active {
		return apperr.E(apperr.Validation, "admins cannot deactivate themselves")
	}
	return store.NewUserStore(s.db).SetActive(ctx, id, active, p.Actor())
}

// ResetTOTP turns two-factor login off for a user who lost their device.
// Admins only.
func (s *Users) ResetTOTP(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := requireRole(p, models.RoleAdmin); err != nil {
		return err
	}
	return s.inTx(ctx, func(o *outbox) error {
		if err := store.NewUserStore(o.tx).ResetTOTP(ctx, id); err != nil {
			return err
		}
		n := models.NewNotification(id, models.NotifySecurityAlert)
		n.ActorID = &p.UserID
		n.Message = "Two-factor authentication was reset by an administrator"
		return o.notify(ctx, n)
	})
}

// Follow makes the caller follow id and notifies the followed user.
func (s *Users) Follow(ctx context.Context, p *auth.Principal, id uuid.UUID) (*models.Follow, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	var f *models.Follow
	err := s.inTx(ctx, func(o *outbox) error {
		target, err := store.NewUserStore(o.tx).FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return apperr.E(apperr.NotFound, "user not found")
		}
		follows := store.NewFollowStore(o.tx)
		if f, err = follows.Create(ctx, p.UserID, id); err != nil {
			return err
		}
		n := models.NewNotification(id, models.NotifyUserFollowed)
		n.ActorID = &p.UserID
		n.RelatedUserID = &p.UserID
		n.Message = p.Username + " started following you"
		if err := o.notify(ctx, n); err != nil {
			return err
		}
		f.IsNotificationSent = true
		return follows.MarkNotified(ctx, f.ID)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Unfollow removes the caller's follow of id.
func (s *Users) Unfollow(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return store.NewFollowStore(tx).Delete(ctx, p.UserID, id)
	})
}
