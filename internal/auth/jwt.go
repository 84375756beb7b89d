// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth issues and verifies the bearer tokens that identify API
// callers, keeps a denylist of revoked tokens and handles TOTP enrollment.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/clock"
	"blognest/internal/models"
)

// Issuer is the "iss" claim on every token.
const Issuer = "blognest"

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	// TokenID is the jti of the token the principal came from.
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Actor is the audit name recorded in created_by/modified_by.
func (p *Principal) Actor() string { return p.Username }

// Claims is the token payload.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokens returns a token service. A nil clock uses the wall clock.
func NewTokens(secret string, ttl time.Duration, c clock.Clock) *Tokens {
	if c == nil {
		c = clock.System{}
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: c}
}

// Issue signs a token for u. It returns the token and its expiry.
func (t *Tokens) Issue(u *models.User) (string, time.Time, error) {
	now := t.clock.Now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies a token (with or without a "Bearer " prefix) and returns
// its principal. Every failure is Unauthorized.
func (t *Tokens) Parse(raw string) (*Principal, error) {
	raw = StripBearer(raw)
	if raw == "" {
		return nil, apperr.E(apperr.Unauthorized, "missing token")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.Unauthorized, err, "token expired")
		}
		return nil, apperr.Wrap(apperr.Unauthorized, err, "invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" || !claims.Role.Valid() {
		return nil, apperr.E(apperr.Unauthorized, "invalid token claims")
	}
	return &Principal{
		UserID:    id,
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// StripBearer removes a case-insensitive "Bearer" scheme. A header holding
// only the scheme yields the empty string.
func StripBearer(header string) string {
	header = strings.TrimSpace(header)
	const scheme = "bearer"
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return header
	}
	rest := header[len(scheme):]
	if rest == "" {
		return ""
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return header
	}
	return strings.TrimSpace(rest)
}
