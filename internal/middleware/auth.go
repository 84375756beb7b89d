// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/logging"
	"blognest/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// PrincipalKey is the context key for the authenticated principal.
const PrincipalKey contextKey = "principal"

// UserLookup loads the account behind a token.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator resolves bearer tokens into principals. Accounts are cached
// for a short time so a request does not hit the database just to confirm
// the user still exists and is active.
type Authenticator struct {
	tokens *auth.Tokens
	deny   auth.Denylist
	users  UserLookup
	cache  *expirable.LRU[uuid.UUID, *models.User]
	loads  singleflight.Group // one lookup per account on a cache miss
}

// NewAuthenticator builds an authenticator caching up to size accounts for ttl.
func NewAuthenticator(tokens *auth.Tokens, deny auth.Denylist, users UserLookup, size int, ttl time.Duration) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		deny:   deny,
		users:  users,
		cache:  expirable.NewLRU[uuid.UUID, *models.User](size, nil, ttl),
	}
}

// Forget drops a cached account, e.g. after its role or status changed.
func (a *Authenticator) Forget(id uuid.UUID) {
	a.cache.Remove(id)
}

// Load parses the Authorization header when present and stores the
// principal in the request context. Requests without a header pass through
// anonymously; a header that does not verify is rejected.
func (a *Authenticator) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := a.authenticate(r.Context(), header)
		if err != nil {
			writeError(w, http.StatusUnauthorized, apperr.MessageOf(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (a *Authenticator) authenticate(ctx context.Context, header string) (*auth.Principal, error) {
	p, err := a.tokens.Parse(header)
	if err != nil {
		return nil, err
	}
	revoked, err := a.deny.IsRevoked(ctx, p.TokenID)
	if err != nil {
		logging.L().Error("denylist lookup failed", zap.Error(err))
		return nil, apperr.E(apperr.Unauthorized, "token could not be verified")
	}
	if revoked {
		return nil, apperr.E(apperr.Unauthorized, "token has been revoked")
	}

	u, ok := a.cache.Get(p.UserID)
	if !ok {
		v, err, _ := a.loads.Do(p.UserID.String(), func() (any, error) {
			found, err := a.users.FindByID(ctx, p.UserID)
			if err != nil {
				return nil, err
			}
			a.cache.Add(found.ID, found)
			return found, nil
		})
		if err != nil {
			return nil, apperr.E(apperr.Unauthorized, "account not found")
		}
		u = v.(*models.User)
	}
	if !u.IsActive {
		return nil, apperr.E(apperr.Unauthorized, "account is disabled")
	}
	// The stored role wins over the one baked into the token.
	p.Role = u.Role
	p.Username = u.Username
	return p, nil
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns 401 for anonymous requests and 403 unless the
// principal holds at least min.
func RequireRole(min models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromCtx(r.Context())
			if p == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !p.Role.AtLeast(min) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromCtx extracts the principal from the request context.
// Returns nil for anonymous requests.
func PrincipalFromCtx(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return p
}
