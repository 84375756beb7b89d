// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/models"
)

// fakeUsers is an in-memory UserLookup that counts lookups.
type fakeUsers struct {
	byID  map[uuid.UUID]*models.User
	calls int
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.calls++
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.E(apperr.NotFound, "user not found")
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func newTestUser(role models.Role) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "user" + uuid.NewString()[:8],
		Email:    "test@blognest.local",
		Role:     role,
		IsActive: true,
	}
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body["error"]
}

// ---------- PrincipalFromCtx ----------

func TestPrincipalFromCtx(t *testing.T) {
	t.Run("returns principal when present", func(t *testing.T) {
		p := &auth.Principal{UserID: uuid.New(), Username: "ada", Role: models.RoleAdmin}
		got := PrincipalFromCtx(WithPrincipal(context.Background(), p))
		if got != p {
			t.Fatalf("got %v, want %v", got, p)
		}
	})

	t.Run("returns nil for empty context", func(t *testing.T) {
		if got := PrincipalFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("returns nil for wrong type under key", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), PrincipalKey, "not-a-principal")
		if got := PrincipalFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %v", got)
		}
	})
}

// ---------- Authenticator.Load ----------

func TestAuthenticatorLoad(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour, nil)
	deny := auth.NewMemoryDenylist()

	active := newTestUser(models.RoleUser)
	disabled := newTestUser(models.RoleUser)
	disabled.IsActive = false
	promoted := newTestUser(models.RoleUser)
	revoked := newTestUser(models.RoleUser)
	ghost := newTestUser(models.RoleUser)

	users := &fakeUsers{byID: map[uuid.UUID]*models.User{
		active.ID: active, disabled.ID: disabled, promoted.ID: promoted, revoked.ID: revoked,
	}}

	issue := func(u *models.User) string {
		tok, _, err := tokens.Issue(u)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return tok
	}

	promotedToken := issue(promoted)
	// Role changes after the token was issued.
	promoted.Role = models.RoleModerator

	revokedToken := issue(revoked)
	p, err := tokens.Parse(revokedToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := deny.Revoke(context.Background(), p.TokenID, p.ExpiresAt); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   *models.User
		wantRole   models.Role
		wantError  string
	}{
		{name: "no header passes anonymously", wantStatus: http.StatusOK},
		{name: "valid token", header: "Bearer " + issue(active), wantStatus: http.StatusOK, wantUser: active, wantRole: models.RoleUser},
		{name: "stored role wins", header: "Bearer " + promotedToken, wantStatus: http.StatusOK, wantUser: promoted, wantRole: models.RoleModerator},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized, wantError: "invalid token"},
		{name: "bearer only", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantError: "missing token"},
		{name: "revoked token", header: "Bearer " + revokedToken, wantStatus: http.StatusUnauthorized, wantError: "token has been revoked"},
		{name: "disabled account", header: "Bearer " + issue(disabled), wantStatus: http.StatusUnauthorized, wantError: "account is disabled"},
		{name: "deleted account", header: "Bearer " + issue(ghost), wantStatus: http.StatusUnauthorized, wantError: "account not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAuthenticator(tokens, deny, users, 16, time.Minute)

			var got *auth.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = PrincipalFromCtx(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/blogs", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			a.Load(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				if msg := errorBody(t, rr); msg != tt.wantError {
					t.Errorf("error: got %q, want %q", msg, tt.wantError)
				}
				return
			}
			if tt.wantUser == nil {
				if got != nil {
					t.Errorf("expected anonymous request, got principal %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected principal in context")
			}
			if got.UserID != tt.wantUser.ID {
				t.Errorf("UserID: got %s, want %s", got.UserID, tt.wantUser.ID)
			}
			if got.Role != tt.wantRole {
				t.Errorf("Role: got %s, want %s", got.Role, tt.wantRole)
			}
		})
	}
}

func TestAuthenticatorCachesAccounts(t *testing.T) {
	tokens := auth.NewTokens("test-secret", time.Hour, nil)
	u := newTestUser(models.RoleUser)
	users := &fakeUsers{byID: map[uuid.UUID]*models.User{u.ID: u}}
	a := NewAuthenticator(tokens, auth.NewMemoryDenylist(), users, 16, time.Minute)

	tok, _, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	next, _ := okHandler()
	h := a.Load(next)
	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for range 3 {
		if code := serve(); code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", code)
		}
	}
	if users.calls != 1 {
		t.Errorf("lookups: got %d, want 1 (cached)", users.calls)
	}

	a.Forget(u.ID)
	serve()
	if users.calls != 2 {
		t.Errorf("lookups after Forget: got %d, want 2", users.calls)
	}
}

// ---------- RequireAuth ----------

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous request", func(t *testing.T) {
		next, called := okHandler()
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", nil)
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, req)

		if *called {
			t.Error("next handler should not be called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q, want application/json", ct)
		}
	})

	t.Run("passes authenticated request", func(t *testing.T) {
		next, called := okHandler()
		p := &auth.Principal{UserID: uuid.New(), Role: models.RoleUser}
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", nil)
		req = req.WithContext(WithPrincipal(req.Context(), p))
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, req)

		if !*called {
			t.Error("next handler should be called")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})
}

// ---------- RequireRole ----------

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       models.Role // zero means anonymous
		min        models.Role
		wantStatus int
	}{
		{"anonymous", 0, models.RoleUser, http.StatusUnauthorized},
		{"user for user route", models.RoleUser, models.RoleUser, http.StatusOK},
		{"user for moderator route", models.RoleUser, models.RoleModerator, http.StatusForbidden},
		{"moderator for moderator route", models.RoleModerator, models.RoleModerator, http.StatusOK},
		{"moderator for admin route", models.RoleModerator, models.RoleAdmin, http.StatusForbidden},
		{"admin for moderator route", models.RoleAdmin, models.RoleModerator, http.StatusOK},
		{"admin for admin route", models.RoleAdmin, models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.role != 0 {
				p := &auth.Principal{UserID: uuid.New(), Role: tt.role}
				req = req.WithContext(WithPrincipal(req.Context(), p))
			}
			rr := httptest.NewRecorder()
			RequireRole(tt.min)(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if *called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called: got %v", *called)
			}
		})
	}
}
