// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"blognest/internal/logging"
	"blognest/internal/service"
	"blognest/internal/store"
)

// Auth groups registration, login and account self-service handlers.
type Auth struct {
	users     *service.Users
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *service.Users, userStore *store.UserStore) *Auth {
	return &Auth{users: users, userStore: userStore}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account and returns it with 201.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateRegistration(&req)); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), service.Registration{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	logging.L().Info("user registered", zap.String("username", u.Username))
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

// Login checks credentials and returns a bearer token.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Login) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Login and password are required.")
		return
	}

	sess, err := h.users.Login(r.Context(), strings.TrimSpace(req.Login), req.Password, strings.TrimSpace(req.Code))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Logout revokes the caller's token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), principal(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TwoFASetup starts TOTP enrollment and returns the secret, the otpauth URL
// and a QR code PNG as a data URI.
func (h *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	enr, err := h.users.SetupTOTP(r.Context(), principal(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  enr.Secret,
		"url":     enr.URL,
		"qr_code": "data:image/png;base64," + enr.QRCode,
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify confirms enrollment with a first valid code.
func (h *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.VerifyTOTP(r.Context(), principal(r), strings.TrimSpace(req.Code)); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}

// Me returns the caller's account.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userStore.FindByID(r.Context(), principal(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileRequest struct {
	Version   int64   `json:"version"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile edits the caller's profile.
func (h *Auth) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validateProfile(&req)); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), principal(r), req.Version, store.ProfileUpdate{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type passwordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
}

// ChangePassword replaces the caller's password.
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := invalid(validatePassword(req.New)); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), principal(r), req.Current, req.New); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
