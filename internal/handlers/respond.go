// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the BlogNest API.
// Handlers are grouped by resource and receive their dependencies through
// the handler struct. Reads go straight to the stores; anything that writes
// goes through a service so counters and notifications stay consistent.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blognest/internal/apperr"
	"blognest/internal/auth"
	"blognest/internal/logging"
	"blognest/internal/middleware"
	"blognest/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.L().Warn("encode response failed", zap.Error(err))
	}
}

// writeError sends {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict, apperr.Concurrency:
		return http.StatusConflict
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Errors without a kind are logged and
// reported as a bare 500 so internals never reach the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		logging.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, apperr.MessageOf(err))
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.E(apperr.Validation, "request body is required")
		case errors.As(err, &tooLarge):
			return apperr.E(apperr.Validation, "request body is too large")
		default:
			return apperr.Wrap(apperr.Validation, err, "malformed JSON: "+err.Error())
		}
	}
	return nil
}

// invalid turns a non-empty validation message into an error.
func invalid(msg string) error {
	if msg == "" {
		return nil
	}
	return apperr.E(apperr.Validation, "%s", msg)
}

// principal returns the caller, or nil for anonymous requests.
func principal(r *http.Request) *auth.Principal {
	return middleware.PrincipalFromCtx(r.Context())
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.E(apperr.Validation, "invalid %s", name)
	}
	return id, nil
}

// pageRequest reads page, size, sort and dir from the query string.
// dir=desc flips the sort direction; anything else is ascending.
func pageRequest(r *http.Request) store.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return store.PageRequest{
		Page: page,
		Size: size,
		Sort: q.Get("sort"),
		Desc: strings.EqualFold(q.Get("dir"), "desc"),
	}.Normalize()
}

// queryInt reads a positive integer query parameter with a default and an
// upper bound.
func queryInt(r *http.Request, name string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, max)
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// queryList splits a comma-separated query parameter, dropping blanks.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// queryTime reads an RFC 3339 timestamp.
func queryTime(r *http.Request, name string) (time.Time, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, apperr.E(apperr.Validation, "%s must be an RFC 3339 timestamp", name)
	}
	return t, true, nil
}

// idsRequest is the body of bulk moderation endpoints.
type idsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}
