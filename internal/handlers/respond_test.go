// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blognest/internal/apperr"
	"blognest/internal/store"
)

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body["error"]
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.Validation, http.StatusBadRequest},
		{apperr.NotFound, http.StatusNotFound},
		{apperr.Conflict, http.StatusConflict},
		{apperr.Concurrency, http.StatusConflict},
		{apperr.Unauthorized, http.StatusUnauthorized},
		{apperr.Forbidden, http.StatusForbidden},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.kind); got != tt.want {
			t.Errorf("statusOf(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"kinded", apperr.E(apperr.Conflict, "slug already taken"), http.StatusConflict, "slug already taken"},
		{"wrapped kinded", errors.Join(errors.New("ctx"), apperr.E(apperr.NotFound, "blog not found")), http.StatusNotFound, "blog not found"},
		{"plain error hides details", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			fail(rr, httptest.NewRequest("GET", "/api/blogs", nil), tt.err)
			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if got := errorBody(t, rr); got != tt.wantMsg {
				t.Errorf("error: got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"empty", ``, "request body is required"},
		{"unknown field", `{"name":"x","extra":1}`, `malformed JSON: json: unknown field "extra"`},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "request body is too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			err := decode(httptest.NewRecorder(), r, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Name != "x" {
					t.Errorf("name: got %q", p.Name)
				}
				return
			}
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("want validation error, got %v", err)
			}
			if got := apperr.MessageOf(err); got != tt.wantErr {
				t.Errorf("message: got %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestPageRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=2&size=5&sort=title&dir=DESC", nil)
	got := pageRequest(r)
	want := store.PageRequest{Page: 2, Size: 5, Sort: "title", Desc: true}.Normalize()
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	def := pageRequest(httptest.NewRequest("GET", "/?page=abc", nil))
	if def != (store.PageRequest{}).Normalize() {
		t.Errorf("bad input should normalize to defaults, got %+v", def)
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=500&days=-3&flat=true&tags=go,%20,rust,&at=2026-01-02T03:04:05Z&bad=yesterday", nil)

	if got := queryInt(r, "limit", 10, 50); got != 50 {
		t.Errorf("limit capped: got %d, want 50", got)
	}
	if got := queryInt(r, "days", 7, 90); got != 7 {
		t.Errorf("negative falls back to default: got %d, want 7", got)
	}
	if !queryBool(r, "flat") || queryBool(r, "missing") {
		t.Error("queryBool mismatch")
	}
	if got := queryList(r, "tags"); len(got) != 2 || got[0] != "go" || got[1] != "rust" {
		t.Errorf("queryList: got %q", got)
	}
	if got := queryList(r, "missing"); got != nil {
		t.Errorf("missing list: got %q", got)
	}

	at, ok, err := queryTime(r, "at")
	if err != nil || !ok || at.Year() != 2026 {
		t.Errorf("queryTime: got %v %v %v", at, ok, err)
	}
	if _, ok, err := queryTime(r, "missing"); ok || err != nil {
		t.Errorf("missing time: ok=%v err=%v", ok, err)
	}
	if _, _, err := queryTime(r, "bad"); !apperr.Is(err, apperr.Validation) {
		t.Errorf("bad time: got %v", err)
	}
}

func TestUUIDParam(t *testing.T) {
	id := uuid.New()
	r := withChiURLParam(httptest.NewRequest("GET", "/", nil), "id", id.String())
	got, err := uuidParam(r, "id")
	if err != nil || got != id {
		t.Errorf("got %v, %v", got, err)
	}

	r = withChiURLParam(httptest.NewRequest("GET", "/", nil), "id", "nope")
	if _, err := uuidParam(r, "id"); apperr.MessageOf(err) != "invalid id" {
		t.Errorf("got %v", err)
	}
}

func TestNotificationTypes(t *testing.T) {
	rr := httptest.NewRecorder()
	(&Notifications{}).Types(rr, httptest.NewRequest("GET", "/api/notifications/types", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var types []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) == 0 {
		t.Fatal("no notification types")
	}
	for _, ty := range types {
		if ty["type"] == "SECURITY_ALERT" && ty["can_be_disabled"] != false {
			t.Error("security alerts must not be disableable")
		}
	}
}
