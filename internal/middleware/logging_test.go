// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"blognest/internal/auth"
	"blognest/internal/logging"
)

// observeLogs routes the global logger into an in-memory observer for the
// duration of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logging.L()
	logging.Set(zap.New(core))
	t.Cleanup(func() { logging.Set(prev) })
	return logs
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		principal *auth.Principal
		handler   http.HandlerFunc
		status    int
		level     zapcore.Level
	}{
		{
			name: "explicit status", method: http.MethodPost, path: "/api/blogs",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
			status:  http.StatusCreated, level: zapcore.InfoLevel,
		},
		{
			name: "implicit 200 on write", method: http.MethodGet, path: "/api/tags",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("[]")) },
			status:  http.StatusOK, level: zapcore.InfoLevel,
		},
		{
			name: "client error stays info", method: http.MethodGet, path: "/api/blogs/missing",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			status:  http.StatusNotFound, level: zapcore.InfoLevel,
		},
		{
			name: "server error logs at error", method: http.MethodDelete, path: "/api/blogs/x",
			principal: &auth.Principal{Username: "ada"},
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			status:    http.StatusInternalServerError, level: zapcore.ErrorLevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeLogs(t)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("status: got %d, want %d", rr.Code, tt.status)
			}
			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("log entries: got %d, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.level {
				t.Errorf("level: got %v, want %v", e.Level, tt.level)
			}
			fields := e.ContextMap()
			if fields["method"] != tt.method || fields["path"] != tt.path {
				t.Errorf("fields: got %v", fields)
			}
			if fields["status"] != int64(tt.status) {
				t.Errorf("status field: got %v, want %d", fields["status"], tt.status)
			}
			user, logged := fields["user"]
			if tt.principal != nil && user != tt.principal.Username {
				t.Errorf("user field: got %v, want %q", user, tt.principal.Username)
			}
			if tt.principal == nil && logged {
				t.Errorf("anonymous request logged user %v", user)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusConflict, "slug already taken")

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q", ct)
	}
	if msg := errorBody(t, rr); msg != "slug already taken" {
		t.Errorf("error: got %q", msg)
	}
}

func TestResponseWriter(t *testing.T) {
	tests := []struct {
		name  string
		steps func(rw *responseWriter)
		want  int
	}{
		{"first WriteHeader wins", func(rw *responseWriter) {
			rw.WriteHeader(http.StatusNotFound)
			rw.WriteHeader(http.StatusInternalServerError)
		}, http.StatusNotFound},
		{"Write defaults to 200", func(rw *responseWriter) { rw.Write([]byte("x")) }, http.StatusOK},
		{"Write keeps earlier status", func(rw *responseWriter) {
			rw.WriteHeader(http.StatusAccepted)
			rw.Write([]byte("queued"))
		}, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
			tt.steps(rw)
			if rw.statusCode != tt.want {
				t.Errorf("statusCode: got %d, want %d", rw.statusCode, tt.want)
			}
			if !rw.written {
				t.Error("written should be set")
			}
		})
	}
}
