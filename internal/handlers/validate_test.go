// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"testing"
)

func ptr(s string) *string { return &s }

func TestValidateBlog(t *testing.T) {
	tests := []struct {
		name      string
		req       blogRequest
		create    bool
		wantError bool
	}{
		{"valid", blogRequest{Title: "My Title", Content: "Body"}, true, false},
		{"empty title on create", blogRequest{Title: "  ", Content: "Body"}, true, true},
		{"empty title on update", blogRequest{}, false, false},
		{"title too long", blogRequest{Title: strings.Repeat("a", 201), Content: "Body"}, true, true},
		{"multibyte title at limit", blogRequest{Title: strings.Repeat("é", 200), Content: "Body"}, true, false},
		{"slug too long", blogRequest{Title: "t", Slug: strings.Repeat("a", 251), Content: "Body"}, true, true},
		{"empty content on create", blogRequest{Title: "t"}, true, true},
		{"content too long", blogRequest{Title: "t", Content: strings.Repeat("a", 100_001)}, true, true},
		{"image url too long", blogRequest{Title: "t", Content: "b", FeaturedImageURL: ptr(strings.Repeat("a", 501))}, true, true},
		{"meta title too long", blogRequest{Title: "t", Content: "b", MetaTitle: ptr(strings.Repeat("a", 201))}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateBlog(&tt.req, tt.create)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name      string
		summary   *string
		metaDesc  *string
		metaKw    *string
		wantError bool
	}{
		{"all nil", nil, nil, nil, false},
		{"all valid", ptr("summary"), ptr("description"), ptr("kw1, kw2"), false},
		{"summary too long", ptr(strings.Repeat("a", 501)), nil, nil, true},
		{"meta desc too long", nil, ptr(strings.Repeat("a", 301)), nil, true},
		{"meta kw too long", nil, nil, ptr(strings.Repeat("a", 501)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateMetadata(tt.summary, nil, tt.metaDesc, tt.metaKw)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	valid := registerRequest{Username: "jane.doe", Email: "jane@example.com", Password: "password123"}

	tests := []struct {
		name   string
		mutate func(r *registerRequest)
		want   string
	}{
		{"valid", func(r *registerRequest) {}, ""},
		{"short username", func(r *registerRequest) { r.Username = "ab" }, "Username must be at least 3 characters."},
		{"long username", func(r *registerRequest) { r.Username = strings.Repeat("a", 51) }, "Username is too long (max 50 characters)."},
		{"username with space", func(r *registerRequest) { r.Username = "jane doe" }, "Username may only contain letters, digits, '.', '-' and '_'."},
		{"missing email", func(r *registerRequest) { r.Email = "" }, "Email is required."},
		{"display-name email", func(r *registerRequest) { r.Email = "Jane <jane@example.com>" }, "Email address is not valid."},
		{"short password", func(r *registerRequest) { r.Password = "1234567" }, "Password must be at least 8 characters."},
		{"password over bcrypt limit", func(r *registerRequest) { r.Password = strings.Repeat("a", 73) }, "Password is too long (max 72 bytes)."},
		{"long first name", func(r *registerRequest) { r.FirstName = strings.Repeat("a", 51) }, "Names are limited to 50 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if got := validateRegistration(&req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateProfile(t *testing.T) {
	if got := validateProfile(&profileRequest{FirstName: "Jane", Bio: ptr("hello")}); got != "" {
		t.Errorf("unexpected error: %s", got)
	}
	if got := validateProfile(&profileRequest{Bio: ptr(strings.Repeat("a", 501))}); got == "" {
		t.Error("expected bio length error")
	}
	if got := validateProfile(&profileRequest{AvatarURL: ptr(strings.Repeat("a", 501))}); got == "" {
		t.Error("expected avatar length error")
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name      string
		req       categoryRequest
		wantError bool
	}{
		{"valid", categoryRequest{Name: "Tech"}, false},
		{"blank name", categoryRequest{Name: " "}, true},
		{"name too long", categoryRequest{Name: strings.Repeat("a", 101)}, true},
		{"slug too long", categoryRequest{Name: "Tech", Slug: strings.Repeat("a", 121)}, true},
		{"icon too long", categoryRequest{Name: "Tech", Icon: ptr(strings.Repeat("a", 51))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateCategory(&tt.req)
			if tt.wantError && result == "" {
				t.Error("expected an error, got none")
			}
			if !tt.wantError && result != "" {
				t.Errorf("unexpected error: %s", result)
			}
		})
	}
}

func TestValidateTagAndEditReason(t *testing.T) {
	if got := validateTag(&tagRequest{Name: "golang"}); got != "" {
		t.Errorf("unexpected error: %s", got)
	}
	if got := validateTag(&tagRequest{Name: ""}); got == "" {
		t.Error("expected missing name error")
	}
	if got := validateTag(&tagRequest{Name: "go", Description: ptr(strings.Repeat("a", 201))}); got == "" {
		t.Error("expected description length error")
	}
	if got := validateEditReason(nil); got != "" {
		t.Errorf("nil reason: unexpected error %s", got)
	}
	if got := validateEditReason(ptr(strings.Repeat("a", 201))); got == "" {
		t.Error("expected edit reason length error")
	}
}
