// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Blog titles ---
		{"simple title", "Hello World", "hello-world"},
		{"title with year", "My First Post 2026", "my-first-post-2026"},
		{"punctuation", "Hello, World! How's it going?", "hello-world-hows-it-going"},
		{"ampersand", "Go & Rust", "go-rust"},
		{"version number", "Release (2.0) [Beta]", "release-20-beta"},
		{"slashes collapse words", "Frontend/Backend | Full Stack", "frontendbackend-full-stack"},

		// --- Accent folding ---
		{"french accents", "Café Résumé Noël", "cafe-resume-noel"},
		{"german umlauts", "Über Größe", "uber-groe"},
		{"spanish tilde", "Mañana en España", "manana-en-espana"},
		{"non-latin dropped", "Go 日本語 tips", "go-tips"},
		{"emoji dropped", "Ship it 🚀 today", "ship-it-today"},

		// --- Separators ---
		{"multiple spaces", "too    many   spaces", "too-many-spaces"},
		{"hyphen runs", "a -- b --- c", "a-b-c"},
		{"tabs and newlines", "line\tone\nline two", "line-one-line-two"},
		{"leading and trailing junk", "  --Trim me!--  ", "trim-me"},

		// --- Edge cases ---
		{"empty", "", ""},
		{"only symbols", "!@#$%^&*()", ""},
		{"only unicode", "日本語", ""},
		{"digits", "404", "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_MaxLength(t *testing.T) {
	got := Generate(strings.Repeat("word ", 100))
	if len(got) > MaxLength {
		t.Fatalf("length %d exceeds %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug must not end with a hyphen: %q", got)
	}
}

// Generating a slug from a slug must not change it; stored slugs are
// passed back through Generate when authors edit them.
func TestGenerate_Idempotent(t *testing.T) {
	for _, in := range []string{"Hello World", "Café Résumé", "  --Trim me!--  ", strings.Repeat("ab ", 200)} {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

var suffixed = regexp.MustCompile(`^hello-world-[0-9a-f]{8}$`)

func TestWithSuffix(t *testing.T) {
	a := WithSuffix("Hello World")
	b := WithSuffix("Hello World")
	if !suffixed.MatchString(a) {
		t.Errorf("unexpected format %q", a)
	}
	if a == b {
		t.Errorf("two suffixed slugs collided: %q", a)
	}

	if got := WithSuffix("!!!"); len(got) != 8 {
		t.Errorf("empty base should yield the bare suffix, got %q", got)
	}

	long := WithSuffix(strings.Repeat("x", 500))
	if len(long) > MaxLength {
		t.Errorf("suffixed slug length %d exceeds %d", len(long), MaxLength)
	}
}
