// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"heading gets id", "# Hello World", []string{`<h1 id="hello-world">Hello World</h1>`}},
		{"emphasis", "some **bold** and *soft* text", []string{"<strong>bold</strong>", "<em>soft</em>"}},
		{"gfm table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"gfm strikethrough", "~~gone~~", []string{"<del>gone</del>"}},
		{"raw html kept", "<div class=\"note\">hi</div>", []string{`<div class="note">hi</div>`}},
		{"autolink", "see https://example.com now", []string{`<a href="https://example.com">`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.source)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.source, got, w)
				}
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"", ""},
		{"# Title\n\nFirst paragraph.", "Title First paragraph."},
		{"a **bold** [link](https://x.test)", "a bold link"},
		{"<p>inline   <b>html</b></p>", "inline html"},
		{"fish &amp; chips", "fish & chips"},
		{"- one\n- two\n- three", "one two three"},
	}
	for _, tt := range tests {
		if got := PlainText(tt.source); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"one", 1},
		{"## Two words", 2},
		{"`code` and **bold**\n\n> quoted line", 5},
		{strings.Repeat("word ", 400), 400},
	}
	for _, tt := range tests {
		if got := WordCount(tt.source); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}
