// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts blog content (Markdown, possibly with inline
// HTML) into HTML and into plain text. Plain text feeds word counts for
// reading time and the auto-generated summary.
package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(), // authors may embed raw HTML
	),
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// ToHTML renders Markdown source to HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText renders source and strips every tag, collapsing whitespace.
// If rendering fails the raw source is stripped instead.
func PlainText(source string) string {
	rendered, err := ToHTML(source)
	if err != nil {
		rendered = source
	}
	text := tagPattern.ReplaceAllString(rendered, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// WordCount counts whitespace-separated words in the plain-text rendering.
func WordCount(source string) int {
	return len(strings.Fields(PlainText(source)))
}
