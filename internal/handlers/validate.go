// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits, matching the column sizes in the schema.
const (
	maxTitleLen       = 200
	maxSlugLen        = 250
	maxContentLen     = 100_000
	maxSummaryLen     = 500
	maxMetaTitleLen   = 200
	maxMetaDescLen    = 300
	maxMetaKeywordLen = 500
	maxURLLen         = 500

	minUsernameLen = 3
	maxUsernameLen = 50
	maxEmailLen    = 100
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
	maxNameLen     = 50
	maxBioLen      = 500

	maxCategoryNameLen = 100
	maxCategorySlugLen = 120
	maxCategoryDescLen = 500
	maxIconLen         = 50

	maxTagNameLen = 50
	maxTagDescLen = 200

	maxEditReasonLen = 200
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func tooLong(s string, max int) bool { return utf8.RuneCountInString(s) > max }

func optTooLong(s *string, max int) bool { return s != nil && tooLong(*s, max) }

// validateBlog checks blog fields. Title and content are required on
// create only.
func validateBlog(req *blogRequest, create bool) string {
	title := strings.TrimSpace(req.Title)
	if create && title == "" {
		return "Title is required."
	}
	if tooLong(title, maxTitleLen) {
		return "Title is too long (max 200 characters)."
	}
	if tooLong(req.Slug, maxSlugLen) {
		return "Slug is too long (max 250 characters)."
	}
	if create && strings.TrimSpace(req.Content) == "" {
		return "Content is required."
	}
	if tooLong(req.Content, maxContentLen) {
		return "Content is too long (max 100,000 characters)."
	}
	if optTooLong(req.FeaturedImageURL, maxURLLen) {
		return "Featured image URL is too long (max 500 characters)."
	}
	return validateMetadata(req.Summary, req.MetaTitle, req.MetaDescription, req.MetaKeywords)
}

// validateMetadata checks optional summary and SEO fields.
func validateMetadata(summary, metaTitle, metaDesc, metaKw *string) string {
	if optTooLong(summary, maxSummaryLen) {
		return "Summary is too long (max 500 characters)."
	}
	if optTooLong(metaTitle, maxMetaTitleLen) {
		return "Meta title is too long (max 200 characters)."
	}
	if optTooLong(metaDesc, maxMetaDescLen) {
		return "Meta description is too long (max 300 characters)."
	}
	if optTooLong(metaKw, maxMetaKeywordLen) {
		return "Meta keywords are too long (max 500 characters)."
	}
	return ""
}

// validateRegistration checks sign-up input.
func validateRegistration(req *registerRequest) string {
	username := strings.TrimSpace(req.Username)
	switch {
	case utf8.RuneCountInString(username) < minUsernameLen:
		return "Username must be at least 3 characters."
	case tooLong(username, maxUsernameLen):
		return "Username is too long (max 50 characters)."
	case !usernamePattern.MatchString(username):
		return "Username may only contain letters, digits, '.', '-' and '_'."
	}
	if msg := validateEmail(req.Email); msg != "" {
		return msg
	}
	if msg := validatePassword(req.Password); msg != "" {
		return msg
	}
	if tooLong(req.FirstName, maxNameLen) || tooLong(req.LastName, maxNameLen) {
		return "Names are limited to 50 characters."
	}
	return ""
}

func validateEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if tooLong(email, maxEmailLen) {
		return "Email is too long (max 100 characters)."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Email address is not valid."
	}
	return ""
}

func validatePassword(password string) string {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return ""
}

// validateProfile checks profile edits.
func validateProfile(req *profileRequest) string {
	if tooLong(req.FirstName, maxNameLen) || tooLong(req.LastName, maxNameLen) {
		return "Names are limited to 50 characters."
	}
	if optTooLong(req.Bio, maxBioLen) {
		return "Bio is too long (max 500 characters)."
	}
	if optTooLong(req.AvatarURL, maxURLLen) {
		return "Avatar URL is too long (max 500 characters)."
	}
	return ""
}

// validateCategory checks category fields. Color format is checked by the
// service.
func validateCategory(req *categoryRequest) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "Category name is required."
	}
	if tooLong(name, maxCategoryNameLen) {
		return "Category name is too long (max 100 characters)."
	}
	if tooLong(req.Slug, maxCategorySlugLen) {
		return "Slug is too long (max 120 characters)."
	}
	if optTooLong(req.Description, maxCategoryDescLen) {
		return "Description is too long (max 500 characters)."
	}
	if optTooLong(req.Icon, maxIconLen) {
		return "Icon is too long (max 50 characters)."
	}
	return ""
}

// validateTag checks tag fields.
func validateTag(req *tagRequest) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "Tag name is required."
	}
	if tooLong(name, maxTagNameLen) {
		return "Tag name is too long (max 50 characters)."
	}
	if optTooLong(req.Description, maxTagDescLen) {
		return "Description is too long (max 200 characters)."
	}
	return ""
}

// validateEditReason checks the optional reason attached to comment edits.
func validateEditReason(reason *string) string {
	if optTooLong(reason, maxEditReasonLen) {
		return "Edit reason is too long (max 200 characters)."
	}
	return ""
}
