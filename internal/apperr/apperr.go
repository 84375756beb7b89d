// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the typed errors surfaced by stores and services.
// Every failure that a caller may want to react to carries a Kind; anything
// else is an internal error and is wrapped with fmt.Errorf as usual.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	// Validation: malformed input, rejected before anything is persisted.
	Validation Kind = "validation"
	// NotFound: a referenced id or slug does not exist.
	NotFound Kind = "not_found"
	// Conflict: a uniqueness constraint would be violated.
	Conflict Kind = "conflict"
	// Concurrency: optimistic-lock version mismatch. Retry against a fresh read.
	Concurrency Kind = "concurrency"
	// Unauthorized: no valid principal.
	Unauthorized Kind = "unauthorized"
	// Forbidden: the principal lacks the required authority.
	Forbidden Kind = "forbidden"
)

// Error is an application error with a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an Error of the given kind. The message may use fmt verbs.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message of err, or a generic text for
// internal errors so nothing from the database leaks to callers.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
