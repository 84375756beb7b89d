// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"
)

// Paging limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a zero-based page and an optional sort key. Sort keys
// are looked up in a per-query whitelist; unknown keys fall back to the
// query's default order.
type PageRequest struct {
	Page int
	Size int
	Sort string
	Desc bool
}

// Page is one page of results plus the total row count.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps page and size into range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int { return p.Page * p.Size }

// sortSpec maps public sort keys to SQL expressions.
type sortSpec struct {
	columns map[string]string
	// fallback is a complete ORDER BY expression used when the request
	// names no valid key.
	fallback string
}

// orderBy renders the ORDER BY clause. id is always appended so paging is
// stable across equal keys.
func (s sortSpec) orderBy(p PageRequest, idColumn string) string {
	col, ok := s.columns[strings.ToLower(p.Sort)]
	if !ok {
		return " ORDER BY " + s.fallback + ", " + idColumn
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s", col, dir, idColumn)
}

// pageQuery runs a count query and a data query that share args. The data
// query receives LIMIT and OFFSET as the two parameters after args.
func pageQuery[T any](
	ctx context.Context, db DBTX, op string,
	countSQL, selectSQL string, args []any,
	spec sortSpec, idColumn string, p PageRequest,
	scan func(scanner) (*T, error),
) (*Page[T], error) {
	p = p.Normalize()

	var total int64
	if err := db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, mapError(op+" count", err)
	}

	n := len(args)
	q := selectSQL + spec.orderBy(p, idColumn) + fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := db.QueryContext(ctx, q, append(append([]any{}, args...), p.Size, p.Offset())...)
	if err != nil {
		return nil, mapError(op, err)
	}
	items, err := collect(rows, op, scan)
	if err != nil {
		return nil, err
	}

	pages := 0
	if total > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return &Page[T]{Items: items, Total: total, Page: p.Page, Size: p.Size, TotalPages: pages}, nil
}
