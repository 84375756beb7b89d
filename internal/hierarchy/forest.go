// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy walks self-referencing trees (categories, comment
// threads) held as flat lists. Nodes live in a slice and refer to their
// parent by key; children are indexes into the same slice. Every walk is
// iterative and tracks visited nodes, so it terminates on missing parents
// and on cycles left behind by bad data.
package hierarchy

// Forest indexes a flat list of items by key and parent key.
type Forest[K comparable, T any] struct {
	items    []T
	keys     []K
	index    map[K]int
	parent   []int // -1 for roots and for items whose parent is not loaded
	children [][]int
}

// New builds a forest. parentOf returns the parent key and false for roots.
// Children keep the order of items, so callers sort before building.
// Duplicate keys keep the first occurrence.
func New[K comparable, T any](items []T, keyOf func(T) K, parentOf func(T) (K, bool)) *Forest[K, T] {
	f := &Forest[K, T]{
		index: make(map[K]int, len(items)),
	}
	for _, it := range items {
		k := keyOf(it)
		if _, dup := f.index[k]; dup {
			continue
		}
		f.index[k] = len(f.items)
		f.items = append(f.items, it)
		f.keys = append(f.keys, k)
	}

	f.parent = make([]int, len(f.items))
	f.children = make([][]int, len(f.items))
	for i, it := range f.items {
		f.parent[i] = -1
		pk, ok := parentOf(it)
		if !ok {
			continue
		}
		p, found := f.index[pk]
		if !found || p == i {
			continue
		}
		f.parent[i] = p
		f.children[p] = append(f.children[p], i)
	}
	return f
}

// Len returns the number of distinct items.
func (f *Forest[K, T]) Len() int { return len(f.items) }

// Get returns the item with key k.
func (f *Forest[K, T]) Get(k K) (T, bool) {
	i, ok := f.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return f.items[i], true
}

// Roots returns items with no loaded parent, in input order. Items caught
// in a parent cycle have no root and are not returned.
func (f *Forest[K, T]) Roots() []T {
	var out []T
	for i, p := range f.parent {
		if p < 0 {
			out = append(out, f.items[i])
		}
	}
	return out
}

// Children returns the direct children of k.
func (f *Forest[K, T]) Children(k K) []T {
	i, ok := f.index[k]
	if !ok {
		return nil
	}
	out := make([]T, 0, len(f.children[i]))
	for _, c := range f.children[i] {
		out = append(out, f.items[c])
	}
	return out
}

// ancestorIdx returns ancestor indexes from the immediate parent upwards,
// stopping at a root, a missing parent, or the first repeated node.
func (f *Forest[K, T]) ancestorIdx(i int) []int {
	seen := map[int]bool{i: true}
	var out []int
	for p := f.parent[i]; p >= 0 && !seen[p]; p = f.parent[p] {
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Ancestors returns the chain from the root down to the immediate parent.
func (f *Forest[K, T]) Ancestors(k K) []T {
	i, ok := f.index[k]
	if !ok {
		return nil
	}
	idx := f.ancestorIdx(i)
	out := make([]T, len(idx))
	for j, a := range idx {
		out[len(idx)-1-j] = f.items[a]
	}
	return out
}

// Depth is the number of ancestors; roots are at depth 0. Unknown keys
// report -1.
func (f *Forest[K, T]) Depth(k K) int {
	i, ok := f.index[k]
	if !ok {
		return -1
	}
	return len(f.ancestorIdx(i))
}

// preorder returns i and all its descendants in pre-order, with depths
// relative to i.
func (f *Forest[K, T]) preorder(i int) (order []int, depth []int) {
	type frame struct{ idx, depth int }
	seen := map[int]bool{}
	stack := []frame{{i, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[top.idx] {
			continue
		}
		seen[top.idx] = true
		order = append(order, top.idx)
		depth = append(depth, top.depth)
		kids := f.children[top.idx]
		for c := len(kids) - 1; c >= 0; c-- {
			stack = append(stack, frame{kids[c], top.depth + 1})
		}
	}
	return order, depth
}

// Descendants returns every transitive child of k in pre-order, excluding k.
func (f *Forest[K, T]) Descendants(k K) []T {
	i, ok := f.index[k]
	if !ok {
		return nil
	}
	order, _ := f.preorder(i)
	out := make([]T, 0, len(order)-1)
	for _, d := range order[1:] {
		out = append(out, f.items[d])
	}
	return out
}

// IsDescendant reports whether candidate lies in the subtree below k.
func (f *Forest[K, T]) IsDescendant(k, candidate K) bool {
	c, ok := f.index[candidate]
	if !ok {
		return false
	}
	i, ok := f.index[k]
	if !ok {
		return false
	}
	for _, a := range f.ancestorIdx(c) {
		if a == i {
			return true
		}
	}
	return false
}

// WouldCycle reports whether making newParent the parent of k would put k
// among its own ancestors.
func (f *Forest[K, T]) WouldCycle(k, newParent K) bool {
	return k == newParent || f.IsDescendant(k, newParent)
}

// SubtreeSum adds value over k and all of its descendants.
func (f *Forest[K, T]) SubtreeSum(k K, value func(T) int64) int64 {
	i, ok := f.index[k]
	if !ok {
		return 0
	}
	order, _ := f.preorder(i)
	var total int64
	for _, d := range order {
		total += value(f.items[d])
	}
	return total
}

// Nest rebuilds the trees below each root as nested values. attach receives
// an item, its already nested children, and its depth, and returns the item
// to place in its parent's child list. Children are built before parents.
func (f *Forest[K, T]) Nest(attach func(item T, children []T, depth int) T) []T {
	var out []T
	for i, p := range f.parent {
		if p >= 0 {
			continue
		}
		out = append(out, f.nest(i, attach))
	}
	return out
}

// NestFrom nests the subtree rooted at k.
func (f *Forest[K, T]) NestFrom(k K, attach func(item T, children []T, depth int) T) (T, bool) {
	i, ok := f.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return f.nest(i, attach), true
}

func (f *Forest[K, T]) nest(root int, attach func(T, []T, int) T) T {
	order, depth := f.preorder(root)
	built := make(map[int]T, len(order))
	// Reverse pre-order visits every child before its parent.
	for j := len(order) - 1; j >= 0; j-- {
		i := order[j]
		var kids []T
		for _, c := range f.children[i] {
			if v, ok := built[c]; ok {
				kids = append(kids, v)
			}
		}
		built[i] = attach(f.items[i], kids, depth[j])
	}
	return built[root]
}
