package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// UniqueIDs concatenates the id lists, dropping repeated ids while keeping first-seen order.
func UniqueIDs(lists ...[]int64) []int64 {
	var n int
	for _, ids := range lists {
		n += len(ids)
	}
	seen := make(map[int64]struct{}, n)
	out := make([]int64, 0, n)
	for _, ids := range lists {
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
