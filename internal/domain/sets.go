package domain

import (
	"sort"
	"strings"
)

// NormalizeSet trims, drops empties, de-duplicates and sorts.
func NormalizeSet(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UnionSets returns the sorted union of a and b.
func UnionSets(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormalizeSet(merged)
}

func Intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	idx := make(map[string]struct{}, len(a))
	for _, v := range a {
		idx[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := idx[v]; ok {
			return true
		}
	}
	return false
}

func intersection(a, b []string) []string {
	idx := make(map[string]struct{}, len(a))
	for _, v := range a {
		idx[v] = struct{}{}
	}
	var out []string
	for _, v := range b {
		if _, ok := idx[v]; ok {
			out = append(out, v)
		}
	}
	return NormalizeSet(out)
}

// appendChain copies chain before appending so callers never share backing arrays.
func appendChain(chain []string, steps ...string) []string {
	out := make([]string, 0, len(chain)+len(steps))
	out = append(out, chain...)
	for _, s := range steps {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
