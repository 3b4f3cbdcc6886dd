package transform

import (
	"strconv"
	"strings"
)

// Resolve walks a dotted path with optional bracketed numeric indices
// (e.g. "credits.crew[0].name") through nested maps and lists. A missing
// intermediate key or an out-of-range index yields absent (false), never
// an error.
func Resolve(payload map[string]any, path string) (any, bool) {
	var current any = payload
	for _, seg := range strings.Split(path, ".") {
		key, indices, ok := splitSegment(seg)
		if !ok {
			return nil, false
		}

		if key != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[key]
			if !ok {
				return nil, false
			}
		}

		for _, idx := range indices {
			list, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil, false
			}
			current = list[idx]
		}
	}
	return current, true
}

// splitSegment separates "crew[0][1]" into "crew" and [0, 1].
func splitSegment(seg string) (string, []int, bool) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, nil, true
	}

	key := seg[:open]
	rest := seg[open:]
	var indices []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close < 0 {
			return "", nil, false
		}
		n, err := strconv.Atoi(rest[1:close])
		if err != nil {
			return "", nil, false
		}
		indices = append(indices, n)
		rest = rest[close+1:]
	}
	return key, indices, true
}
