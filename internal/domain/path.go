package domain

import "strings"

// NormalizePath returns "/" for empty or root paths; otherwise a path with exactly one
// leading slash and no trailing slash.
func NormalizePath(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}
