package slug

import (
	"strconv"
	"strings"
)

// Make derives a URL-safe slug from a human-chosen name: lowercase ASCII
// letters and digits, runs of anything else collapsed to single dashes.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// WithSuffix returns the n-th collision candidate for a base slug:
// n=0 yields the base itself, n=1 yields "base-1" and so on.
func WithSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
