package dataset

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// SnapshotKey builds the cache key for one dataset source. The sanitized
// URL keeps keys readable; the hash suffix keeps them exact.
func SnapshotKey(dataset, url string) string {
	src := sanitizeForKey(strings.TrimSpace(url))

	const maxSrcLen = 120
	if len(src) > maxSrcLen {
		src = src[:maxSrcLen]
	}

	sum := xxhash.Sum64String(strings.TrimSpace(url))
	return fmt.Sprintf("ds:%s:%s:u=%016x", dataset, src, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '.' || r == '/':
			out = r
		default:
			// any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
