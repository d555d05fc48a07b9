package utils

import (
	"strconv"
	"strings"
	"time"
)

// GenerateSlug builds a URL-safe slug from a title: lower-case,
// non-alphanumeric runs collapsed to single hyphens, leading/trailing
// hyphens trimmed, then a base-36 timestamp suffix so two posts with
// the same title never collide without a coordination round-trip.
func GenerateSlug(title string) string {
	s := Slugify(title)
	if s == "" {
		// a title with no alphanumerics at all still gets a valid slug
		s = "post"
	}
	return s + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// Slugify is the deterministic part of GenerateSlug.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
