package pages

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxSlugLength bounds every slug this package produces.
const MaxSlugLength = 80

// DefaultSlug is used whenever nothing slug-worthy is left of the input.
const DefaultSlug = "page"

// Slugify lowercases text, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends. The result is
// at most MaxSlugLength bytes and never empty.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	gap := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return clampSlug(b.String())
}

func clampSlug(s string) string {
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return DefaultSlug
	}
	return s
}

// truncateSlug shortens an explicit slug to MaxSlugLength bytes. Its
// characters are kept as given.
func truncateSlug(s string) string {
	return strings.TrimSpace(truncateBytes(s, MaxSlugLength))
}

// truncateBytes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// uniqueKeys rewrites repeated slugs as slug-2, slug-3, ... so that source
// keys are unique within one extraction batch.
func uniqueKeys(pages []ExtractedPage) {
	seen := make(map[string]bool, len(pages))
	for i := range pages {
		base := pages[i].Slug
		key := base
		for n := 2; seen[key]; n++ {
			suffix := "-" + strconv.Itoa(n)
			trimmed := base
			if len(trimmed)+len(suffix) > MaxSlugLength {
				trimmed = strings.TrimRight(truncateBytes(trimmed, MaxSlugLength-len(suffix)), "-")
			}
			key = trimmed + suffix
		}
		seen[key] = true
		pages[i].Slug = key
	}
}
