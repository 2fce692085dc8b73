package pages

import (
	"fmt"
	"strings"

	"sitepub/internal/core/domain"
)

// ValidateSlugs reports target slugs shared by more than one page, one
// message per slug in first-seen order. It returns nil when every target
// slug is unique.
func ValidateSlugs(records []domain.PageRecord) []string {
	groups := make(map[string]int, len(records))
	var slugs []string
	var keys [][]string

	for _, r := range records {
		i, ok := groups[r.TargetSlug]
		if !ok {
			i = len(slugs)
			groups[r.TargetSlug] = i
			slugs = append(slugs, r.TargetSlug)
			keys = append(keys, nil)
		}
		keys[i] = append(keys[i], r.SourceKey)
	}

	var msgs []string
	for i, slug := range slugs {
		if len(keys[i]) < 2 {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("target slug %q is used by %d pages: %s",
			slug, len(keys[i]), strings.Join(keys[i], ", ")))
	}
	return msgs
}
