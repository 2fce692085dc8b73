// Package pages turns raw renderer output into the canonical page list of a
// website-update job. Nothing in this package talks to the network.
package pages

import "strings"

// \r\n must precede \n so no stray carriage return survives.
var escapeReplacer = strings.NewReplacer(
	`\r\n`, "\r\n",
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
	`\'`, `'`,
)

// NormalizeEscapes converts literal backslash escape sequences left behind by
// double-encoded LLM output into the characters they stand for. Clean input
// is returned as is.
func NormalizeEscapes(s string) string {
	// Each pass strictly shortens the string, so this terminates. Repeating
	// until no marker is left keeps the result a fixed point: an input such
	// as `\\"` would otherwise come out as `\"`.
	for hasEscapeMarker(s) {
		s = escapeReplacer.Replace(s)
	}
	return s
}

func hasEscapeMarker(s string) bool {
	if strings.IndexByte(s, '\\') < 0 {
		return false
	}
	return strings.Contains(s, `\n`) ||
		strings.Contains(s, `\t`) ||
		strings.Contains(s, `\"`) ||
		strings.Contains(s, `\'`)
}
