// internal/normalize/normalize.go
// Package normalize provides the deterministic text transforms shared by the
// episode and memo extraction engines: whitespace collapsing, calendar-date
// canonicalization, and ellipsis-aware truncation.
package normalize

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
)

// DateLayout is the canonical calendar-date form produced by Date.
const DateLayout = "2006-01-02"

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace folds every whitespace run to a single space and trims
// both ends.
func CollapseWhitespace(raw string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
}

// Date converts a raw date string to the canonical 2006-01-02 form. It
// accepts already-canonical strings, long-form human dates ("June 18, 2025"),
// and machine-readable timestamps lifted from markup attributes. The boolean
// is false when the input cannot be understood as a calendar date; parsing
// failures never panic or return an error.
func Date(raw string) (string, bool) {
	cleaned := CollapseWhitespace(raw)
	if cleaned == "" {
		return "", false
	}
	t, err := dateparse.ParseAny(cleaned)
	if err != nil {
		return "", false
	}
	return t.Format(DateLayout), true
}

// Ellipsis markers recognized by TruncateAtEllipsis. Order here is
// irrelevant: the scan always cuts at the earliest occurrence of any marker.
var ellipsisMarkers = []string{"...", "…", ". . ."}

// TruncateAtEllipsis returns the portion of raw strictly before the earliest
// ellipsis marker of any kind. The result is whitespace-collapsed, so inputs
// without a marker come back exactly as CollapseWhitespace would return them.
func TruncateAtEllipsis(raw string) string {
	cut := -1
	for _, marker := range ellipsisMarkers {
		if idx := strings.Index(raw, marker); idx >= 0 && (cut < 0 || idx < cut) {
			cut = idx
		}
	}
	if cut < 0 {
		return CollapseWhitespace(raw)
	}
	return CollapseWhitespace(raw[:cut])
}
