package report

import (
	"regexp"
	"strings"
)

// Model output arrives as loose markdown. Every piece of text is passed
// through sanitize before it is placed in the document, so marker stripping
// lives in exactly one place.
var (
	boldMarkers    = regexp.MustCompile(`\*{1,3}|_{2,3}`)
	headingMarkers = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	bulletMarkers  = regexp.MustCompile(`(?m)^[ \t]*[•▪‣][ \t]*`)
	backticks      = regexp.MustCompile("`+")
	excessNewlines = regexp.MustCompile(`\n{3,}`)
)

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = headingMarkers.ReplaceAllString(s, "")
	s = boldMarkers.ReplaceAllString(s, "")
	s = backticks.ReplaceAllString(s, "")
	s = bulletMarkers.ReplaceAllString(s, "- ")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
