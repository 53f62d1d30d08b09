package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reSpaces = regexp.MustCompile(`\s+`)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// StripHTML reduces markup to its text content with whitespace collapsed, so
// descriptions match deposit and ignore rules regardless of source markup.
// Plain text gets the same normalization.
func StripHTML(input string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return NormalizeSpaces(input)
	}
	return NormalizeSpaces(doc.Text())
}

func StringPtr(v string) *string { return &v }
