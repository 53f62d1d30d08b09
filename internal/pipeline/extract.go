package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailedger/internal"
	"mailedger/internal/config"
)

type FailureKind string

const (
	SelectorNoMatch FailureKind = "SELECTOR_NO_MATCH"
	PatternNoMatch  FailureKind = "PATTERN_NO_MATCH"
	NoGroupCaptured FailureKind = "NO_GROUP_CAPTURED"
)

// ExtractionError reports a field that could not be pulled out of a message.
// It carries the rule and the raw source text for diagnostics.
type ExtractionError struct {
	Kind   FailureKind
	Rule   string
	Source string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s) with rule %q", e.Kind, e.Rule)
}

// Extract applies one extraction rule to one email record. It is a pure
// function: failures come back as errors for the caller to handle, never as
// process-fatal conditions.
func Extract(record internal.EmailRecord, rule config.ExtractionRule) (string, error) {
	if rule.Source == "soup" {
		return extractSelector(record, rule)
	}
	return extractRegex(record, rule)
}

func extractSelector(record internal.EmailRecord, rule config.ExtractionRule) (string, error) {
	src := sourceField(record, rule.Soup.Source)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", &ExtractionError{Kind: SelectorNoMatch, Rule: rule.Soup.Selector, Source: src}
	}
	sel := doc.Find(rule.Soup.Selector).First()
	if sel.Length() == 0 {
		return "", &ExtractionError{Kind: SelectorNoMatch, Rule: rule.Soup.Selector, Source: src}
	}
	return strings.TrimSpace(sel.Text()), nil
}

func extractRegex(record internal.EmailRecord, rule config.ExtractionRule) (string, error) {
	src := sourceField(record, rule.Source)
	re, err := regexp.Compile(rule.Regex)
	if err != nil {
		return "", fmt.Errorf("invalid extraction regex %q: %w", rule.Regex, err)
	}

	match := re.FindStringSubmatchIndex(src)
	if match == nil {
		return "", &ExtractionError{Kind: PatternNoMatch, Rule: rule.Regex, Source: src}
	}

	// First declared group with a participating capture wins, even when a
	// later group captured as well.
	for _, key := range rule.RegexKeys {
		gi := re.SubexpIndex(key)
		if gi < 0 {
			return "", fmt.Errorf("regex %q does not define group %q", rule.Regex, key)
		}
		start, end := match[2*gi], match[2*gi+1]
		if start < 0 {
			continue
		}
		return strings.TrimSpace(src[start:end]), nil
	}

	return "", &ExtractionError{Kind: NoGroupCaptured, Rule: rule.Regex, Source: src}
}

func sourceField(record internal.EmailRecord, source string) string {
	switch source {
	case "text":
		return record.Text
	case "html":
		return record.HTML
	case "body":
		return record.Body
	}
	return ""
}
