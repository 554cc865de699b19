// Package extract holds the per-field extraction heuristics. Every function
// is pure: given text or a DOM fragment it returns a best-guess value or ""
// and never fails. Strategies are ordered by specificity, first match wins.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Attempt records one step of a selector cascade so callers can report which
// strategies were tried versus which one succeeded.
type Attempt struct {
	Selector string
	Matched  bool
	Invalid  bool
}

// CascadeText tries each selector in order against the fragment and returns
// the first non-empty trimmed text. Invalid selector syntax skips that
// attempt rather than aborting the cascade; goquery's Find panics on bad
// selectors, so each one is compiled explicitly.
func CascadeText(s *goquery.Selection, selectors []string) (string, []Attempt) {
	trail := make([]Attempt, 0, len(selectors))
	for _, sel := range selectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			trail = append(trail, Attempt{Selector: sel, Invalid: true})
			continue
		}
		t := CleanText(s.FindMatcher(m).First().Text())
		if t != "" {
			trail = append(trail, Attempt{Selector: sel, Matched: true})
			return t, trail
		}
		trail = append(trail, Attempt{Selector: sel})
	}
	return "", trail
}

// CascadeAttr is CascadeText for an attribute value.
func CascadeAttr(s *goquery.Selection, selectors []string, attr string) (string, []Attempt) {
	trail := make([]Attempt, 0, len(selectors))
	for _, sel := range selectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			trail = append(trail, Attempt{Selector: sel, Invalid: true})
			continue
		}
		if v, ok := s.FindMatcher(m).First().Attr(attr); ok {
			if v = strings.TrimSpace(v); v != "" {
				trail = append(trail, Attempt{Selector: sel, Matched: true})
				return v, trail
			}
		}
		trail = append(trail, Attempt{Selector: sel})
	}
	return "", trail
}

// CleanText collapses whitespace (including non-breaking spaces) to single
// spaces and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
