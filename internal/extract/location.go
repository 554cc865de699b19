package extract

import (
	"regexp"
	"strings"
)

// Fixed gazetteer of UK place names and work-mode markers. Order matters only
// for ties; matching is whole-entry, case-insensitive.
var locationGazetteer = []string{
	"Remote",
	"Hybrid",
	"On-site",
	"Onsite",
	"London",
	"Manchester",
	"Birmingham",
	"Leeds",
	"Glasgow",
	"Edinburgh",
	"Bristol",
	"Liverpool",
	"Newcastle",
	"Sheffield",
	"Nottingham",
	"Leicester",
	"Cambridge",
	"Oxford",
	"Cardiff",
	"Belfast",
	"Brighton",
	"Reading",
	"Milton Keynes",
	"Southampton",
}

var reGazetteer = buildGazetteerRegexp()

func buildGazetteerRegexp() *regexp.Regexp {
	parts := make([]string, 0, len(locationGazetteer))
	for _, g := range locationGazetteer {
		parts = append(parts, regexp.QuoteMeta(g))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(parts, "|") + `)\b`)
}

// Capitalized tokens only, so "based in Leeds these days" stops at "Leeds".
var reLocationLabel = regexp.MustCompile(`\b(?:[Ll]ocation|[Bb]ased in)\s*:?\s+([A-Z][A-Za-z'-]*(?:[ ,]+[A-Z][A-Za-z'-]*){0,3})`)

// locationScanWindow bounds the searchable text for the gazetteer pass.
const locationScanWindow = 1000

// Location extracts a place from prose: labeled pattern first, else the
// first gazetteer hit within the scan window.
func Location(text string) string {
	if m := reLocationLabel.FindStringSubmatch(text); len(m) == 2 {
		loc := trimLocationTail(m[1])
		if loc != "" {
			return loc
		}
	}

	window := text
	if len(window) > locationScanWindow {
		window = window[:locationScanWindow]
	}
	if m := reGazetteer.FindString(window); m != "" {
		return canonicalGazetteerEntry(m)
	}
	return ""
}

// canonicalGazetteerEntry restores the gazetteer's casing for a hit.
func canonicalGazetteerEntry(m string) string {
	for _, g := range locationGazetteer {
		if strings.EqualFold(g, m) {
			return g
		}
	}
	return m
}

func trimLocationTail(s string) string {
	s = CleanText(s)
	// stop at sentence-ish boundaries the label regex may run through
	for _, cut := range []string{" | ", " - ", " and "} {
		if i := strings.Index(s, cut); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.TrimRight(s, ".,;:-")
	return strings.TrimSpace(s)
}
