package extract

import (
	"regexp"
	"strings"
)

var (
	// "Position: Backend Engineer" / "Role - Senior Analyst" / "looking for: ..."
	// The captured phrase must start capitalized and stay within 5-50 chars,
	// so the label spellings are enumerated instead of using (?i).
	rePositionLabel = regexp.MustCompile(`\b(?:[Pp]osition|[Rr]ole|[Ll]ooking for)\s*[:\-]\s*([A-Z][A-Za-z0-9+#/&().,' -]{4,49})`)

	// Phrase ending in a known job-title suffix word, up to four leading words.
	rePositionSuffix = regexp.MustCompile(`(?i)\b((?:[A-Za-z+#/&.-]+\s+){0,4}(?:engineer|developer|manager|analyst|specialist|director|coordinator|assistant|executive))\b`)
)

// Position extracts a job title from a subject line and body text. Strategies
// in order: labeled pattern, title-suffix phrase, then a token fallback on
// the subject.
func Position(subject, body string) string {
	for _, src := range []string{subject, body} {
		if m := rePositionLabel.FindStringSubmatch(src); len(m) == 2 {
			return trimPositionTail(m[1])
		}
	}
	for _, src := range []string{subject, body} {
		if m := rePositionSuffix.FindStringSubmatch(src); len(m) == 2 {
			if p := trimLeadingStopwords(CleanText(m[1])); len(p) >= 5 {
				return p
			}
		}
	}
	return subjectFallback(subject)
}

// Filler that the greedy suffix match tends to drag in from prose
// ("Following up on Backend Engineer role" should not keep "Following up on").
var positionStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true, "for": true, "about": true,
	"regarding": true, "re": true, "your": true, "my": true, "up": true,
	"following": true, "to": true, "as": true, "of": true, "is": true,
	"hiring": true, "seeking": true, "new": true,
}

func trimLeadingStopwords(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 1 && positionStopwords[strings.ToLower(tokens[0])] {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// subjectFallback takes the first 2-6 whitespace/hyphen tokens of the subject
// if their joined length lands between 5 and 100 chars.
func subjectFallback(subject string) string {
	s := CleanText(stripReplyPrefixes(subject))
	if s == "" {
		return ""
	}
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t'
	})
	if len(tokens) < 2 {
		return ""
	}
	if len(tokens) > 6 {
		tokens = tokens[:6]
	}
	out := strings.Join(tokens, " ")
	if len(out) < 5 || len(out) > 100 {
		return ""
	}
	return out
}

func stripReplyPrefixes(s string) string {
	s = strings.TrimSpace(s)
	for {
		ls := strings.ToLower(s)
		stripped := false
		for _, p := range []string{"re:", "fwd:", "fw:"} {
			if strings.HasPrefix(ls, p) {
				s = strings.TrimSpace(s[len(p):])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// trimPositionTail drops trailing punctuation the label regex may swallow.
func trimPositionTail(s string) string {
	s = CleanText(s)
	s = strings.TrimRight(s, ".,;:-")
	return strings.TrimSpace(s)
}
