package extract

import (
	"strings"

	"jobtrail-engine/internal/domain"
)

// statusSignals is a fixed priority list: the first substring present wins,
// so "not selected" beats a later "interview" in the same text.
var statusSignals = []struct {
	needle string
	status domain.Status
}{
	{"viewed", domain.StatusViewed},
	{"in progress", domain.StatusInProgress},
	{"not selected", domain.StatusRejected},
	{"interview", domain.StatusInterview},
}

// StatusFromText derives an application status from free text, defaulting
// to APPLIED.
func StatusFromText(text string) domain.Status {
	lt := strings.ToLower(text)
	for _, sig := range statusSignals {
		if strings.Contains(lt, sig.needle) {
			return sig.status
		}
	}
	return domain.StatusApplied
}
