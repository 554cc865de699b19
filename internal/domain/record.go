package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Source identifies the job board a record was captured from.
type Source string

const (
	SourceLinkedIn  Source = "LinkedIn"
	SourceIndeed    Source = "Indeed"
	SourceReed      Source = "Reed"
	SourceTotalJobs Source = "TotalJobs"
	SourceMonster   Source = "Monster"
	SourceGlassdoor Source = "Glassdoor"
	SourceOther     Source = "Other"
)

// ParseSource maps free-form source names onto the known set.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linkedin":
		return SourceLinkedIn
	case "indeed":
		return SourceIndeed
	case "reed":
		return SourceReed
	case "totaljobs":
		return SourceTotalJobs
	case "monster":
		return SourceMonster
	case "glassdoor":
		return SourceGlassdoor
	default:
		return SourceOther
	}
}

// Status is the application lifecycle state derived from free-text signals.
type Status string

const (
	StatusApplied    Status = "APPLIED"
	StatusViewed     Status = "VIEWED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInterview  Status = "INTERVIEW"
	StatusRejected   Status = "REJECTED"
)

// CaptureMethod records how a JobRecord entered the system.
type CaptureMethod string

const (
	CaptureManual    CaptureMethod = "MANUAL"
	CaptureExtension CaptureMethod = "EXTENSION"
	CaptureEmailSync CaptureMethod = "EMAIL_SYNC"
	CaptureAPI       CaptureMethod = "API"
)

// UnknownCompany is the sentinel used when a position is extractable but the
// company is not.
const UnknownCompany = "Unknown Company"

// JobRecord is a structured job application. Location, Salary and JobURL are
// empty when unknown (absent rather than a placeholder).
type JobRecord struct {
	Position      string        `json:"position"`
	Company       string        `json:"company"`
	Location      string        `json:"location,omitempty"`
	Salary        string        `json:"salary,omitempty"`
	JobURL        string        `json:"jobUrl,omitempty"`
	Source        Source        `json:"source"`
	Status        Status        `json:"status"`
	CaptureMethod CaptureMethod `json:"captureMethod"`
	AppliedAt     time.Time     `json:"appliedAt"`
}

const (
	minPositionLen = 5
	maxPositionLen = 255
)

// Boilerplate navigation text that disqualifies a position outright.
var positionBlocklist = []string{
	"skip to",
	"my items",
	"sign in",
	"sign up",
	"main content",
}

// ValidationError names the specific invariant a candidate record failed.
// Records that fail validation are discarded, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidatePosition enforces the persistence invariant: 5-255 chars and not
// navigation boilerplate.
func ValidatePosition(position string) *ValidationError {
	p := strings.TrimSpace(position)
	if p == "" {
		return &ValidationError{Field: "position", Reason: "missing"}
	}
	if len(p) < minPositionLen {
		return &ValidationError{Field: "position", Reason: "too_short"}
	}
	if len(p) > maxPositionLen {
		return &ValidationError{Field: "position", Reason: "too_long"}
	}
	lp := strings.ToLower(p)
	for _, b := range positionBlocklist {
		if strings.Contains(lp, b) {
			return &ValidationError{Field: "position", Reason: "boilerplate"}
		}
	}
	if isNumericOnly(p) {
		return &ValidationError{Field: "position", Reason: "numeric_only"}
	}
	return nil
}

// Validate reports whether the record may be persisted.
func (r JobRecord) Validate() *ValidationError {
	return ValidatePosition(r.Position)
}

// Normalize fills defaults so a validated record is storable as-is.
func (r JobRecord) Normalize(now time.Time) JobRecord {
	r.Position = strings.TrimSpace(r.Position)
	r.Company = strings.TrimSpace(r.Company)
	if r.Company == "" {
		r.Company = UnknownCompany
	}
	if r.Source == "" {
		r.Source = SourceOther
	}
	if r.Status == "" {
		r.Status = StatusApplied
	}
	if r.AppliedAt.IsZero() {
		r.AppliedAt = now
	}
	return r
}

func isNumericOnly(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '.' || r == ',' || r == '-' {
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
		seen = true
	}
	return seen
}
