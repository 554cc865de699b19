// Package pipeline runs extracted records through validation, dedup and the
// persistence gateway, producing a per-batch summary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"jobtrail-engine/internal/domain"
)

// Gateway is the persistence surface the pipeline writes through. Inserts are
// idempotent at the storage layer as well: a key collision reports a
// duplicate, never an error.
type Gateway interface {
	FindJobByURL(ctx context.Context, userID, urlKey string) (*domain.JobRecord, error)
	FindEmailNear(ctx context.Context, userID, recipientEmail string, sentAt time.Time, window time.Duration) (*domain.ParsedJobEmail, error)

	// InsertJob stores rec under userID. inserted=false means the unique
	// key already existed.
	InsertJob(ctx context.Context, userID string, rec domain.JobRecord) (inserted bool, err error)
	InsertEmail(ctx context.Context, userID string, em domain.ParsedJobEmail) (inserted bool, err error)
}

// StorageError wraps a gateway failure for a single item so callers can tell
// infrastructure trouble apart from validation rejects.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// OutcomeKind classifies what happened to one item of a batch.
type OutcomeKind string

const (
	OutcomeStored    OutcomeKind = "stored"
	OutcomeDuplicate OutcomeKind = "duplicate"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome is the per-item result. Reason is set for rejects, Err for failures.
type Outcome struct {
	Index  int         `json:"index"`
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	Err    error       `json:"-"`
}

// Summary aggregates a batch. Rejected items count as failed: from the
// caller's view both mean "this item was not stored and will not be retried".
type Summary struct {
	Succeeded  int `json:"succeeded"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

func (s *Summary) add(o Outcome) {
	switch o.Kind {
	case OutcomeStored:
		s.Succeeded++
	case OutcomeDuplicate:
		s.Duplicates++
	default:
		s.Failed++
	}
}

// Total is the number of items the summary accounts for.
func (s Summary) Total() int {
	return s.Succeeded + s.Duplicates + s.Failed
}
