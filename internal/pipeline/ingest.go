package pipeline

import (
	"context"
	"log"
	"time"

	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/domain"
)

// Ingestor drives batches of extracted records into storage. Items are
// processed one at a time and isolated from each other: one bad record never
// sinks the batch.
type Ingestor struct {
	gw    Gateway
	dedup *dedupe.Deduplicator
	log   *log.Logger
	now   func() time.Time
}

func NewIngestor(gw Gateway, d *dedupe.Deduplicator, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestor{gw: gw, dedup: d, log: logger, now: time.Now}
}

// IngestJobs validates, dedups and stores a batch of job records. A context
// cancellation stops the loop and returns the partial summary together with
// the context's error; everything already counted was really processed.
func (in *Ingestor) IngestJobs(ctx context.Context, userID string, recs []domain.JobRecord) (Summary, []Outcome, error) {
	var sum Summary
	outcomes := make([]Outcome, 0, len(recs))
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return sum, outcomes, err
		}
		o := in.ingestJob(ctx, userID, i, rec)
		sum.add(o)
		outcomes = append(outcomes, o)
	}
	in.log.Printf("[pipeline] jobs user=%s total=%d stored=%d dup=%d failed=%d",
		userID, sum.Total(), sum.Succeeded, sum.Duplicates, sum.Failed)
	return sum, outcomes, nil
}

func (in *Ingestor) ingestJob(ctx context.Context, userID string, idx int, rec domain.JobRecord) Outcome {
	rec = rec.Normalize(in.now())
	if verr := rec.Validate(); verr != nil {
		return Outcome{Index: idx, Kind: OutcomeRejected, Reason: verr.Reason}
	}

	dup, err := in.dedup.IsDuplicateJob(ctx, userID, rec)
	if err != nil {
		in.log.Printf("[pipeline] job dedup check failed user=%s idx=%d err=%v", userID, idx, err)
		return Outcome{Index: idx, Kind: OutcomeFailed, Err: &StorageError{Op: "find", Err: err}}
	}
	if dup {
		return Outcome{Index: idx, Kind: OutcomeDuplicate}
	}

	inserted, err := in.gw.InsertJob(ctx, userID, rec)
	if err != nil {
		in.log.Printf("[pipeline] job insert failed user=%s idx=%d err=%v", userID, idx, err)
		return Outcome{Index: idx, Kind: OutcomeFailed, Err: &StorageError{Op: "insert", Err: err}}
	}
	if !inserted {
		// raced another writer onto the same key
		return Outcome{Index: idx, Kind: OutcomeDuplicate}
	}
	return Outcome{Index: idx, Kind: OutcomeStored}
}

// IngestEmails is the email-side twin of IngestJobs.
func (in *Ingestor) IngestEmails(ctx context.Context, userID string, emails []domain.ParsedJobEmail) (Summary, []Outcome, error) {
	var sum Summary
	outcomes := make([]Outcome, 0, len(emails))
	for i, em := range emails {
		if err := ctx.Err(); err != nil {
			return sum, outcomes, err
		}
		o := in.ingestEmail(ctx, userID, i, em)
		sum.add(o)
		outcomes = append(outcomes, o)
	}
	in.log.Printf("[pipeline] emails user=%s total=%d stored=%d dup=%d failed=%d",
		userID, sum.Total(), sum.Succeeded, sum.Duplicates, sum.Failed)
	return sum, outcomes, nil
}

func (in *Ingestor) ingestEmail(ctx context.Context, userID string, idx int, em domain.ParsedJobEmail) Outcome {
	if verr := em.Validate(); verr != nil {
		return Outcome{Index: idx, Kind: OutcomeRejected, Reason: verr.Reason}
	}
	em = em.Truncated()
	if em.SentAt.IsZero() {
		em.SentAt = in.now()
	}

	dup, err := in.dedup.IsDuplicateEmail(ctx, userID, em)
	if err != nil {
		in.log.Printf("[pipeline] email dedup check failed user=%s idx=%d err=%v", userID, idx, err)
		return Outcome{Index: idx, Kind: OutcomeFailed, Err: &StorageError{Op: "find", Err: err}}
	}
	if dup {
		return Outcome{Index: idx, Kind: OutcomeDuplicate}
	}

	inserted, err := in.gw.InsertEmail(ctx, userID, em)
	if err != nil {
		in.log.Printf("[pipeline] email insert failed user=%s idx=%d err=%v", userID, idx, err)
		return Outcome{Index: idx, Kind: OutcomeFailed, Err: &StorageError{Op: "insert", Err: err}}
	}
	if !inserted {
		return Outcome{Index: idx, Kind: OutcomeDuplicate}
	}
	return Outcome{Index: idx, Kind: OutcomeStored}
}
