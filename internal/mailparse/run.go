package mailparse

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobtrail-engine/internal/domain"
	"jobtrail-engine/internal/pipeline"
)

// SyncConfig is one mailbox scan's parameters.
type SyncConfig struct {
	Host        string
	Port        int
	Username    string
	Mailbox     string
	SinceDays   int
	MaxMessages int
}

// Report is the outcome of one sync: how much was fetched, how much the
// classifier skipped, and what the pipeline did with the rest.
type Report struct {
	Fetched    int              `json:"fetched"`
	Skipped    int              `json:"skipped"`
	Summary    pipeline.Summary `json:"summary"`
	SyncedAt   time.Time        `json:"syncedAt"`
	DurationMS int64            `json:"durationMs"`
}

// DialFunc opens a fetcher; swapped out in tests.
type DialFunc func(ctx context.Context, host string, port int, username, password, mailbox string) (Fetcher, error)

// Syncer runs fetch-parse-persist passes over the Sent folder.
type Syncer struct {
	ingestor *pipeline.Ingestor
	dial     DialFunc
	log      *log.Logger
}

func NewSyncer(ing *pipeline.Ingestor, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{
		ingestor: ing,
		log:      logger,
		dial: func(ctx context.Context, host string, port int, username, password, mailbox string) (Fetcher, error) {
			return DialAndLogin(ctx, host, port, username, password, mailbox)
		},
	}
}

const (
	parseWorkers = 4
	syncTimeout  = 2 * time.Minute
)

// SyncOnce fetches messages since the cutoff, classifies them in parallel,
// and persists the survivors. The method does not return until every
// per-message parse has finished; the join is on all workers, not just the
// network fetch. A mid-batch cancellation still reports the partial summary.
func (s *Syncer) SyncOnce(ctx context.Context, cfg SyncConfig, password, userID string) (*Report, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	fetcher, err := s.dial(ctx, cfg.Host, cfg.Port, cfg.Username, password, cfg.Mailbox)
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	sinceDays := cfg.SinceDays
	if sinceDays <= 0 {
		sinceDays = 30
	}
	since := time.Now().AddDate(0, 0, -sinceDays)

	raws, err := fetcher.FetchSince(ctx, since, cfg.MaxMessages)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		parsed  []domain.ParsedJobEmail
		skipped int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for _, raw := range raws {
		raw := raw
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			em, ok := s.classifyOne(raw)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				skipped++
				return nil
			}
			parsed = append(parsed, em)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum, _, err := s.ingestor.IngestEmails(ctx, userID, parsed)
	rep := &Report{
		Fetched:    len(raws),
		Skipped:    skipped,
		Summary:    sum,
		SyncedAt:   time.Now(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		// cancellation mid-batch: the partial summary is still real
		return rep, err
	}
	s.log.Printf("[mailparse] sync user=%s fetched=%d skipped=%d stored=%d dup=%d failed=%d",
		userID, rep.Fetched, rep.Skipped, sum.Succeeded, sum.Duplicates, sum.Failed)
	return rep, nil
}

func (s *Syncer) classifyOne(raw RawEmail) (domain.ParsedJobEmail, bool) {
	msg, err := Parse(raw.Raw)
	if err != nil {
		s.log.Printf("[mailparse] unreadable message uid=%v: %v", raw.UID, err)
		return domain.ParsedJobEmail{}, false
	}
	em, err := Classify(msg)
	if err != nil {
		if !errors.Is(err, ErrNotJobRelated) && !errors.Is(err, ErrNotParsable) {
			s.log.Printf("[mailparse] classify uid=%v: %v", raw.UID, err)
		}
		return domain.ParsedJobEmail{}, false
	}
	if em.SentAt.IsZero() {
		em.SentAt = raw.Date
	}
	return em, true
}
