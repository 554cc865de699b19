package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/domain"
)

// fakeGateway keeps everything in maps and supports per-call failure
// injection so batch isolation can be exercised.
type fakeGateway struct {
	jobs      map[string]domain.JobRecord
	emails    []domain.ParsedJobEmail
	failOnURL string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{jobs: map[string]domain.JobRecord{}}
}

func (g *fakeGateway) FindJobByURL(_ context.Context, _, urlKey string) (*domain.JobRecord, error) {
	if urlKey == g.failOnURL {
		return nil, errors.New("disk on fire")
	}
	if rec, ok := g.jobs[urlKey]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (g *fakeGateway) FindEmailNear(_ context.Context, _, recipient string, sentAt time.Time, window time.Duration) (*domain.ParsedJobEmail, error) {
	for i := range g.emails {
		e := &g.emails[i]
		diff := sentAt.Sub(e.SentAt)
		if diff < 0 {
			diff = -diff
		}
		if e.RecipientEmail == recipient && diff <= window {
			return e, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) InsertJob(_ context.Context, _ string, rec domain.JobRecord) (bool, error) {
	key := dedupe.NormalizeURL(rec.JobURL)
	if key != "" {
		if _, ok := g.jobs[key]; ok {
			return false, nil
		}
		g.jobs[key] = rec
		return true, nil
	}
	g.jobs["#"+rec.Position] = rec
	return true, nil
}

func (g *fakeGateway) InsertEmail(_ context.Context, _ string, em domain.ParsedJobEmail) (bool, error) {
	g.emails = append(g.emails, em)
	return true, nil
}

func newTestIngestor(gw Gateway) *Ingestor {
	d := dedupe.New(gw, 60*time.Second)
	return NewIngestor(gw, d, log.New(io.Discard, "", 0))
}

func TestIngestJobsStoresAndDefaults(t *testing.T) {
	gw := newFakeGateway()
	in := newTestIngestor(gw)

	sum, outs, err := in.IngestJobs(context.Background(), "u1", []domain.JobRecord{
		{Position: "Backend Engineer", JobURL: "https://example.com/jobs/1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 1 || sum.Duplicates != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if outs[0].Kind != OutcomeStored {
		t.Fatalf("outcome = %+v", outs[0])
	}
	stored := gw.jobs["https://example.com/jobs/1"]
	if stored.Company != domain.UnknownCompany {
		t.Errorf("company default = %q", stored.Company)
	}
	if stored.Status != domain.StatusApplied {
		t.Errorf("status default = %q", stored.Status)
	}
	if stored.AppliedAt.IsZero() {
		t.Error("appliedAt not defaulted")
	}
}

func TestIngestJobsIdempotent(t *testing.T) {
	gw := newFakeGateway()
	in := newTestIngestor(gw)

	batch := []domain.JobRecord{
		{Position: "Backend Engineer", JobURL: "https://example.com/jobs/1"},
	}
	if _, _, err := in.IngestJobs(context.Background(), "u1", batch); err != nil {
		t.Fatal(err)
	}
	sum, outs, err := in.IngestJobs(context.Background(), "u1", batch)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Duplicates != 1 || sum.Succeeded != 0 {
		t.Fatalf("second run summary = %+v", sum)
	}
	if outs[0].Kind != OutcomeDuplicate {
		t.Fatalf("outcome = %+v", outs[0])
	}
	if len(gw.jobs) != 1 {
		t.Fatalf("stored %d records, want 1", len(gw.jobs))
	}
}

func TestIngestJobsIsolatesItems(t *testing.T) {
	gw := newFakeGateway()
	gw.failOnURL = "https://example.com/jobs/2"
	in := newTestIngestor(gw)

	sum, outs, err := in.IngestJobs(context.Background(), "u1", []domain.JobRecord{
		{Position: "Backend Engineer", JobURL: "https://example.com/jobs/1"},
		{Position: "Data Analyst", JobURL: "https://example.com/jobs/2"},
		{Position: "abc"}, // too short, rejected
		{Position: "Platform Engineer", JobURL: "https://example.com/jobs/3"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 2 || sum.Failed != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if outs[1].Kind != OutcomeFailed {
		t.Fatalf("storage failure outcome = %+v", outs[1])
	}
	var serr *StorageError
	if !errors.As(outs[1].Err, &serr) {
		t.Fatalf("err type = %T", outs[1].Err)
	}
	if outs[2].Kind != OutcomeRejected || outs[2].Reason != "too_short" {
		t.Fatalf("reject outcome = %+v", outs[2])
	}
	if outs[3].Kind != OutcomeStored {
		t.Fatalf("later item not processed: %+v", outs[3])
	}
}

func TestIngestJobsCancelReturnsPartial(t *testing.T) {
	gw := newFakeGateway()
	in := newTestIngestor(gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, outs, err := in.IngestJobs(ctx, "u1", []domain.JobRecord{
		{Position: "Backend Engineer", JobURL: "https://example.com/jobs/1"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if sum.Total() != 0 || len(outs) != 0 {
		t.Fatalf("partial summary should be empty: %+v", sum)
	}
}

func TestIngestEmailsWindowDedup(t *testing.T) {
	gw := newFakeGateway()
	in := newTestIngestor(gw)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := domain.ParsedJobEmail{
		RecipientEmail: "jane@acmecorp.com",
		Subject:        "Backend role",
		SentAt:         base,
	}
	if _, _, err := in.IngestEmails(context.Background(), "u1", []domain.ParsedJobEmail{first}); err != nil {
		t.Fatal(err)
	}

	again := first
	again.SentAt = base.Add(30 * time.Second)
	later := first
	later.SentAt = base.Add(10 * time.Minute)

	sum, outs, err := in.IngestEmails(context.Background(), "u1", []domain.ParsedJobEmail{again, later})
	if err != nil {
		t.Fatal(err)
	}
	if outs[0].Kind != OutcomeDuplicate {
		t.Fatalf("30s re-send should dedup: %+v", outs[0])
	}
	if outs[1].Kind != OutcomeStored {
		t.Fatalf("10m later should store: %+v", outs[1])
	}
	if sum.Succeeded != 1 || sum.Duplicates != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestIngestEmailsRejectsMissingRecipient(t *testing.T) {
	in := newTestIngestor(newFakeGateway())
	sum, outs, err := in.IngestEmails(context.Background(), "u1", []domain.ParsedJobEmail{
		{Subject: "no recipient"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 || outs[0].Kind != OutcomeRejected || outs[0].Reason != "missing" {
		t.Fatalf("summary = %+v outcome = %+v", sum, outs[0])
	}
}

func TestIngestEmailsTruncatesMessage(t *testing.T) {
	gw := newFakeGateway()
	in := newTestIngestor(gw)

	long := make([]byte, domain.MaxEmailMessageLen+100)
	for i := range long {
		long[i] = 'a'
	}
	_, _, err := in.IngestEmails(context.Background(), "u1", []domain.ParsedJobEmail{
		{RecipientEmail: "jane@acmecorp.com", Message: string(long), SentAt: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(gw.emails[0].Message); got != domain.MaxEmailMessageLen {
		t.Fatalf("stored message len = %d, want %d", got, domain.MaxEmailMessageLen)
	}
}
