package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobtrail-engine/internal/domain"
)

func openTestDB(t *testing.T) *Gateway {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db.Pool); err != nil {
		t.Fatal(err)
	}
	return NewGateway(db)
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := Migrate(db.Pool); err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db.Pool); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestInsertJobDedupKey(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	rec := domain.JobRecord{
		Position:      "Senior Backend Engineer",
		Company:       "Acme Ltd",
		JobURL:        "https://example.com/jobs/view/12345?utm_source=a",
		Source:        domain.SourceOther,
		Status:        domain.StatusApplied,
		CaptureMethod: domain.CaptureExtension,
		AppliedAt:     time.Now(),
	}
	inserted, err := g.InsertJob(ctx, "u1", rec)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("first insert should add a row")
	}

	// same URL, different tracking params: same key, ignored
	rec.JobURL = "https://example.com/jobs/view/12345?utm_source=b"
	inserted, err = g.InsertJob(ctx, "u1", rec)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Fatal("second insert should hit the unique index")
	}

	// same URL for a different user is a distinct record
	inserted, err = g.InsertJob(ctx, "u2", rec)
	if err != nil {
		t.Fatal(err)
	}
	if !inserted {
		t.Fatal("other user's insert should succeed")
	}
}

func TestInsertJobWithoutURLNeverCollides(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	rec := domain.JobRecord{
		Position:  "Manually Logged Role",
		Company:   "Acme Ltd",
		Status:    domain.StatusApplied,
		Source:    domain.SourceOther,
		AppliedAt: time.Now(),
	}
	for i := 0; i < 2; i++ {
		inserted, err := g.InsertJob(ctx, "u1", rec)
		if err != nil {
			t.Fatal(err)
		}
		if !inserted {
			t.Fatalf("insert %d without URL should not dedup", i)
		}
	}
}

func TestFindJobByURL(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	rec := domain.JobRecord{
		Position:  "Senior Backend Engineer",
		Company:   "Acme Ltd",
		JobURL:    "https://example.com/jobs/view/12345",
		Source:    domain.SourceOther,
		Status:    domain.StatusApplied,
		AppliedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	if _, err := g.InsertJob(ctx, "u1", rec); err != nil {
		t.Fatal(err)
	}

	got, err := g.FindJobByURL(ctx, "u1", "https://example.com/jobs/view/12345")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a hit")
	}
	if got.Position != rec.Position || got.Company != rec.Company {
		t.Errorf("got %+v", got)
	}
	if !got.AppliedAt.Equal(rec.AppliedAt) {
		t.Errorf("appliedAt = %v", got.AppliedAt)
	}

	miss, err := g.FindJobByURL(ctx, "u1", "https://example.com/jobs/view/99999")
	if err != nil {
		t.Fatal(err)
	}
	if miss != nil {
		t.Fatalf("miss = %+v", miss)
	}
}

func TestFindEmailNearWindow(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	em := domain.ParsedJobEmail{
		RecipientEmail: "jane@acmecorp.com",
		Subject:        "Backend Engineer role",
		SentAt:         base,
	}
	if _, err := g.InsertEmail(ctx, "u1", em); err != nil {
		t.Fatal(err)
	}

	hit, err := g.FindEmailNear(ctx, "u1", "jane@acmecorp.com", base.Add(30*time.Second), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if hit == nil {
		t.Fatal("30s offset inside ±60s window should hit")
	}

	miss, err := g.FindEmailNear(ctx, "u1", "jane@acmecorp.com", base.Add(120*time.Second), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if miss != nil {
		t.Fatal("120s offset outside ±60s window should miss")
	}

	other, err := g.FindEmailNear(ctx, "u2", "jane@acmecorp.com", base, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Fatal("other user should not see the record")
	}
}

func TestListJobsFilters(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	recs := []domain.JobRecord{
		{Position: "Senior Backend Engineer", Company: "Acme Ltd", JobURL: "https://a.example/jobs/1", Source: domain.SourceLinkedIn, Status: domain.StatusApplied, AppliedAt: now.Add(-2 * time.Hour)},
		{Position: "Product Designer", Company: "Beta Corp", JobURL: "https://a.example/jobs/2", Source: domain.SourceIndeed, Status: domain.StatusInterview, AppliedAt: now.Add(-1 * time.Hour)},
	}
	for _, r := range recs {
		if _, err := g.InsertJob(ctx, "u1", r); err != nil {
			t.Fatal(err)
		}
	}

	all, err := g.ListJobs(ctx, "u1", ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d rows", len(all))
	}
	if all[0].Position != "Product Designer" {
		t.Errorf("newest first violated: %+v", all[0])
	}

	linkedin, err := g.ListJobs(ctx, "u1", ListOpts{Source: "LinkedIn"})
	if err != nil {
		t.Fatal(err)
	}
	if len(linkedin) != 1 || linkedin[0].Company != "Acme Ltd" {
		t.Fatalf("source filter = %+v", linkedin)
	}

	interviews, err := g.ListJobs(ctx, "u1", ListOpts{Status: "INTERVIEW"})
	if err != nil {
		t.Fatal(err)
	}
	if len(interviews) != 1 || interviews[0].Position != "Product Designer" {
		t.Fatalf("status filter = %+v", interviews)
	}
}

func TestCountEmails(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	n, err := g.CountEmails(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count = %d", n)
	}
	if _, err := g.InsertEmail(ctx, "u1", domain.ParsedJobEmail{
		RecipientEmail: "jane@acmecorp.com", SentAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	n, err = g.CountEmails(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d", n)
	}
}
