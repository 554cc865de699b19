package mailparse

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/domain"
	"jobtrail-engine/internal/pipeline"
)

const followUpEmail = "From: Me <me@gmail.com>\r\n" +
	"To: Jane Doe <jane@acmecorp.com>\r\n" +
	"Subject: Following up on Backend Engineer role\r\n" +
	"Date: Tue, 10 Mar 2026 09:00:00 +0000\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hi Jane,\r\n" +
	"\r\n" +
	"Following up on my application for the Backend Engineer role.\r\n" +
	"Happy to interview any time this week.\r\n"

func TestParsePlainText(t *testing.T) {
	msg, err := Parse([]byte(followUpEmail))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != "Following up on Backend Engineer role" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0].Address != "jane@acmecorp.com" {
		t.Errorf("to = %+v", msg.To)
	}
	if msg.To[0].Name != "Jane Doe" {
		t.Errorf("to name = %q", msg.To[0].Name)
	}
	if !strings.Contains(msg.Body, "Backend Engineer role") {
		t.Errorf("body = %q", msg.Body)
	}
	want := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if !msg.Date.Equal(want) {
		t.Errorf("date = %v", msg.Date)
	}
}

func TestParseHTMLBody(t *testing.T) {
	raw := "From: me@gmail.com\r\n" +
		"To: recruiter@beta.io\r\n" +
		"Subject: Application\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><body><p>Interested in the <b>Data Analyst</b> opening.</p></body></html>\r\n"
	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg.Body, "Data Analyst") {
		t.Errorf("body = %q", msg.Body)
	}
	if strings.Contains(msg.Body, "<b>") {
		t.Errorf("body still contains markup: %q", msg.Body)
	}
}

func TestRelevant(t *testing.T) {
	cases := []struct {
		subject, body string
		want          bool
	}{
		{"Following up on Backend Engineer role", "", true},
		{"Quick question", "are you still hiring for the platform team?", true},
		{"Dinner on Friday?", "see you at eight", false},
		{"Re: your CV", "", true},
	}
	for _, tc := range cases {
		if got := Relevant(tc.subject, tc.body); got != tc.want {
			t.Errorf("Relevant(%q, %q) = %v, want %v", tc.subject, tc.body, got, tc.want)
		}
	}
}

func TestClassifyFollowUp(t *testing.T) {
	msg, err := Parse([]byte(followUpEmail))
	if err != nil {
		t.Fatal(err)
	}
	em, err := Classify(msg)
	if err != nil {
		t.Fatal(err)
	}
	if em.RecipientEmail != "jane@acmecorp.com" {
		t.Errorf("recipient = %q", em.RecipientEmail)
	}
	if em.RecipientName != "Jane Doe" {
		t.Errorf("recipientName = %q", em.RecipientName)
	}
	if em.Company != "Acmecorp" {
		t.Errorf("company = %q", em.Company)
	}
	if !strings.Contains(em.Position, "Backend Engineer") {
		t.Errorf("position = %q", em.Position)
	}
	if em.SenderEmail != "me@gmail.com" {
		t.Errorf("sender = %q", em.SenderEmail)
	}
}

func TestClassifyNotJobRelated(t *testing.T) {
	msg := &Message{
		Subject: "Dinner on Friday?",
		To:      []Address{{Address: "friend@example.com"}},
		Body:    "see you at eight",
	}
	if _, err := Classify(msg); !errors.Is(err, ErrNotJobRelated) {
		t.Fatalf("err = %v, want ErrNotJobRelated", err)
	}
}

func TestClassifyNoRecipient(t *testing.T) {
	msg := &Message{Subject: "Backend Engineer role", Body: "no addresses anywhere"}
	if _, err := Classify(msg); !errors.Is(err, ErrNotParsable) {
		t.Fatalf("err = %v, want ErrNotParsable", err)
	}
}

func TestResolveRecipientBodyFallback(t *testing.T) {
	msg := &Message{
		Subject: "Backend Engineer role",
		Body:    "Please forward to recruiter@gamma-labs.io when you can.",
	}
	em, err := Classify(msg)
	if err != nil {
		t.Fatal(err)
	}
	if em.RecipientEmail != "recruiter@gamma-labs.io" {
		t.Errorf("recipient = %q", em.RecipientEmail)
	}
}

// memGateway is a minimal in-memory pipeline.Gateway for sync tests.
type memGateway struct {
	emails []domain.ParsedJobEmail
}

func (g *memGateway) FindJobByURL(context.Context, string, string) (*domain.JobRecord, error) {
	return nil, nil
}

func (g *memGateway) FindEmailNear(_ context.Context, _ string, recipient string, sentAt time.Time, window time.Duration) (*domain.ParsedJobEmail, error) {
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

func (g *memGateway) InsertJob(context.Context, string, domain.JobRecord) (bool, error) {
	return true, nil
}

func (g *memGateway) InsertEmail(_ context.Context, _ string, em domain.ParsedJobEmail) (bool, error) {
	g.emails = append(g.emails, em)
	return true, nil
}

type fakeFetcher struct {
	raws []RawEmail
}

func (f *fakeFetcher) FetchSince(context.Context, time.Time, int) ([]RawEmail, error) {
	return f.raws, nil
}

func (f *fakeFetcher) Close() {}

func newTestSyncer(gw pipeline.Gateway, f Fetcher) *Syncer {
	logger := log.New(io.Discard, "", 0)
	ing := pipeline.NewIngestor(gw, dedupe.New(gw, time.Minute), logger)
	s := NewSyncer(ing, logger)
	s.dial = func(context.Context, string, int, string, string, string) (Fetcher, error) {
		return f, nil
	}
	return s
}

func TestSyncOnce(t *testing.T) {
	personal := "From: me@gmail.com\r\n" +
		"To: friend@example.com\r\n" +
		"Subject: Dinner on Friday?\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see you at eight\r\n"

	gw := &memGateway{}
	s := newTestSyncer(gw, &fakeFetcher{raws: []RawEmail{
		{UID: 1, Raw: []byte(followUpEmail)},
		{UID: 2, Raw: []byte(personal)},
	}})

	rep, err := s.SyncOnce(context.Background(), SyncConfig{Host: "imap.example.com", Port: 993, Username: "me"}, "pw", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Fetched != 2 {
		t.Errorf("fetched = %d", rep.Fetched)
	}
	if rep.Skipped != 1 {
		t.Errorf("skipped = %d", rep.Skipped)
	}
	if rep.Summary.Succeeded != 1 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if len(gw.emails) != 1 || gw.emails[0].Company != "Acmecorp" {
		t.Fatalf("stored = %+v", gw.emails)
	}
}

func TestSyncOnceIdempotent(t *testing.T) {
	gw := &memGateway{}
	f := &fakeFetcher{raws: []RawEmail{{UID: 1, Raw: []byte(followUpEmail)}}}
	s := newTestSyncer(gw, f)

	cfg := SyncConfig{Host: "imap.example.com", Port: 993, Username: "me"}
	if _, err := s.SyncOnce(context.Background(), cfg, "pw", "u1"); err != nil {
		t.Fatal(err)
	}
	rep, err := s.SyncOnce(context.Background(), cfg, "pw", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Summary.Duplicates != 1 || rep.Summary.Succeeded != 0 {
		t.Fatalf("second sync summary = %+v", rep.Summary)
	}
	if len(gw.emails) != 1 {
		t.Fatalf("stored %d emails, want 1", len(gw.emails))
	}
}

func TestConnectErrorGmailHint(t *testing.T) {
	err := &ConnectError{
		Stage:           "login",
		Host:            "imap.gmail.com",
		Err:             errors.New("authentication failed"),
		AppPasswordHint: true,
	}
	var cerr *ConnectError
	if !errors.As(error(err), &cerr) || !cerr.AppPasswordHint {
		t.Fatal("hint lost through errors.As")
	}
	if !strings.Contains(err.Error(), "imap.gmail.com") {
		t.Errorf("message = %q", err.Error())
	}
}
