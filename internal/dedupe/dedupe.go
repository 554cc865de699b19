package dedupe

import (
	"context"
	"strings"
	"time"

	"jobtrail-engine/internal/domain"
)

// DefaultEmailWindow is the tolerance around sentAt when matching a cold
// email against an earlier record. It absorbs clock skew between the IMAP
// server's date and any manually logged timestamp.
const DefaultEmailWindow = 60 * time.Second

// Finder is the lookup half of the persistence gateway.
type Finder interface {
	FindJobByURL(ctx context.Context, userID, urlKey string) (*domain.JobRecord, error)
	FindEmailNear(ctx context.Context, userID, recipientEmail string, sentAt time.Time, window time.Duration) (*domain.ParsedJobEmail, error)
}

// Deduplicator answers "have we stored this before" for both record kinds.
// Ingestion is insert-only, so a hit always means skip.
type Deduplicator struct {
	Finder      Finder
	EmailWindow time.Duration
}

func New(f Finder, emailWindow time.Duration) *Deduplicator {
	if emailWindow <= 0 {
		emailWindow = DefaultEmailWindow
	}
	return &Deduplicator{Finder: f, EmailWindow: emailWindow}
}

// IsDuplicateJob checks the (userID, normalized URL) key. Records without a
// URL have no stable key and are never considered duplicates here.
func (d *Deduplicator) IsDuplicateJob(ctx context.Context, userID string, rec domain.JobRecord) (bool, error) {
	key := NormalizeURL(rec.JobURL)
	if key == "" {
		return false, nil
	}
	existing, err := d.Finder.FindJobByURL(ctx, userID, key)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// IsDuplicateEmail checks the (userID, recipientEmail, sentAt±window) key.
func (d *Deduplicator) IsDuplicateEmail(ctx context.Context, userID string, em domain.ParsedJobEmail) (bool, error) {
	recipient := strings.ToLower(strings.TrimSpace(em.RecipientEmail))
	if recipient == "" {
		return false, nil
	}
	existing, err := d.Finder.FindEmailNear(ctx, userID, recipient, em.SentAt, d.EmailWindow)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
