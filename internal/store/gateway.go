package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/domain"
)

// timeFormat matches sqlite's datetime() output so BETWEEN and cutoff
// comparisons work lexicographically. Always UTC.
const timeFormat = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.ParseInLocation(timeFormat, s, time.UTC)
	return t
}

// Gateway implements the pipeline's persistence surface on the SQLite pool.
type Gateway struct {
	db *sql.DB
}

func NewGateway(db *DB) *Gateway {
	return &Gateway{db: db.Pool}
}

// FindJobByURL looks up an application by its normalized URL key. A miss is
// (nil, nil), not an error.
func (g *Gateway) FindJobByURL(ctx context.Context, userID, urlKey string) (*domain.JobRecord, error) {
	row := g.db.QueryRowContext(ctx, `
SELECT position, company, location, salary, job_url, source, status, capture_method, applied_at
FROM applications
WHERE user_id = ? AND url_key = ?
LIMIT 1;`, userID, urlKey)

	var rec domain.JobRecord
	var appliedAt string
	err := row.Scan(&rec.Position, &rec.Company, &rec.Location, &rec.Salary,
		&rec.JobURL, &rec.Source, &rec.Status, &rec.CaptureMethod, &appliedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	rec.AppliedAt = parseTime(appliedAt)
	return &rec, nil
}

// FindEmailNear looks for a cold-email record to the same recipient with a
// sent_at inside ±window.
func (g *Gateway) FindEmailNear(ctx context.Context, userID, recipientEmail string, sentAt time.Time, window time.Duration) (*domain.ParsedJobEmail, error) {
	row := g.db.QueryRowContext(ctx, `
SELECT recipient_email, recipient_name, sender_email, company, position, location, job_url, subject, message, sent_at
FROM cold_emails
WHERE user_id = ? AND recipient_email = ? AND sent_at BETWEEN ? AND ?
LIMIT 1;`, userID, recipientEmail, formatTime(sentAt.Add(-window)), formatTime(sentAt.Add(window)))

	var em domain.ParsedJobEmail
	var sent string
	err := row.Scan(&em.RecipientEmail, &em.RecipientName, &em.SenderEmail, &em.Company,
		&em.Position, &em.Location, &em.JobURL, &em.Subject, &em.Message, &sent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find email: %w", err)
	}
	em.SentAt = parseTime(sent)
	return &em, nil
}

// InsertJob stores a record. Relies on the unique (user_id, url_key) index:
// INSERT OR IGNORE plus changes() reports whether the row was new.
func (g *Gateway) InsertJob(ctx context.Context, userID string, rec domain.JobRecord) (bool, error) {
	_, err := g.db.ExecContext(ctx, `
INSERT OR IGNORE INTO applications
  (user_id, position, company, location, salary, job_url, url_key, source, status, capture_method, applied_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		userID, rec.Position, rec.Company, rec.Location, rec.Salary,
		rec.JobURL, dedupe.NormalizeURL(rec.JobURL), string(rec.Source), string(rec.Status),
		string(rec.CaptureMethod), formatTime(rec.AppliedAt), formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	return g.changed(ctx)
}

// InsertEmail stores a cold-email record. Window dedup happens above in the
// pipeline; the insert itself is unconditional.
func (g *Gateway) InsertEmail(ctx context.Context, userID string, em domain.ParsedJobEmail) (bool, error) {
	_, err := g.db.ExecContext(ctx, `
INSERT INTO cold_emails
  (user_id, recipient_email, recipient_name, sender_email, company, position, location, job_url, subject, message, sent_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		userID, em.RecipientEmail, em.RecipientName, em.SenderEmail, em.Company,
		em.Position, em.Location, em.JobURL, em.Subject, em.Message,
		formatTime(em.SentAt), formatTime(time.Now()))
	if err != nil {
		return false, fmt.Errorf("insert email: %w", err)
	}
	return true, nil
}

func (g *Gateway) changed(ctx context.Context) (bool, error) {
	var changes int
	if err := g.db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return true, nil
	}
	return changes > 0, nil
}

// ListOpts filters ListJobs. Zero values mean "no filter".
type ListOpts struct {
	Source string
	Status string
	Limit  int
}

// StoredJob is a JobRecord with its row identity, for API listings.
type StoredJob struct {
	ID int64 `json:"id"`
	domain.JobRecord
}

// ListJobs returns a user's applications, newest first.
func (g *Gateway) ListJobs(ctx context.Context, userID string, opts ListOpts) ([]StoredJob, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	query := `
SELECT id, position, company, location, salary, job_url, source, status, capture_method, applied_at
FROM applications
WHERE user_id = ?`
	args := []any{userID}
	if opts.Source != "" {
		query += ` AND source = ?`
		args = append(args, opts.Source)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += `
ORDER BY applied_at DESC
LIMIT ?;`
	args = append(args, opts.Limit)

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []StoredJob
	for rows.Next() {
		var j StoredJob
		var appliedAt string
		if err := rows.Scan(&j.ID, &j.Position, &j.Company, &j.Location, &j.Salary,
			&j.JobURL, &j.Source, &j.Status, &j.CaptureMethod, &appliedAt); err != nil {
			return nil, err
		}
		j.AppliedAt = parseTime(appliedAt)
		out = append(out, j)
	}
	return out, rows.Err()
}

// CountEmails reports how many cold-email records a user has.
func (g *Gateway) CountEmails(ctx context.Context, userID string) (int, error) {
	var n int
	err := g.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cold_emails WHERE user_id = ?;`, userID).Scan(&n)
	return n, err
}
