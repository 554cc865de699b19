package store

import (
	"database/sql"
	"fmt"
)

// Migrate brings the schema up to the current version. Idempotent; guarded
// by PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  position TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  job_url TEXT NOT NULL DEFAULT '',
  url_key TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT 'Other',
  status TEXT NOT NULL DEFAULT 'APPLIED',
  capture_method TEXT NOT NULL DEFAULT 'MANUAL',
  applied_at TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS cold_emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  recipient_email TEXT NOT NULL,
  recipient_name TEXT NOT NULL DEFAULT '',
  sender_email TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  position TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  job_url TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  sent_at TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	// dedup key for captured jobs; empty url_key rows never collide
	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_url_key
ON applications(user_id, url_key)
WHERE url_key != '';
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_applications_applied_at
ON applications(user_id, applied_at);
`); err != nil {
		return err
	}

	// window lookups for the email dedup key
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_cold_emails_recipient
ON cold_emails(user_id, recipient_email, sent_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// CleanupOld drops records older than the retention window, in months.
// months <= 0 disables cleanup.
func CleanupOld(db *sql.DB, months int) (deleted int64, err error) {
	if months <= 0 {
		return 0, nil
	}
	cutoff := fmt.Sprintf("-%d months", months)

	res, err := db.Exec(`DELETE FROM applications WHERE applied_at < datetime('now', ?);`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup applications: %w", err)
	}
	n, _ := res.RowsAffected()
	deleted += n

	res, err = db.Exec(`DELETE FROM cold_emails WHERE sent_at < datetime('now', ?);`, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("cleanup cold emails: %w", err)
	}
	n, _ = res.RowsAffected()
	deleted += n
	return deleted, nil
}
