// Package poll runs the background email sync loop.
package poll

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"jobtrail-engine/internal/config"
	"jobtrail-engine/internal/events"
	"jobtrail-engine/internal/mailparse"
	"jobtrail-engine/internal/secrets"
)

// SyncStatus is what GET /email/status reports.
type SyncStatus struct {
	Running    bool              `json:"running"`
	LastRunAt  string            `json:"last_run_at,omitempty"`
	LastOkAt   string            `json:"last_ok_at,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
	Hint       string            `json:"hint,omitempty"`
	LastReport *mailparse.Report `json:"last_report,omitempty"`
}

// PasswordFunc fetches the IMAP password; swapped out in tests.
type PasswordFunc func(username, host string) (string, error)

// Poller drives periodic mailbox syncs and tracks the last outcome.
type Poller struct {
	syncer      *mailparse.Syncer
	cfgVal      *atomic.Value // config.Config, hot-reloaded
	hub         *events.Hub
	userID      string
	getPassword PasswordFunc

	status atomic.Value // SyncStatus
}

func New(syncer *mailparse.Syncer, cfgVal *atomic.Value, hub *events.Hub, userID string) *Poller {
	p := &Poller{
		syncer: syncer,
		cfgVal: cfgVal,
		hub:    hub,
		userID: userID,
		getPassword: func(username, host string) (string, error) {
			return secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(username, host))
		},
	}
	p.status.Store(SyncStatus{})
	return p
}

func (p *Poller) Status() SyncStatus {
	return p.status.Load().(SyncStatus)
}

func (p *Poller) config() config.Config {
	if v := p.cfgVal.Load(); v != nil {
		return v.(config.Config)
	}
	return config.Config{}
}

// RunOnce performs one sync with the current config. Shared by the poll loop
// and the manual POST /email/sync trigger.
func (p *Poller) RunOnce(ctx context.Context) (*mailparse.Report, error) {
	cfg := p.config()

	st := p.Status()
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.status.Store(st)

	rep, err := p.runSync(ctx, cfg)

	st = p.Status()
	st.Running = false
	st.LastReport = rep
	st.Hint = ""
	if err != nil {
		st.LastError = err.Error()
		var cerr *mailparse.ConnectError
		if errors.As(err, &cerr) && cerr.AppPasswordHint {
			st.Hint = "Gmail rejects account passwords over IMAP; generate an app password"
		}
	} else {
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	p.status.Store(st)

	if err == nil && rep != nil && rep.Summary.Succeeded > 0 {
		p.hub.Publish(events.MakeEvent("", events.TypeEmailSynced, rep))
	}
	return rep, err
}

func (p *Poller) runSync(ctx context.Context, cfg config.Config) (*mailparse.Report, error) {
	password, err := p.getPassword(cfg.Email.Username, cfg.Email.IMAPHost)
	if err != nil {
		return nil, err
	}
	return p.syncer.SyncOnce(ctx, mailparse.SyncConfig{
		Host:        cfg.Email.IMAPHost,
		Port:        cfg.Email.IMAPPort,
		Username:    cfg.Email.Username,
		Mailbox:     cfg.Email.Mailbox,
		SinceDays:   cfg.Email.SinceDays,
		MaxMessages: cfg.Email.MaxMessages,
	}, password, p.userID)
}

// Start runs the poll loop until ctx is done. The interval is re-read from
// config every cycle so edits apply without a restart; email_seconds=0 or
// email.enabled=false just parks the loop.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		for {
			cfg := p.config()
			interval := time.Duration(cfg.Polling.EmailSeconds) * time.Second
			if interval <= 0 {
				interval = 30 * time.Second
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}

			cfg = p.config()
			if !cfg.Email.Enabled || cfg.Polling.EmailSeconds <= 0 {
				continue
			}
			if _, err := p.RunOnce(ctx); err != nil {
				log.Printf("[poll] email sync: %v", err)
			}
		}
	}()
}
