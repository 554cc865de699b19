package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims fields, fills defaults, and reports anything a
// saved config must not get away with.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Email.IMAPHost = strings.TrimSpace(out.Email.IMAPHost)
	out.Email.Username = strings.TrimSpace(out.Email.Username)
	out.Email.Mailbox = strings.TrimSpace(out.Email.Mailbox)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.App.RetentionMonths < 0 {
		res.addErr("app.retention_months must be >= 0 (0 disables cleanup)")
	}

	if out.Polling.EmailSeconds < 0 {
		res.addErr("polling.email_seconds must be >= 0 (0 disables the poller)")
	} else if out.Polling.EmailSeconds > 0 && out.Polling.EmailSeconds < 60 {
		res.addWarn("polling.email_seconds is very low (%d); IMAP providers may throttle.", out.Polling.EmailSeconds)
	}

	if out.Dedupe.EmailWindowSeconds < 0 {
		res.addErr("dedupe.email_window_seconds must be >= 0")
	}
	if out.Dedupe.EmailWindowSeconds == 0 {
		out.Dedupe.EmailWindowSeconds = 60
	}

	if out.Email.Enabled {
		if out.Email.IMAPHost == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if out.Email.Username == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if out.Email.Mailbox == "" {
			res.addWarn("email.mailbox is empty; defaulting to \"Sent\"")
		}
		if out.Email.SinceDays <= 0 {
			out.Email.SinceDays = 30
		}
	}

	return out, res
}
