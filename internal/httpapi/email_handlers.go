package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync/atomic"

	"jobtrail-engine/internal/config"
	"jobtrail-engine/internal/mailparse"
	"jobtrail-engine/internal/poll"
)

type EmailHandler struct {
	Poller *poll.Poller
	CfgVal *atomic.Value
}

func (h EmailHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Poller.Status())
}

// Sync triggers one mailbox scan in the background. Progress and the final
// report land in GET /email/status and on the event stream.
func (h EmailHandler) Sync(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if !cfg.Email.Enabled {
		WriteError(w, r, http.StatusConflict, "email_disabled", "email sync is disabled in config")
		return
	}
	if h.Poller.Status().Running {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	go func() {
		if _, err := h.Poller.RunOnce(context.Background()); err != nil {
			var cerr *mailparse.ConnectError
			if errors.As(err, &cerr) && cerr.AppPasswordHint {
				log.Printf("[httpapi] email sync: %v (Gmail requires an app password)", err)
				return
			}
			log.Printf("[httpapi] email sync: %v", err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
