package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobtrail-engine/internal/capture"
	"jobtrail-engine/internal/events"
	"jobtrail-engine/internal/pipeline"
)

type CaptureHandler struct {
	Ingestor *pipeline.Ingestor
	Hub      *events.Hub
	UserID   string
}

type captureReq struct {
	HTML    string `json:"html"`
	PageURL string `json:"pageUrl"`
}

type captureResp struct {
	Strategy string             `json:"strategy"`
	Summary  pipeline.Summary   `json:"summary"`
	Rejected []capture.Rejected `json:"rejected,omitempty"`
}

// Run accepts a page snapshot from the extension, extracts job cards and
// persists them. A page with no recognizable cards is a 422 with a hint,
// not an empty success.
func (h CaptureHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req captureReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_html", "html is required")
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "unparsable_html", err.Error())
		return
	}

	res, err := capture.Cards(doc, req.PageURL, time.Now())
	if errors.Is(err, capture.ErrNoCards) {
		WriteErrorHint(w, r, http.StatusUnprocessableEntity, "no_cards_found",
			"no job cards found on page",
			"navigate to a job listing page before capturing")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "capture_failed", err.Error())
		return
	}

	sum, _, err := h.Ingestor.IngestJobs(r.Context(), h.UserID, res.Records)
	if err != nil {
		// cancelled mid-batch; report what got done
		WriteJSON(w, http.StatusOK, captureResp{
			Strategy: string(res.Strategy), Summary: sum, Rejected: res.Rejected,
		})
		return
	}

	if sum.Succeeded > 0 {
		reqID := RequestIDFrom(r.Context())
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeCaptureDone, sum))
	}
	writeJSON(w, captureResp{
		Strategy: string(res.Strategy), Summary: sum, Rejected: res.Rejected,
	})
}
