package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"jobtrail-engine/internal/domain"
	"jobtrail-engine/internal/events"
	"jobtrail-engine/internal/pipeline"
	"jobtrail-engine/internal/store"
)

type ApplicationsHandler struct {
	Gateway  *store.Gateway
	Ingestor *pipeline.Ingestor
	Hub      *events.Hub
	UserID   string
}

type createApplicationReq struct {
	Position  string `json:"position"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Salary    string `json:"salary"`
	JobURL    string `json:"jobUrl"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	AppliedAt string `json:"appliedAt"` // RFC3339, optional
}

// Create logs one application manually. Unlike batch capture, a validation
// failure here surfaces its specific reason to the caller.
func (h ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	rec := domain.JobRecord{
		Position:      req.Position,
		Company:       req.Company,
		Location:      req.Location,
		Salary:        req.Salary,
		JobURL:        req.JobURL,
		Source:        domain.ParseSource(req.Source),
		Status:        domain.Status(req.Status),
		CaptureMethod: domain.CaptureManual,
	}
	if req.AppliedAt != "" {
		t, err := time.Parse(time.RFC3339, req.AppliedAt)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "invalid_applied_at", "appliedAt must be RFC3339")
			return
		}
		rec.AppliedAt = t
	}

	if verr := domain.ValidatePosition(req.Position); verr != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_position", verr.Error())
		return
	}

	sum, outs, err := h.Ingestor.IngestJobs(r.Context(), h.UserID, []domain.JobRecord{rec})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	out := outs[0]
	switch out.Kind {
	case pipeline.OutcomeStored:
		reqID := RequestIDFrom(r.Context())
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobStored, sum))
		WriteJSON(w, http.StatusCreated, map[string]any{"outcome": out.Kind})
	case pipeline.OutcomeDuplicate:
		WriteJSON(w, http.StatusOK, map[string]any{"outcome": out.Kind})
	case pipeline.OutcomeRejected:
		WriteError(w, r, http.StatusBadRequest, "invalid_position", out.Reason)
	default:
		WriteError(w, r, http.StatusInternalServerError, "storage_error", "insert failed")
	}
}

// List returns the user's applications, optionally filtered by source or
// status.
func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.Gateway.ListJobs(r.Context(), h.UserID, store.ListOpts{
		Source: q.Get("source"),
		Status: q.Get("status"),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.StoredJob{}
	}
	writeJSON(w, jobs)
}
