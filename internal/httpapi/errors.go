package httpapi

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Hint      string `json:"hint,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteErrorHint(w, r, status, code, message, "")
}

// WriteErrorHint carries a human next step alongside the machine code, for
// failures an operator can actually fix ("navigate to the listing page",
// "generate a Gmail app password").
func WriteErrorHint(w http.ResponseWriter, r *http.Request, status int, code, message, hint string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Hint = hint
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
