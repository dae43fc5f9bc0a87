package server

import (
	"encoding/json"
	"net/http"

	"wavepipe/internal/services"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(payload)
}

// writeError renders a classified error as {error, details}.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, services.HTTPStatus(err), errorResponse{
		Error:   services.Category(err),
		Details: services.Details(err),
	})
}
