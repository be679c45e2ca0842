package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	domainservice "adresolver/internal/domains/service"
	principalservice "adresolver/internal/principals/service"
	"adresolver/pkg/platform/sentinel"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainservice.ErrDomainNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "domain_not_found", Message: err.Error()})
	case errors.Is(err, principalservice.ErrPrincipalNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "principal_not_found", Message: err.Error()})
	case errors.Is(err, domainservice.ErrDomainAccess):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "domain_access", Message: err.Error()})
	case errors.Is(err, sentinel.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: message})
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return req, false
	}
	return req, true
}
