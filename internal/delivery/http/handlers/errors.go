package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeUsecaseError maps the error kinds of the core to HTTP statuses.
// Unkinded errors are infrastructure failures and stay opaque.
func writeUsecaseError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, "validation", err.Error())
	case domain.KindAuthorization:
		writeError(w, http.StatusForbidden, "authorization", err.Error())
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case domain.KindConflict:
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case domain.KindInvalidState:
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case domain.KindTransfer, domain.KindInvariant, domain.KindProvider:
		writeError(w, http.StatusUnprocessableEntity, string(kind), err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// callerAddress extracts the authenticated caller identity. Authentication
// itself happens at the edge proxy; this service trusts the header.
func callerAddress(r *http.Request) string {
	return r.Header.Get("X-Caller-Address")
}
