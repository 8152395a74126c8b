package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
)

var errMissingToken = errors.New("missing consent token")

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Invalid credentials
// are 401, insufficient permission is 403; the reason string tells the
// caller which, without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, errMissingToken),
		errors.Is(err, consent.ErrMalformedToken),
		errors.Is(err, consent.ErrInvalidSignature),
		errors.Is(err, consent.ErrTokenExpired):
		status = http.StatusUnauthorized
		message = consent.Reason(err)
	case errors.Is(err, consent.ErrScopeMismatch),
		errors.Is(err, model.ErrPermissionDenied):
		status = http.StatusForbidden
		message = consent.Reason(err)
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
		message = "record not found"
	case errors.Is(err, consent.ErrUnknownScope),
		errors.Is(err, consent.ErrInvalidArgument):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
