package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta: map[string]string{
			"request_id": composables.UseRequestID(r.Context()).String(),
		},
	})
}

// StatusForKind maps the ledger error taxonomy onto HTTP status codes.
func StatusForKind(kind serrors.Kind) int {
	switch kind {
	case serrors.KindValidation:
		return http.StatusBadRequest
	case serrors.KindConflict:
		return http.StatusConflict
	case serrors.KindPolicy:
		return http.StatusUnprocessableEntity
	case serrors.KindNotFound:
		return http.StatusNotFound
	case serrors.KindConcurrency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError renders a ledger error. Errors outside the taxonomy are
// masked as internal so causes never leak to clients.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) error {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return WriteError(w, r, StatusForKind(base.Kind), base.Code, base.Message)
	}
	return WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
}
