package http

import (
	"net/http"
	"strconv"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/pkg/httpx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// envelope is the uniform success body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorBody is the uniform failure body.
type errorBody struct {
	Success    bool              `json:"success"`
	ErrorKind  string            `json:"errorKind"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidTransition, domain.KindFinalized, domain.KindInviteInvalid:
		return http.StatusUnprocessableEntity
	case domain.KindAccountLocked:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func writeData(w http.ResponseWriter, code int, data any) {
	httpx.WriteJSON(w, code, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	httpx.WriteJSON(w, code, envelope{Success: true, Message: msg})
}

// writeError renders any error through the kind contract. Untagged errors are
// logged with their cause and surface as a generic internal failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := domain.AsError(err)
	if e.Kind == domain.KindInternal {
		slogx.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}

	if e.Kind == domain.KindAccountLocked && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}

	httpx.WriteJSON(w, statusFor(e.Kind), errorBody{
		Success:    false,
		ErrorKind:  string(e.Kind),
		Message:    e.Message,
		Errors:     e.Fields,
		RetryAfter: e.RetryAfter,
	})
}
