package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/logging"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine errors to HTTP statuses:
//
//	not found                     404
//	missing credential or secret  401
//	invalid credential or secret  403
//	invalid input                 400
//	anything else                 500
func statusFor(err error) int {
	var authErr *leave.AuthError
	switch {
	case leave.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &authErr):
		if authErr.Missing {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case leave.IsAuthError(err):
		return http.StatusForbidden
	case leave.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeEngineError replies with the mapped status. Internal errors are
// logged and their details withheld from the client.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context(), nil).Error("request failed", zap.Error(err))
		writeError(w, status, "internal server error", nil)
		return
	}
	writeError(w, status, err.Error(), nil)
}
