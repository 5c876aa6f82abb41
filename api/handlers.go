/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via a small REST API. Handles HTTP
  request/response, JSON serialization and validation, and delegates to
  leave.Engine.

ENDPOINTS:
  GET  /health                                   {"status":"ok"}
  GET  /leave/{employee_code}?access_code&year   identity, balances, history
  GET  /leave/{employee_code}/{leave_type_code}  one leave type
  POST /leave/apply                              submit (201)

REQUEST FLOW:
  1. RequireTenant has already resolved X-API-Key into a *leave.Tenant
  2. Parse and validate input (year, dates, body)
  3. Call the engine
  4. Serialize response or map the error (see errors.go)

SEE ALSO:
  - dto.go: request/response shapes
  - errors.go: error to status mapping
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/logging"
)

// ApplySubmittedMessage is returned with every accepted application.
const ApplySubmittedMessage = "Leave application submitted (pending review)"

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	engine   *leave.Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new handler backed by engine.
func NewHandler(engine *leave.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.L()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		engine:   engine,
		validate: v,
		logger:   logger.Named("api.handler"),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// BALANCES
// =============================================================================

// GetSummary returns the employee, all balances for the year and the most
// recent applications.
// GET /leave/{employee_code}?access_code=...&year=...
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing client credential", nil)
		return
	}

	year, err := h.yearParam(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	summary, err := h.engine.Summary(r.Context(), tenant,
		chi.URLParam(r, "employee_code"), r.URL.Query().Get("access_code"), year)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		Employee:           toEmployeeDTO(summary.Employee),
		Year:               summary.Year,
		Balances:           toBalanceDTOs(summary.Balances),
		RecentApplications: toApplicationDTOs(summary.Applications),
	})
}

// GetTypeBalance returns the balance of a single leave type.
// GET /leave/{employee_code}/{leave_type_code}?access_code=...&year=...
func (h *Handler) GetTypeBalance(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing client credential", nil)
		return
	}

	year, err := h.yearParam(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	tb, err := h.engine.BalanceForType(r.Context(), tenant,
		chi.URLParam(r, "employee_code"), r.URL.Query().Get("access_code"),
		chi.URLParam(r, "leave_type_code"), year)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TypeBalanceResponse{
		Employee:  toEmployeeDTO(tb.Employee),
		LeaveType: toLeaveTypeDTO(tb.LeaveType),
		Year:      tb.Year,
		Taken:     tb.Taken,
		Remaining: tb.Remaining,
	})
}

// yearParam reads ?year=, defaulting to the engine's current year.
func (h *Handler) yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.engine.Today().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1000 || year > 9999 {
		return 0, &leave.ValidationError{Field: "year", Message: "must be a four-digit year"}
	}
	return year, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

// ApplyLeave submits a leave application. No balance check is made.
// POST /leave/apply
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing client credential", nil)
		return
	}

	var req ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeEngineError(w, r, validationError(err))
		return
	}

	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	var reason string
	if req.Reason != nil {
		reason = *req.Reason
	}

	app, err := h.engine.ApplyLeave(r.Context(), tenant, leave.ApplyRequest{
		EmployeeCode:  req.EmployeeID,
		AccessSecret:  req.AccessCode,
		LeaveTypeCode: req.LeaveType,
		Start:         start,
		End:           end,
		Reason:        reason,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Debug("application accepted",
		zap.String("application_id", string(app.ID)))

	writeJSON(w, http.StatusCreated, ApplyLeaveResponse{
		Message:       ApplySubmittedMessage,
		Days:          app.Days,
		ApplicationID: string(app.ID),
		Status:        string(app.Status),
	})
}

// validationError turns the first validator failure into a
// *leave.ValidationError named after the JSON field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &leave.ValidationError{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &leave.ValidationError{Field: fe.Field(), Message: "is required"}
	case "datetime":
		return &leave.ValidationError{Field: fe.Field(), Message: "must be a YYYY-MM-DD date"}
	}
	return &leave.ValidationError{Field: fe.Field(), Message: "failed " + fe.Tag() + " validation"}
}
