/*
handlers_test.go - HTTP tests for the leave API

Tests for:
- Tenant resolution (X-API-Key) and employee authentication (access_code)
- Summary and single-type balance responses
- Leave applications (validation, date errors, success)
- Rate limiting
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/seed"
	"github.com/warp/leave-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T, rl RateLimitConfig) http.Handler {
	t.Helper()
	store := memory.New()
	_, err := seed.Demo(context.Background(), store, fixedNow)
	require.NoError(t, err)

	engine := leave.NewEngine(store,
		leave.WithClock(func() time.Time { return fixedNow }),
		leave.WithLogger(zap.NewNop()),
	)
	return NewRouter(NewHandler(engine, zap.NewNop()), RouterConfig{
		AllowedOrigins: []string{"*"},
		RateLimit:      rl,
		Logger:         zap.NewNop(),
	})
}

func do(t *testing.T, h http.Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func applyBody(start, end string) map[string]any {
	return map[string]any{
		"employee_id": "E001",
		"access_code": "1234",
		"leave_type":  "annual",
		"start_date":  start,
		"end_date":    end,
		"reason":      "Holiday",
	}
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestGetSummary_Success(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	// WHEN: E002 asks for 2025, which holds one approved 3-day annual leave
	rec := do(t, h, http.MethodGet, "/leave/E002?access_code=4321&year=2025", seed.DemoCredential, nil)

	// THEN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SummaryResponse](t, rec)
	assert.Equal(t, "E002", resp.Employee.EmployeeID)
	assert.Equal(t, "Nomsa Dlamini", resp.Employee.FullName)
	assert.Equal(t, 2025, resp.Year)

	require.Len(t, resp.Balances, 3)
	assert.Equal(t, BalanceDTO{LeaveType: "annual", Name: "Annual Leave", Allocation: 15, CarryOver: 5, Taken: 3, Remaining: 17}, resp.Balances[0])
	assert.Equal(t, "sick", resp.Balances[1].LeaveType)
	assert.Equal(t, 10, resp.Balances[1].Remaining)
	assert.Equal(t, "unpaid", resp.Balances[2].LeaveType)
	assert.Equal(t, 0, resp.Balances[2].Remaining)

	require.Len(t, resp.RecentApplications, 1)
	app := resp.RecentApplications[0]
	assert.Equal(t, "2025-02-10", app.StartDate)
	assert.Equal(t, "2025-02-12", app.EndDate)
	assert.Equal(t, 3, app.Days)
	assert.Equal(t, "approved", app.Status)
	assert.Equal(t, "Family event", app.Reason)
}

func TestGetSummary_DefaultsToCurrentYear(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/leave/E001?access_code=1234", seed.DemoCredential, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SummaryResponse](t, rec)
	assert.Equal(t, 2025, resp.Year)
	assert.Empty(t, resp.RecentApplications)
	assert.NotNil(t, resp.RecentApplications, "empty history is [] not null")
}

func TestGetSummary_Errors(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	tests := []struct {
		name   string
		path   string
		apiKey string
		status int
	}{
		{"no credential", "/leave/E001?access_code=1234", "", http.StatusUnauthorized},
		{"unknown credential", "/leave/E001?access_code=1234", "WRONG-KEY", http.StatusForbidden},
		{"unknown employee", "/leave/E999?access_code=1234", seed.DemoCredential, http.StatusNotFound},
		{"missing access code", "/leave/E001", seed.DemoCredential, http.StatusUnauthorized},
		{"wrong access code", "/leave/E001?access_code=0000", seed.DemoCredential, http.StatusForbidden},
		{"another employee's code", "/leave/E001?access_code=4321", seed.DemoCredential, http.StatusForbidden},
		{"non-numeric year", "/leave/E001?access_code=1234&year=abc", seed.DemoCredential, http.StatusBadRequest},
		{"short year", "/leave/E001?access_code=1234&year=25", seed.DemoCredential, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, tt.apiKey, nil)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

// =============================================================================
// SINGLE TYPE
// =============================================================================

func TestGetTypeBalance(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/leave/E002/annual?access_code=4321&year=2025", seed.DemoCredential, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[TypeBalanceResponse](t, rec)
	assert.Equal(t, "E002", resp.Employee.EmployeeID)
	assert.Equal(t, LeaveTypeDTO{Code: "annual", Name: "Annual Leave", Allocation: 15, CarryOver: 5}, resp.LeaveType)
	assert.Equal(t, 3, resp.Taken)
	assert.Equal(t, 17, resp.Remaining)

	// A different year sees nothing taken
	rec = do(t, h, http.MethodGet, "/leave/E002/annual?access_code=4321&year=2024", seed.DemoCredential, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, decode[TypeBalanceResponse](t, rec).Remaining)
}

func TestGetTypeBalance_UnknownType(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/leave/E001/maternity?access_code=1234", seed.DemoCredential, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// APPLY
// =============================================================================

func TestApplyLeave_Success(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	// WHEN
	rec := do(t, h, http.MethodPost, "/leave/apply", seed.DemoCredential, applyBody("2025-07-01", "2025-07-03"))

	// THEN: accepted as pending
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[ApplyLeaveResponse](t, rec)
	assert.Equal(t, ApplySubmittedMessage, resp.Message)
	assert.Equal(t, 3, resp.Days)
	assert.Equal(t, "pending", resp.Status)
	assert.NotEmpty(t, resp.ApplicationID)

	// AND: it shows in history but not in the balance
	rec = do(t, h, http.MethodGet, "/leave/E001?access_code=1234&year=2025", seed.DemoCredential, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[SummaryResponse](t, rec)
	require.Len(t, summary.RecentApplications, 1)
	assert.Equal(t, resp.ApplicationID, summary.RecentApplications[0].ID)
	assert.Equal(t, "Holiday", summary.RecentApplications[0].Reason)
	assert.Equal(t, 0, summary.Balances[0].Taken)
}

func TestApplyLeave_SingleDayWithoutReason(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})
	body := applyBody("2025-07-01", "2025-07-01")
	delete(body, "reason")

	rec := do(t, h, http.MethodPost, "/leave/apply", seed.DemoCredential, body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[ApplyLeaveResponse](t, rec).Days)
}

func TestApplyLeave_Errors(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		body   any
		status int
	}{
		{"no credential", "", applyBody("2025-07-01", "2025-07-03"), http.StatusUnauthorized},
		{"malformed json", seed.DemoCredential, "{not json", http.StatusBadRequest},
		{"empty body", seed.DemoCredential, map[string]any{}, http.StatusBadRequest},
		{"bad date format", seed.DemoCredential, applyBody("01/07/2025", "2025-07-03"), http.StatusBadRequest},
		{"impossible date", seed.DemoCredential, applyBody("2025-02-30", "2025-03-01"), http.StatusBadRequest},
		{"end before start", seed.DemoCredential, applyBody("2025-07-05", "2025-07-01"), http.StatusBadRequest},
		{"missing access code", seed.DemoCredential, func() any {
			b := applyBody("2025-07-01", "2025-07-03")
			delete(b, "access_code")
			return b
		}(), http.StatusUnauthorized},
		{"wrong access code", seed.DemoCredential, func() any {
			b := applyBody("2025-07-01", "2025-07-03")
			b["access_code"] = "9999"
			return b
		}(), http.StatusForbidden},
		{"unknown leave type", seed.DemoCredential, func() any {
			b := applyBody("2025-07-01", "2025-07-03")
			b["leave_type"] = "sabbatical"
			return b
		}(), http.StatusNotFound},
		{"unknown employee", seed.DemoCredential, func() any {
			b := applyBody("2025-07-01", "2025-07-03")
			b["employee_id"] = "E404"
			return b
		}(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, RateLimitConfig{})

			rec := do(t, h, http.MethodPost, "/leave/apply", tt.apiKey, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestApplyLeave_ValidationNamesField(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})
	body := applyBody("2025-07-01", "2025-07-03")
	delete(body, "leave_type")

	rec := do(t, h, http.MethodPost, "/leave/apply", seed.DemoCredential, body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "leave_type")
}

// =============================================================================
// ROUTING AND RATE LIMITING
// =============================================================================

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{})

	rec := do(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimit(t *testing.T) {
	// GIVEN: two requests per minute per credential
	h := newTestRouter(t, RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})
	path := "/leave/E001?access_code=1234"

	// WHEN
	first := do(t, h, http.MethodGet, path, seed.DemoCredential, nil)
	second := do(t, h, http.MethodGet, path, seed.DemoCredential, nil)
	third := do(t, h, http.MethodGet, path, seed.DemoCredential, nil)

	// THEN
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	// AND: a failed resolution from the same address is counted separately
	other := do(t, h, http.MethodGet, path, "WRONG-KEY", nil)
	assert.Equal(t, http.StatusForbidden, other.Code)

	// AND: health is not limited
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
	}
}

func TestRateLimit_RotatingBogusKeys(t *testing.T) {
	// GIVEN: two failed resolutions per minute per address
	h := newTestRouter(t, RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})
	path := "/leave/E001?access_code=1234"

	// WHEN: every request carries a fresh unknown key
	first := do(t, h, http.MethodGet, path, "BOGUS-1", nil)
	second := do(t, h, http.MethodGet, path, "BOGUS-2", nil)
	third := do(t, h, http.MethodGet, path, "BOGUS-3", nil)
	noKey := do(t, h, http.MethodGet, path, "", nil)

	// THEN: the address is throttled, not each key
	assert.Equal(t, http.StatusForbidden, first.Code)
	assert.Equal(t, http.StatusForbidden, second.Code)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, noKey.Code)
}

func TestRateLimit_FailuresDoNotDrainTenantBucket(t *testing.T) {
	h := newTestRouter(t, RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2})
	path := "/leave/E001?access_code=1234"

	// One failure leaves a token for this address
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, path, "BOGUS", nil).Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, path, seed.DemoCredential, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, path, seed.DemoCredential, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, path, seed.DemoCredential, nil).Code)
}

func TestKeyExtractors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:4411"
	req.Header.Set(APIKeyHeader, "K")

	assert.Equal(t, "ip:10.0.0.7", IPKey(req))
	assert.Equal(t, "ip:10.0.0.7", TenantKey(req), "unresolved credentials are grouped by address")
}

func TestNewRateLimiter_DisabledIsNil(t *testing.T) {
	assert.Nil(t, NewRateLimiter(RateLimitConfig{}))
	assert.Nil(t, NewRateLimiter(RateLimitConfig{RequestsPerWindow: 5}))

	var rl *RateLimiter
	assert.False(t, rl.exhausted("ip:1"))
	rl.consume("ip:1")
}
