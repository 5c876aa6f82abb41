/*
Package leave is the leave accounting engine.

PURPOSE:
  Tracks leave entitlements and leave applications for many tenant
  organisations ("clients") sharing one store. It answers "how many days of
  each leave type does this employee have left this year" and records new
  applications, always inside the calling tenant's data.

KEY CONCEPTS IN THIS FILE (types.go):
  - Client: a tenant, authenticated by an opaque credential
  - Employee: belongs to exactly one client, authenticated by an access secret
  - LeaveType: per-client entitlement (annual allocation + carry-over)
  - Application: a request for a closed range of days, with a Status

BALANCE RULE:
  remaining = max(0, allocation + carry_over - taken)
  where taken counts APPROVED applications wholly inside the calendar year.

USAGE:
  engine := leave.NewEngine(store)
  tenant, err := engine.ResolveTenant(ctx, apiKey)
  balances, err := engine.Summary(ctx, tenant, "E001", "1234", 2025)

SEE ALSO:
  - engine.go: Engine construction
  - balance.go: balance computation
  - apply.go: submission
  - store.go: persistence contracts
*/
package leave

import (
	"strings"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus accepts the three stored statuses, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Message: "must be pending, approved or rejected"}
}

// =============================================================================
// RECORDS
// =============================================================================

type Client struct {
	ID         string
	Name       string
	Credential string
	CreatedAt  time.Time
}

type Employee struct {
	ID           string
	ClientID     string
	Code         string
	FullName     string
	AccessSecret string
	StartDate    *Date
}

type LeaveType struct {
	ID               string
	ClientID         string
	Code             string
	Name             string
	AnnualAllocation int
	CarryOver        int
}

// Entitlement is the most that can be taken in one year.
func (lt LeaveType) Entitlement() int {
	return lt.AnnualAllocation + lt.CarryOver
}

type Application struct {
	ID          ApplicationID
	EmployeeID  string
	LeaveTypeID string
	Start       Date
	End         Date
	Days        int
	Status      Status
	Reason      string
	CreatedAt   time.Time
}

// Period returns the closed range covered by the application.
func (a Application) Period() Period {
	return Period{Start: a.Start, End: a.End}
}

// ApplicationSummary is one row of an employee's history.
type ApplicationSummary struct {
	ID            ApplicationID
	LeaveTypeCode string
	Start         Date
	End           Date
	Days          int
	Status        Status
	Reason        string
	CreatedAt     time.Time
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// NewClient builds a client with a fresh id.
func NewClient(name, credential string, now time.Time) (Client, error) {
	if err := required("name", name); err != nil {
		return Client{}, err
	}
	if err := required("credential", credential); err != nil {
		return Client{}, err
	}
	return Client{
		ID:         newEntityID(),
		Name:       strings.TrimSpace(name),
		Credential: credential,
		CreatedAt:  now.UTC(),
	}, nil
}

// NewEmployee builds an employee of clientID. startDate may be nil.
func NewEmployee(clientID, code, fullName, secret string, startDate *Date) (Employee, error) {
	for _, f := range []struct{ name, value string }{
		{"client_id", clientID},
		{"employee_code", code},
		{"full_name", fullName},
		{"access_secret", secret},
	} {
		if err := required(f.name, f.value); err != nil {
			return Employee{}, err
		}
	}
	return Employee{
		ID:           newEntityID(),
		ClientID:     clientID,
		Code:         strings.TrimSpace(code),
		FullName:     strings.TrimSpace(fullName),
		AccessSecret: secret,
		StartDate:    startDate,
	}, nil
}

// NewLeaveType builds a leave type of clientID. Allocation and carry-over
// are whole days and may not be negative.
func NewLeaveType(clientID, code, name string, allocation, carryOver int) (LeaveType, error) {
	if err := required("client_id", clientID); err != nil {
		return LeaveType{}, err
	}
	if err := required("code", code); err != nil {
		return LeaveType{}, err
	}
	if err := required("name", name); err != nil {
		return LeaveType{}, err
	}
	if allocation < 0 {
		return LeaveType{}, &ValidationError{Field: "annual_allocation", Message: "cannot be negative"}
	}
	if carryOver < 0 {
		return LeaveType{}, &ValidationError{Field: "carry_over", Message: "cannot be negative"}
	}
	return LeaveType{
		ID:               newEntityID(),
		ClientID:         clientID,
		Code:             strings.TrimSpace(code),
		Name:             strings.TrimSpace(name),
		AnnualAllocation: allocation,
		CarryOver:        carryOver,
	}, nil
}

// NewApplication builds an application of emp for lt over [start, end].
// The leave type must belong to the employee's client.
func NewApplication(emp Employee, lt LeaveType, start, end Date, status Status, reason string, now time.Time) (Application, error) {
	if lt.ClientID != emp.ClientID {
		return Application{}, &ValidationError{Field: "leave_type", Message: "belongs to another client"}
	}
	days, err := DaysBetween(start, end)
	if err != nil {
		return Application{}, err
	}
	if days <= 0 {
		return Application{}, &InvalidDurationError{Days: days}
	}
	if status == "" {
		status = StatusPending
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return Application{}, err
	}
	return Application{
		ID:          NewApplicationID(now),
		EmployeeID:  emp.ID,
		LeaveTypeID: lt.ID,
		Start:       start,
		End:         end,
		Days:        days,
		Status:      status,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   now.UTC(),
	}, nil
}
