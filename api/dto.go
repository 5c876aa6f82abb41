/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  JSON shapes exchanged with clients. The engine's types never leave this
  package directly; dates are rendered as YYYY-MM-DD.

SEE ALSO:
  - handlers.go: uses these DTOs
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUESTS
// =============================================================================

// ApplyLeaveRequest is the body of POST /leave/apply.
type ApplyLeaveRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	AccessCode string  `json:"access_code"` // empty is a 401, checked by the engine
	LeaveType  string  `json:"leave_type" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     *string `json:"reason,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type EmployeeDTO struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
}

type BalanceDTO struct {
	LeaveType  string `json:"leave_type"`
	Name       string `json:"name"`
	Allocation int    `json:"allocation"`
	CarryOver  int    `json:"carry_over"`
	Taken      int    `json:"taken"`
	Remaining  int    `json:"remaining"`
}

type ApplicationDTO struct {
	ID        string `json:"id"`
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type LeaveTypeDTO struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Allocation int    `json:"allocation"`
	CarryOver  int    `json:"carry_over"`
}

// SummaryResponse is the body of GET /leave/{employee_code}.
type SummaryResponse struct {
	Employee           EmployeeDTO      `json:"employee"`
	Year               int              `json:"year"`
	Balances           []BalanceDTO     `json:"balances"`
	RecentApplications []ApplicationDTO `json:"recent_applications"`
}

// TypeBalanceResponse is the body of GET /leave/{employee_code}/{leave_type_code}.
type TypeBalanceResponse struct {
	Employee  EmployeeDTO  `json:"employee"`
	LeaveType LeaveTypeDTO `json:"leave_type"`
	Year      int          `json:"year"`
	Taken     int          `json:"taken"`
	Remaining int          `json:"remaining"`
}

// ApplyLeaveResponse is the body of a successful POST /leave/apply.
type ApplyLeaveResponse struct {
	Message       string `json:"message"`
	Days          int    `json:"days"`
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{EmployeeID: e.Code, FullName: e.FullName}
}

func toBalanceDTOs(bs []leave.Balance) []BalanceDTO {
	out := make([]BalanceDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, BalanceDTO{
			LeaveType:  b.LeaveTypeCode,
			Name:       b.Name,
			Allocation: b.Allocation,
			CarryOver:  b.CarryOver,
			Taken:      b.Taken,
			Remaining:  b.Remaining,
		})
	}
	return out
}

func toApplicationDTOs(apps []leave.ApplicationSummary) []ApplicationDTO {
	out := make([]ApplicationDTO, 0, len(apps))
	for _, a := range apps {
		out = append(out, ApplicationDTO{
			ID:        string(a.ID),
			LeaveType: a.LeaveTypeCode,
			StartDate: a.Start.String(),
			EndDate:   a.End.String(),
			Days:      a.Days,
			Status:    string(a.Status),
			Reason:    a.Reason,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		Code:       lt.Code,
		Name:       lt.Name,
		Allocation: lt.AnnualAllocation,
		CarryOver:  lt.CarryOver,
	}
}
