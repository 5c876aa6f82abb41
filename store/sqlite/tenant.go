package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TENANT REPO (leave.TenantRepo interface)
// =============================================================================

// tenantRepo confines every statement to one client. Tables without a
// client_id column are reached through a join on employees.
type tenantRepo struct {
	q        queryer
	clientID string
}

func (r *tenantRepo) EmployeeByCode(ctx context.Context, code string) (leave.Employee, error) {
	var e leave.Employee
	var startDate sql.NullString
	err := r.q.QueryRowContext(ctx, `
		SELECT id, client_id, employee_code, full_name, access_secret, start_date
		FROM employees
		WHERE client_id = ? AND employee_code = ?`,
		r.clientID, code,
	).Scan(&e.ID, &e.ClientID, &e.Code, &e.FullName, &e.AccessSecret, &startDate)
	if err != nil {
		return leave.Employee{}, mapNotFound(err)
	}
	if startDate.Valid {
		d, err := parseDateColumn("start_date", startDate.String)
		if err != nil {
			return leave.Employee{}, err
		}
		e.StartDate = &d
	}
	return e, nil
}

const leaveTypeColumns = "id, client_id, code, name, annual_allocation, carry_over"

func scanLeaveType(row scanner) (leave.LeaveType, error) {
	var lt leave.LeaveType
	err := row.Scan(&lt.ID, &lt.ClientID, &lt.Code, &lt.Name, &lt.AnnualAllocation, &lt.CarryOver)
	return lt, err
}

func (r *tenantRepo) LeaveTypeByCode(ctx context.Context, code string) (leave.LeaveType, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+leaveTypeColumns+" FROM leave_types WHERE client_id = ? AND code = ?",
		r.clientID, code,
	)
	lt, err := scanLeaveType(row)
	if err != nil {
		return leave.LeaveType{}, mapNotFound(err)
	}
	return lt, nil
}

func (r *tenantRepo) LeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+leaveTypeColumns+" FROM leave_types WHERE client_id = ? ORDER BY code",
		r.clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

// ApprovedDays only counts applications lying wholly inside period.
func (r *tenantRepo) ApprovedDays(ctx context.Context, employeeID, leaveTypeID string, period leave.Period) (int, error) {
	var total int
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(a.days), 0)
		FROM leave_applications a
		JOIN employees e ON e.id = a.employee_id
		WHERE e.client_id = ?
		  AND a.employee_id = ?
		  AND a.leave_type_id = ?
		  AND a.status = 'approved'
		  AND a.start_date >= ?
		  AND a.end_date <= ?`,
		r.clientID, employeeID, leaveTypeID, period.Start.String(), period.End.String(),
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *tenantRepo) RecentApplications(ctx context.Context, employeeID string, limit int) ([]leave.ApplicationSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.id, lt.code, a.start_date, a.end_date, a.days, a.status,
		       COALESCE(a.reason, ''), a.created_at
		FROM leave_applications a
		JOIN employees e ON e.id = a.employee_id
		JOIN leave_types lt ON lt.id = a.leave_type_id
		WHERE e.client_id = ? AND a.employee_id = ?
		ORDER BY a.id DESC
		LIMIT ?`,
		r.clientID, employeeID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.ApplicationSummary
	for rows.Next() {
		var s leave.ApplicationSummary
		var start, end, createdAt string
		if err := rows.Scan(&s.ID, &s.LeaveTypeCode, &start, &end, &s.Days, &s.Status, &s.Reason, &createdAt); err != nil {
			return nil, err
		}
		if s.Start, err = parseDateColumn("start_date", start); err != nil {
			return nil, err
		}
		if s.End, err = parseDateColumn("end_date", end); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTimeColumn("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertApplication inserts only if both the employee and the leave type
// belong to this client; otherwise no row is written and ErrNoRecord is
// returned.
func (r *tenantRepo) InsertApplication(ctx context.Context, app leave.Application) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO leave_applications
		(id, employee_id, leave_type_id, start_date, end_date, days, status, reason, created_at)
		SELECT ?, e.id, lt.id, ?, ?, ?, ?, ?, ?
		FROM employees e
		JOIN leave_types lt ON lt.client_id = e.client_id
		WHERE e.client_id = ? AND e.id = ? AND lt.id = ?`,
		string(app.ID), app.Start.String(), app.End.String(), app.Days,
		string(app.Status), nullString(app.Reason), formatTime(app.CreatedAt),
		r.clientID, app.EmployeeID, app.LeaveTypeID,
	)
	if err != nil {
		return mapWriteError("insert application", err)
	}
	return expectOne(res)
}

func (r *tenantRepo) ApplicationByID(ctx context.Context, id leave.ApplicationID) (leave.Application, error) {
	var a leave.Application
	var start, end, createdAt string
	var reason sql.NullString
	err := r.q.QueryRowContext(ctx, `
		SELECT a.id, a.employee_id, a.leave_type_id, a.start_date, a.end_date,
		       a.days, a.status, a.reason, a.created_at
		FROM leave_applications a
		JOIN employees e ON e.id = a.employee_id
		WHERE e.client_id = ? AND a.id = ?`,
		r.clientID, string(id),
	).Scan(&a.ID, &a.EmployeeID, &a.LeaveTypeID, &start, &end, &a.Days, &a.Status, &reason, &createdAt)
	if err != nil {
		return leave.Application{}, mapNotFound(err)
	}
	if a.Start, err = parseDateColumn("start_date", start); err != nil {
		return leave.Application{}, err
	}
	if a.End, err = parseDateColumn("end_date", end); err != nil {
		return leave.Application{}, err
	}
	a.Reason = reason.String
	if a.CreatedAt, err = parseTimeColumn("created_at", createdAt); err != nil {
		return leave.Application{}, err
	}
	return a, nil
}

func (r *tenantRepo) UpdateApplicationStatus(ctx context.Context, id leave.ApplicationID, status leave.Status) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE leave_applications
		SET status = ?
		WHERE id = ?
		  AND employee_id IN (SELECT id FROM employees WHERE client_id = ?)`,
		string(status), string(id), r.clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return expectOne(res)
}
