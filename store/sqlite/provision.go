package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// PROVISIONER (leave.Provisioner interface)
// =============================================================================

// CreateClient inserts a client. Duplicate names or credentials are
// ErrConflict.
func (s *Store) CreateClient(ctx context.Context, c leave.Client) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clients (id, name, credential, created_at) VALUES (?, ?, ?, ?)",
		c.ID, c.Name, c.Credential, formatTime(c.CreatedAt),
	)
	return mapWriteError("create client", err)
}

// CreateEmployee inserts an employee. An unknown client is ErrNoRecord.
func (s *Store) CreateEmployee(ctx context.Context, e leave.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, client_id, employee_code, full_name, access_secret, start_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ClientID, e.Code, e.FullName, e.AccessSecret, nullDate(e.StartDate),
	)
	return mapWriteError("create employee", err)
}

func (s *Store) CreateLeaveType(ctx context.Context, lt leave.LeaveType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (id, client_id, code, name, annual_allocation, carry_over)
		VALUES (?, ?, ?, ?, ?, ?)`,
		lt.ID, lt.ClientID, lt.Code, lt.Name, lt.AnnualAllocation, lt.CarryOver,
	)
	return mapWriteError("create leave type", err)
}

// CreateApplication stores app as is, status included. Both parents must
// belong to clientID.
func (s *Store) CreateApplication(ctx context.Context, clientID string, app leave.Application) error {
	repo := &tenantRepo{q: s.db, clientID: clientID}
	return repo.InsertApplication(ctx, app)
}

// DeleteClient removes a client; employees, leave types and their
// applications go with it through ON DELETE CASCADE.
func (s *Store) DeleteClient(ctx context.Context, clientID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", clientID)
	if err != nil {
		return mapWriteError("delete client", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	s.logger.Info("client deleted", zap.String("client_id", clientID))
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, clientID, code string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM employees WHERE client_id = ? AND employee_code = ?",
		clientID, code,
	)
	if err != nil {
		return mapWriteError("delete employee", err)
	}
	return expectOne(res)
}

func (s *Store) DeleteLeaveType(ctx context.Context, clientID, code string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM leave_types WHERE client_id = ? AND code = ?",
		clientID, code,
	)
	if err != nil {
		return mapWriteError("delete leave type", err)
	}
	return expectOne(res)
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]leave.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, credential, created_at FROM clients ORDER BY name COLLATE NOCASE",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []leave.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
