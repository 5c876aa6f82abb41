/*
demo.go - Demo tenant loader

PURPOSE:
  Populates an empty store with one small, realistic tenant so the API can
  be exercised right after start-up:

    client       Acme Bakery        credential DEMO-ACME-KEY-123
    leave types  annual 15+5, sick 10+0, unpaid 0+0
    employees    E001 James Chikwiti / 1234
                 E002 Nomsa Dlamini  / 4321   (both started 2023-01-01)
    history      E002 annual 2025-02-10..2025-02-12, approved

IDEMPOTENCY:
  Each row is created only if missing. A second run writes nothing, and a
  run that stopped halfway is completed by the next one.

USAGE:
  res, err := seed.Demo(ctx, store, time.Now())

SEE ALSO:
  - cmd/server: -seed flag / SEED_DEMO
  - cmd/leavectl: "seed" subcommand
*/
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// DEMO DATA
// =============================================================================

const (
	DemoClientName = "Acme Bakery"
	DemoCredential = "DEMO-ACME-KEY-123"
)

type leaveTypeSeed struct {
	Code       string
	Name       string
	Allocation int
	CarryOver  int
}

type employeeSeed struct {
	Code     string
	FullName string
	Secret   string
}

var demoLeaveTypes = []leaveTypeSeed{
	{Code: "annual", Name: "Annual Leave", Allocation: 15, CarryOver: 5},
	{Code: "sick", Name: "Sick Leave", Allocation: 10, CarryOver: 0},
	{Code: "unpaid", Name: "Unpaid Leave", Allocation: 0, CarryOver: 0},
}

var demoEmployees = []employeeSeed{
	{Code: "E001", FullName: "James Chikwiti", Secret: "1234"},
	{Code: "E002", FullName: "Nomsa Dlamini", Secret: "4321"},
}

var demoStartDate = leave.NewDate(2023, time.January, 1)

// Target is a store that can both provision rows and look them up.
type Target interface {
	leave.Store
	leave.Provisioner
}

// Result reports what Demo did. Created is true when any row was written.
type Result struct {
	Created  bool
	ClientID string
}

// =============================================================================
// LOADER
// =============================================================================

// Demo loads the demo tenant row by row. Rows that already exist are kept,
// so a run that failed halfway is completed by the next one.
func Demo(ctx context.Context, t Target, now time.Time) (Result, error) {
	logger := zap.L().Named("seed")
	var res Result

	client, created, err := ensureClient(ctx, t, now)
	if err != nil {
		return Result{}, err
	}
	res.ClientID = client.ID
	res.Created = created

	types := make(map[string]leave.LeaveType, len(demoLeaveTypes))
	for _, s := range demoLeaveTypes {
		lt, err := leave.NewLeaveType(client.ID, s.Code, s.Name, s.Allocation, s.CarryOver)
		if err != nil {
			return res, err
		}
		switch err := t.CreateLeaveType(ctx, lt); {
		case err == nil:
			res.Created = true
		case errors.Is(err, leave.ErrConflict):
			if lt, err = lookup(ctx, t, client.ID, func(r leave.TenantRepo) (leave.LeaveType, error) {
				return r.LeaveTypeByCode(ctx, s.Code)
			}); err != nil {
				return res, fmt.Errorf("load leave type %s: %w", s.Code, err)
			}
		default:
			return res, fmt.Errorf("create leave type %s: %w", s.Code, err)
		}
		types[lt.Code] = lt
	}

	employees := make(map[string]leave.Employee, len(demoEmployees))
	for _, s := range demoEmployees {
		start := demoStartDate
		emp, err := leave.NewEmployee(client.ID, s.Code, s.FullName, s.Secret, &start)
		if err != nil {
			return res, err
		}
		switch err := t.CreateEmployee(ctx, emp); {
		case err == nil:
			res.Created = true
		case errors.Is(err, leave.ErrConflict):
			if emp, err = lookup(ctx, t, client.ID, func(r leave.TenantRepo) (leave.Employee, error) {
				return r.EmployeeByCode(ctx, s.Code)
			}); err != nil {
				return res, fmt.Errorf("load employee %s: %w", s.Code, err)
			}
		default:
			return res, fmt.Errorf("create employee %s: %w", s.Code, err)
		}
		employees[emp.Code] = emp
	}

	added, err := ensureHistory(ctx, t, client.ID, employees["E002"], types["annual"], now)
	if err != nil {
		return res, err
	}
	res.Created = res.Created || added

	if !res.Created {
		logger.Debug("demo tenant already present", zap.String("client_id", client.ID))
		return res, nil
	}
	logger.Info("demo tenant loaded",
		zap.String("client_id", client.ID),
		zap.Int("leave_types", len(types)),
		zap.Int("employees", len(employees)),
	)
	return res, nil
}

func ensureClient(ctx context.Context, t Target, now time.Time) (leave.Client, bool, error) {
	clients, err := t.ListClients(ctx)
	if err != nil {
		return leave.Client{}, false, fmt.Errorf("list clients: %w", err)
	}
	for _, c := range clients {
		if c.Name == DemoClientName {
			return c, false, nil
		}
	}

	client, err := leave.NewClient(DemoClientName, DemoCredential, now)
	if err != nil {
		return leave.Client{}, false, err
	}
	if err := t.CreateClient(ctx, client); err != nil {
		return leave.Client{}, false, fmt.Errorf("create client: %w", err)
	}
	return client, true, nil
}

// ensureHistory adds the approved annual leave of E002 unless an
// application for the same type and dates is already recorded.
func ensureHistory(ctx context.Context, t Target, clientID string, emp leave.Employee, lt leave.LeaveType, now time.Time) (bool, error) {
	start := leave.NewDate(2025, time.February, 10)
	end := leave.NewDate(2025, time.February, 12)

	history, err := lookup(ctx, t, clientID, func(r leave.TenantRepo) ([]leave.ApplicationSummary, error) {
		return r.RecentApplications(ctx, emp.ID, 0)
	})
	if err != nil {
		return false, fmt.Errorf("load history: %w", err)
	}
	for _, a := range history {
		if a.LeaveTypeCode == lt.Code && a.Start.Equal(start) && a.End.Equal(end) {
			return false, nil
		}
	}

	app, err := leave.NewApplication(emp, lt, start, end, leave.StatusApproved, "Family event", now)
	if err != nil {
		return false, err
	}
	if err := t.CreateApplication(ctx, clientID, app); err != nil {
		return false, fmt.Errorf("create application: %w", err)
	}
	return true, nil
}

// lookup reads one value through a tenant repo in its own scope.
func lookup[T any](ctx context.Context, store leave.Store, clientID string, read func(leave.TenantRepo) (T, error)) (T, error) {
	var out T
	err := store.Scope(ctx, func(tx leave.Tx) error {
		var err error
		out, err = read(tx.ForClient(clientID))
		return err
	})
	return out, err
}
