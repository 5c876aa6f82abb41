/*
balance.go - Per-year leave balances

PURPOSE:
  Computes, for one employee and calendar year, how much of each leave type
  has been taken and how much remains.

FORMULA:
  period    = [Jan 1, Dec 31] of year
  taken     = SUM(days) of APPROVED applications with
              start >= period.Start AND end <= period.End
  remaining = max(0, allocation + carry_over - taken)

PARTIAL-YEAR EXCLUSION:
  An application that straddles Dec 31 / Jan 1 counts in NEITHER year.
  This matches the stored history of existing tenants and is kept as is.

  Dec 30 ─────────── Jan 2
         │  year N  │ year N+1 │
         └──────────┴──────────┘  not counted in N, not counted in N+1

SEE ALSO:
  - dates.go: YearBounds
  - store.go: TenantRepo.ApprovedDays
*/
package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Balance is one leave type's position for a year.
type Balance struct {
	LeaveTypeCode string
	Name          string
	Allocation    int
	CarryOver     int
	Taken         int
	Remaining     int
}

// TypeBalance is a single-type balance with the resolved leave type.
type TypeBalance struct {
	Employee  Employee
	LeaveType LeaveType
	Year      int
	Taken     int
	Remaining int
}

// EmployeeSummary is everything shown on an employee's leave page.
type EmployeeSummary struct {
	Employee     Employee
	Year         int
	Balances     []Balance
	Applications []ApplicationSummary
}

// remaining never goes below zero.
func remaining(lt LeaveType, taken int) int {
	r := lt.Entitlement() - taken
	if r < 0 {
		return 0
	}
	return r
}

// =============================================================================
// IN-SCOPE HELPERS
// =============================================================================

func (e *Engine) balancesIn(ctx context.Context, repo TenantRepo, emp Employee, year int) ([]Balance, error) {
	types, err := repo.LeaveTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}

	period := YearBounds(year)
	balances := make([]Balance, 0, len(types))
	for _, lt := range types {
		taken, err := repo.ApprovedDays(ctx, emp.ID, lt.ID, period)
		if err != nil {
			return nil, fmt.Errorf("approved days for %s: %w", lt.Code, err)
		}
		balances = append(balances, Balance{
			LeaveTypeCode: lt.Code,
			Name:          lt.Name,
			Allocation:    lt.AnnualAllocation,
			CarryOver:     lt.CarryOver,
			Taken:         taken,
			Remaining:     remaining(lt, taken),
		})
	}
	return balances, nil
}

func (e *Engine) balanceForTypeIn(ctx context.Context, repo TenantRepo, emp Employee, code string, year int) (TypeBalance, error) {
	lt, err := repo.LeaveTypeByCode(ctx, code)
	if err != nil {
		return TypeBalance{}, notFound(err, "leave_type", code)
	}
	taken, err := repo.ApprovedDays(ctx, emp.ID, lt.ID, YearBounds(year))
	if err != nil {
		return TypeBalance{}, fmt.Errorf("approved days for %s: %w", code, err)
	}
	return TypeBalance{
		Employee:  emp,
		LeaveType: lt,
		Year:      year,
		Taken:     taken,
		Remaining: remaining(lt, taken),
	}, nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// GetBalances returns one Balance per leave type of the tenant, ordered by
// leave type code. emp must belong to tenant.
func (e *Engine) GetBalances(ctx context.Context, tenant *Tenant, emp Employee, year int) ([]Balance, error) {
	if err := requireTenant(tenant); err != nil {
		return nil, err
	}
	if emp.ClientID != tenant.ClientID() {
		return nil, &NotFoundError{Entity: "employee", Key: emp.Code}
	}
	var out []Balance
	err := e.store.Scope(ctx, func(tx Tx) error {
		var err error
		out, err = e.balancesIn(ctx, tx.ForClient(tenant.ClientID()), emp, year)
		return err
	})
	return out, err
}

// GetBalanceForType returns the balance of one leave type by code.
func (e *Engine) GetBalanceForType(ctx context.Context, tenant *Tenant, emp Employee, leaveTypeCode string, year int) (TypeBalance, error) {
	if err := requireTenant(tenant); err != nil {
		return TypeBalance{}, err
	}
	if emp.ClientID != tenant.ClientID() {
		return TypeBalance{}, &NotFoundError{Entity: "employee", Key: emp.Code}
	}
	var out TypeBalance
	err := e.store.Scope(ctx, func(tx Tx) error {
		var err error
		out, err = e.balanceForTypeIn(ctx, tx.ForClient(tenant.ClientID()), emp, leaveTypeCode, year)
		return err
	})
	return out, err
}

// Summary authenticates the employee and returns identity, all balances and
// the most recent applications, read in one scope.
func (e *Engine) Summary(ctx context.Context, tenant *Tenant, employeeCode, secret string, year int) (EmployeeSummary, error) {
	if err := requireTenant(tenant); err != nil {
		return EmployeeSummary{}, err
	}
	var out EmployeeSummary
	err := e.store.Scope(ctx, func(tx Tx) error {
		repo := tx.ForClient(tenant.ClientID())

		emp, err := e.authenticate(ctx, repo, employeeCode, secret)
		if err != nil {
			return err
		}
		balances, err := e.balancesIn(ctx, repo, emp, year)
		if err != nil {
			return err
		}
		history, err := repo.RecentApplications(ctx, emp.ID, HistoryLimit)
		if err != nil {
			return fmt.Errorf("recent applications: %w", err)
		}

		out = EmployeeSummary{
			Employee:     emp,
			Year:         year,
			Balances:     balances,
			Applications: history,
		}
		return nil
	})
	if err != nil {
		return EmployeeSummary{}, err
	}

	e.logger.Debug("summary computed",
		zap.String("client_id", tenant.ClientID()),
		zap.String("employee_code", employeeCode),
		zap.Int("year", year),
		zap.Int("leave_types", len(out.Balances)),
	)
	return out, nil
}

// BalanceForType authenticates the employee and returns one type's balance.
func (e *Engine) BalanceForType(ctx context.Context, tenant *Tenant, employeeCode, secret, leaveTypeCode string, year int) (TypeBalance, error) {
	if err := requireTenant(tenant); err != nil {
		return TypeBalance{}, err
	}
	var out TypeBalance
	err := e.store.Scope(ctx, func(tx Tx) error {
		repo := tx.ForClient(tenant.ClientID())
		emp, err := e.authenticate(ctx, repo, employeeCode, secret)
		if err != nil {
			return err
		}
		out, err = e.balanceForTypeIn(ctx, repo, emp, leaveTypeCode, year)
		return err
	})
	return out, err
}
