/*
apply.go - Leave application submission

FLOW (one store scope):
  1. resolve employee in tenant      -> NotFoundError("employee")
  2. check access secret             -> AuthError
  3. resolve leave type in tenant    -> NotFoundError("leave_type")
  4. days = DaysBetween(start, end)  -> InvalidRangeError
  5. days <= 0                       -> InvalidDurationError
  6. insert application, status pending, created_at = engine clock

There is no balance-sufficiency check: an application may exceed what
remains. Approval is a separate, external action (see review.go).
*/
package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ApplyRequest is a submission as received from the caller.
type ApplyRequest struct {
	EmployeeCode  string
	AccessSecret  string
	LeaveTypeCode string
	Start         Date
	End           Date
	Reason        string
}

// ApplyLeave records a pending application and returns it as stored.
func (e *Engine) ApplyLeave(ctx context.Context, tenant *Tenant, req ApplyRequest) (Application, error) {
	if err := requireTenant(tenant); err != nil {
		return Application{}, err
	}
	var app Application
	err := e.store.Scope(ctx, func(tx Tx) error {
		repo := tx.ForClient(tenant.ClientID())

		emp, err := e.authenticate(ctx, repo, req.EmployeeCode, req.AccessSecret)
		if err != nil {
			return err
		}
		lt, err := repo.LeaveTypeByCode(ctx, req.LeaveTypeCode)
		if err != nil {
			return notFound(err, "leave_type", req.LeaveTypeCode)
		}

		app, err = NewApplication(emp, lt, req.Start, req.End, StatusPending, req.Reason, e.now())
		if err != nil {
			return err
		}

		if err := repo.InsertApplication(ctx, app); err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Debug("leave application refused",
			zap.String("client_id", tenant.ClientID()),
			zap.String("employee_code", req.EmployeeCode),
			zap.Error(err),
		)
		return Application{}, err
	}

	e.logger.Info("leave application submitted",
		zap.String("client_id", tenant.ClientID()),
		zap.String("application_id", string(app.ID)),
		zap.String("leave_type", req.LeaveTypeCode),
		zap.Int("days", app.Days),
	)
	return app, nil
}
