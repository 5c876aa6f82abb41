package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// allowedTransition lists the moves a review may make.
// Only pending applications can be decided, and only once.
func allowedTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// Review moves a pending application of the tenant to approved or rejected.
func (e *Engine) Review(ctx context.Context, tenant *Tenant, id ApplicationID, to Status) (Application, error) {
	if err := requireTenant(tenant); err != nil {
		return Application{}, err
	}
	var app Application
	err := e.store.Scope(ctx, func(tx Tx) error {
		repo := tx.ForClient(tenant.ClientID())

		var err error
		app, err = repo.ApplicationByID(ctx, id)
		if err != nil {
			return notFound(err, "application", string(id))
		}
		if !allowedTransition(app.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, to)
		}
		if err := repo.UpdateApplicationStatus(ctx, id, to); err != nil {
			return notFound(err, "application", string(id))
		}
		app.Status = to
		return nil
	})
	if err != nil {
		return Application{}, err
	}

	e.logger.Info("leave application reviewed",
		zap.String("client_id", tenant.ClientID()),
		zap.String("application_id", string(id)),
		zap.String("status", string(to)),
	)
	return app, nil
}
