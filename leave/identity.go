/*
identity.go - Tenant and employee resolution

PURPOSE:
  Turns a raw tenant credential into a *Tenant and an employee code plus
  access secret into an authenticated Employee. Every tenant-scoped engine
  operation takes a *Tenant; since its fields are unexported, the only way
  to get one is ResolveTenant.

RULES:
  - Credentials match exactly; no trimming or case folding.
  - Secrets are compared in constant time.
  - An empty credential or secret is "missing" (401); a wrong one is
    "invalid" (403).
  - Employee lookup happens before secret comparison, so an unknown code is
    NotFoundError("employee") rather than an auth failure.
*/
package leave

import (
	"context"
	"crypto/subtle"
	"fmt"

	"go.uber.org/zap"
)

// Tenant is a resolved client. Build it with Engine.ResolveTenant.
type Tenant struct {
	clientID string
	name     string
}

func (t *Tenant) ClientID() string { return t.clientID }
func (t *Tenant) Name() string     { return t.name }

// requireTenant rejects a nil tenant as a missing client credential.
func requireTenant(t *Tenant) error {
	if t == nil {
		return &AuthError{Subject: "client", Missing: true}
	}
	return nil
}

// ResolveTenant authenticates a client credential.
func (e *Engine) ResolveTenant(ctx context.Context, credential string) (*Tenant, error) {
	if credential == "" {
		return nil, &AuthError{Subject: "client", Missing: true}
	}

	var tenant *Tenant
	err := e.store.Scope(ctx, func(tx Tx) error {
		c, err := tx.ClientByCredential(ctx, credential)
		if err != nil {
			return err
		}
		tenant = &Tenant{clientID: c.ID, name: c.Name}
		return nil
	})
	if err != nil {
		if IsNotFound(notFound(err, "client", "")) {
			e.logger.Debug("unknown client credential")
			return nil, &AuthError{Subject: "client"}
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}
	return tenant, nil
}

// ResolveEmployee finds code inside the tenant and checks its secret.
func (e *Engine) ResolveEmployee(ctx context.Context, tenant *Tenant, code, secret string) (Employee, error) {
	if err := requireTenant(tenant); err != nil {
		return Employee{}, err
	}
	var emp Employee
	err := e.store.Scope(ctx, func(tx Tx) error {
		var err error
		emp, err = e.authenticate(ctx, tx.ForClient(tenant.ClientID()), code, secret)
		return err
	})
	return emp, err
}

// authenticate is ResolveEmployee inside an existing scope.
func (e *Engine) authenticate(ctx context.Context, repo TenantRepo, code, secret string) (Employee, error) {
	emp, err := repo.EmployeeByCode(ctx, code)
	if err != nil {
		return Employee{}, notFound(err, "employee", code)
	}
	if secret == "" {
		return Employee{}, &AuthError{Subject: "employee", Missing: true}
	}
	if subtle.ConstantTimeCompare([]byte(emp.AccessSecret), []byte(secret)) != 1 {
		e.logger.Info("employee secret mismatch",
			zap.String("client_id", emp.ClientID),
			zap.String("employee_code", code),
		)
		return Employee{}, &AuthError{Subject: "employee"}
	}
	return emp, nil
}
