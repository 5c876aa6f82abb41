/*
store.go - Persistence contracts for the leave engine

PURPOSE:
  Defines the interface between the engine and the database. Every engine
  operation runs inside exactly one Store.Scope; the scope commits when the
  callback returns nil and rolls back on every other exit, including panics.

TENANT ISOLATION:
  The only unscoped read is Tx.ClientByCredential. Everything else goes
  through Tx.ForClient(clientID), whose queries always filter by client_id.
  An employee code or leave type code from another client simply does not
  exist from inside a TenantRepo.

ERRORS:
  - Missing row:               ErrNoRecord
  - Unique constraint failure: ErrConflict
  - Anything else:             wrapped driver error

IMPLEMENTATIONS:
  - store/sqlite: production SQLite with versioned migrations
  - store/memory: in-memory, for tests and dev runs

SEE ALSO:
  - identity.go: resolves the tenant before any TenantRepo is used
*/
package leave

import "context"

// =============================================================================
// STORE - transaction scope
// =============================================================================

// Store opens transaction scopes.
type Store interface {
	// Scope runs fn inside one transaction.
	// fn returning nil commits; any error or panic rolls back.
	Scope(ctx context.Context, fn func(Tx) error) error
}

// Tx is the view of the store inside one scope.
type Tx interface {
	// ClientByCredential finds the client whose credential equals the
	// given value exactly.
	ClientByCredential(ctx context.Context, credential string) (Client, error)

	// ForClient returns a repo confined to one client's data.
	ForClient(clientID string) TenantRepo
}

// =============================================================================
// TENANT REPO - client-scoped reads and writes
// =============================================================================

type TenantRepo interface {
	EmployeeByCode(ctx context.Context, code string) (Employee, error)
	LeaveTypeByCode(ctx context.Context, code string) (LeaveType, error)

	// LeaveTypes returns all leave types of the client, ordered by code.
	LeaveTypes(ctx context.Context) ([]LeaveType, error)

	// ApprovedDays sums Days over approved applications of the employee for
	// the leave type whose range lies entirely inside period.
	ApprovedDays(ctx context.Context, employeeID, leaveTypeID string, period Period) (int, error)

	// RecentApplications returns at most limit applications, newest first.
	// A limit of zero or less returns all of them.
	RecentApplications(ctx context.Context, employeeID string, limit int) ([]ApplicationSummary, error)

	// InsertApplication stores a new application. It fails with ErrNoRecord
	// when the employee or leave type is not part of this client.
	InsertApplication(ctx context.Context, app Application) error

	ApplicationByID(ctx context.Context, id ApplicationID) (Application, error)
	UpdateApplicationStatus(ctx context.Context, id ApplicationID, status Status) error
}

// =============================================================================
// PROVISIONER - admin writes (seeding, leavectl)
// =============================================================================

// Provisioner manages tenant master data. It is deliberately separate from
// Store: the request path never needs it.
type Provisioner interface {
	CreateClient(ctx context.Context, c Client) error
	CreateEmployee(ctx context.Context, e Employee) error
	CreateLeaveType(ctx context.Context, lt LeaveType) error

	// CreateApplication stores an application with any status, bypassing
	// the submission path. Used for imports and seeding.
	CreateApplication(ctx context.Context, clientID string, app Application) error

	DeleteClient(ctx context.Context, clientID string) error
	DeleteEmployee(ctx context.Context, clientID, code string) error
	DeleteLeaveType(ctx context.Context, clientID, code string) error

	ListClients(ctx context.Context) ([]Client, error)
}
