package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

var now = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

type records struct {
	client leave.Client
	emp    leave.Employee
	lt     leave.LeaveType
}

func newStore(t *testing.T) (*Store, records) {
	t.Helper()
	ctx := context.Background()
	s := New()

	c, err := leave.NewClient("Acme", "KEY-1", now)
	require.NoError(t, err)
	require.NoError(t, s.CreateClient(ctx, c))
	e, err := leave.NewEmployee(c.ID, "E001", "Ann", "1234", nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateEmployee(ctx, e))
	lt, err := leave.NewLeaveType(c.ID, "annual", "Annual", 15, 5)
	require.NoError(t, err)
	require.NoError(t, s.CreateLeaveType(ctx, lt))

	return s, records{client: c, emp: e, lt: lt}
}

func newApp(t *testing.T, r records, start, end string, status leave.Status) leave.Application {
	t.Helper()
	app, err := leave.NewApplication(r.emp, r.lt, leave.MustParseDate(start), leave.MustParseDate(end), status, "", now)
	require.NoError(t, err)
	return app
}

func countApps(t *testing.T, s *Store, r records) int {
	t.Helper()
	var n int
	err := s.Scope(context.Background(), func(tx leave.Tx) error {
		apps, err := tx.ForClient(r.client.ID).RecentApplications(context.Background(), r.emp.ID, 100)
		n = len(apps)
		return err
	})
	require.NoError(t, err)
	return n
}

func TestScope_CommitsOnSuccess(t *testing.T) {
	s, r := newStore(t)

	err := s.Scope(context.Background(), func(tx leave.Tx) error {
		return tx.ForClient(r.client.ID).InsertApplication(context.Background(), newApp(t, r, "2025-04-01", "2025-04-02", leave.StatusPending))
	})

	require.NoError(t, err)
	assert.Equal(t, 1, countApps(t, s, r))
}

func TestScope_RollsBackOnError(t *testing.T) {
	s, r := newStore(t)
	boom := errors.New("boom")

	// GIVEN: a scope that writes and then fails
	err := s.Scope(context.Background(), func(tx leave.Tx) error {
		require.NoError(t, tx.ForClient(r.client.ID).InsertApplication(context.Background(), newApp(t, r, "2025-04-01", "2025-04-02", leave.StatusPending)))
		return boom
	})

	// THEN: the error is returned unchanged and the write is gone
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countApps(t, s, r))
}

func TestScope_RollsBackOnPanic(t *testing.T) {
	s, r := newStore(t)

	assert.Panics(t, func() {
		_ = s.Scope(context.Background(), func(tx leave.Tx) error {
			_ = tx.ForClient(r.client.ID).InsertApplication(context.Background(), newApp(t, r, "2025-04-01", "2025-04-02", leave.StatusPending))
			panic("handler bug")
		})
	})

	// The lock was released and the write undone.
	assert.Equal(t, 0, countApps(t, s, r))
}

func TestScope_CanceledContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Scope(ctx, func(leave.Tx) error { called = true; return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTenantRepo_InsertRejectsForeignRecords(t *testing.T) {
	s, r := newStore(t)
	ctx := context.Background()

	other, err := leave.NewClient("Other", "KEY-2", now)
	require.NoError(t, err)
	require.NoError(t, s.CreateClient(ctx, other))

	// Inserting Acme's application through Other's repo writes nothing.
	err = s.Scope(ctx, func(tx leave.Tx) error {
		return tx.ForClient(other.ID).InsertApplication(ctx, newApp(t, r, "2025-04-01", "2025-04-01", leave.StatusPending))
	})
	assert.ErrorIs(t, err, leave.ErrNoRecord)
	assert.Equal(t, 0, countApps(t, s, r))
}

func TestApprovedDays_WhollyInsidePeriodOnly(t *testing.T) {
	s, r := newStore(t)
	ctx := context.Background()

	for _, a := range []leave.Application{
		newApp(t, r, "2025-02-10", "2025-02-12", leave.StatusApproved), // 3, counted
		newApp(t, r, "2025-03-01", "2025-03-01", leave.StatusPending),  // not approved
		newApp(t, r, "2024-12-31", "2025-01-01", leave.StatusApproved), // straddles
	} {
		require.NoError(t, s.CreateApplication(ctx, r.client.ID, a))
	}

	var days int
	err := s.Scope(ctx, func(tx leave.Tx) error {
		var err error
		days, err = tx.ForClient(r.client.ID).ApprovedDays(ctx, r.emp.ID, r.lt.ID, leave.YearBounds(2025))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, days)
}

func TestProvisioner_Conflicts(t *testing.T) {
	s, r := newStore(t)
	ctx := context.Background()

	dupName, _ := leave.NewClient("Acme", "KEY-9", now)
	assert.ErrorIs(t, s.CreateClient(ctx, dupName), leave.ErrConflict)
	dupCred, _ := leave.NewClient("Acme 2", "KEY-1", now)
	assert.ErrorIs(t, s.CreateClient(ctx, dupCred), leave.ErrConflict)

	dupEmp, _ := leave.NewEmployee(r.client.ID, "E001", "Someone", "0000", nil)
	assert.ErrorIs(t, s.CreateEmployee(ctx, dupEmp), leave.ErrConflict)
	dupType, _ := leave.NewLeaveType(r.client.ID, "annual", "Other annual", 1, 0)
	assert.ErrorIs(t, s.CreateLeaveType(ctx, dupType), leave.ErrConflict)

	orphan, _ := leave.NewEmployee("no-such-client", "E001", "Someone", "0000", nil)
	assert.ErrorIs(t, s.CreateEmployee(ctx, orphan), leave.ErrNoRecord)
}

func TestProvisioner_DeletesCascade(t *testing.T) {
	s, r := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateApplication(ctx, r.client.ID, newApp(t, r, "2025-04-01", "2025-04-02", leave.StatusPending)))

	// Deleting the leave type removes its applications
	require.NoError(t, s.DeleteLeaveType(ctx, r.client.ID, "annual"))
	assert.Equal(t, 0, countApps(t, s, r))
	assert.ErrorIs(t, s.DeleteLeaveType(ctx, r.client.ID, "annual"), leave.ErrNoRecord)

	// Deleting the client removes everything under it
	require.NoError(t, s.DeleteClient(ctx, r.client.ID))
	clients, err := s.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.Empty(t, s.state.employees)
	assert.Empty(t, s.state.leaveTypes)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, r.client.ID, "E001"), leave.ErrNoRecord)
}
