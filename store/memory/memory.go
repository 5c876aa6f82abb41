// Package memory provides an in-memory leave.Store for tests and dev runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Store keeps every table in maps guarded by one mutex. Scopes are
// serialised; a failed scope restores the snapshot taken when it began.
type Store struct {
	mu    sync.Mutex
	state state
}

type state struct {
	clients      map[string]leave.Client
	employees    map[string]leave.Employee
	leaveTypes   map[string]leave.LeaveType
	applications map[leave.ApplicationID]leave.Application
}

func newState() state {
	return state{
		clients:      make(map[string]leave.Client),
		employees:    make(map[string]leave.Employee),
		leaveTypes:   make(map[string]leave.LeaveType),
		applications: make(map[leave.ApplicationID]leave.Application),
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.clients {
		c.clients[k] = v
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.leaveTypes {
		c.leaveTypes[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	return c
}

func New() *Store {
	return &Store{state: newState()}
}

var (
	_ leave.Store       = (*Store)(nil)
	_ leave.Provisioner = (*Store)(nil)
)

// Scope runs fn against the live maps and restores the snapshot if fn
// fails or panics.
func (s *Store) Scope(ctx context.Context, fn func(leave.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(&tx{st: &s.state}); err != nil {
		return err
	}
	committed = true
	return nil
}

// =============================================================================
// TX VIEW
// =============================================================================

type tx struct {
	st *state
}

func (t *tx) ClientByCredential(_ context.Context, credential string) (leave.Client, error) {
	for _, c := range t.st.clients {
		if c.Credential == credential {
			return c, nil
		}
	}
	return leave.Client{}, leave.ErrNoRecord
}

func (t *tx) ForClient(clientID string) leave.TenantRepo {
	return &tenantRepo{st: t.st, clientID: clientID}
}

type tenantRepo struct {
	st       *state
	clientID string
}

func (r *tenantRepo) EmployeeByCode(_ context.Context, code string) (leave.Employee, error) {
	for _, e := range r.st.employees {
		if e.ClientID == r.clientID && e.Code == code {
			return e, nil
		}
	}
	return leave.Employee{}, leave.ErrNoRecord
}

func (r *tenantRepo) LeaveTypeByCode(_ context.Context, code string) (leave.LeaveType, error) {
	for _, lt := range r.st.leaveTypes {
		if lt.ClientID == r.clientID && lt.Code == code {
			return lt, nil
		}
	}
	return leave.LeaveType{}, leave.ErrNoRecord
}

func (r *tenantRepo) LeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, lt := range r.st.leaveTypes {
		if lt.ClientID == r.clientID {
			out = append(out, lt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// owns reports whether the employee and leave type both belong to the repo's
// client.
func (r *tenantRepo) owns(employeeID, leaveTypeID string) bool {
	e, ok := r.st.employees[employeeID]
	if !ok || e.ClientID != r.clientID {
		return false
	}
	lt, ok := r.st.leaveTypes[leaveTypeID]
	return ok && lt.ClientID == r.clientID
}

func (r *tenantRepo) ApprovedDays(_ context.Context, employeeID, leaveTypeID string, period leave.Period) (int, error) {
	if !r.owns(employeeID, leaveTypeID) {
		return 0, nil
	}
	total := 0
	for _, a := range r.st.applications {
		if a.EmployeeID != employeeID || a.LeaveTypeID != leaveTypeID || a.Status != leave.StatusApproved {
			continue
		}
		if period.Encloses(a.Period()) {
			total += a.Days
		}
	}
	return total, nil
}

func (r *tenantRepo) RecentApplications(_ context.Context, employeeID string, limit int) ([]leave.ApplicationSummary, error) {
	if e, ok := r.st.employees[employeeID]; !ok || e.ClientID != r.clientID {
		return nil, nil
	}
	var out []leave.ApplicationSummary
	for _, a := range r.st.applications {
		if a.EmployeeID != employeeID {
			continue
		}
		out = append(out, leave.ApplicationSummary{
			ID:            a.ID,
			LeaveTypeCode: r.st.leaveTypes[a.LeaveTypeID].Code,
			Start:         a.Start,
			End:           a.End,
			Days:          a.Days,
			Status:        a.Status,
			Reason:        a.Reason,
			CreatedAt:     a.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *tenantRepo) InsertApplication(_ context.Context, app leave.Application) error {
	if !r.owns(app.EmployeeID, app.LeaveTypeID) {
		return leave.ErrNoRecord
	}
	if _, exists := r.st.applications[app.ID]; exists {
		return leave.ErrConflict
	}
	r.st.applications[app.ID] = app
	return nil
}

func (r *tenantRepo) ApplicationByID(_ context.Context, id leave.ApplicationID) (leave.Application, error) {
	a, ok := r.st.applications[id]
	if !ok {
		return leave.Application{}, leave.ErrNoRecord
	}
	if e, ok := r.st.employees[a.EmployeeID]; !ok || e.ClientID != r.clientID {
		return leave.Application{}, leave.ErrNoRecord
	}
	return a, nil
}

func (r *tenantRepo) UpdateApplicationStatus(ctx context.Context, id leave.ApplicationID, status leave.Status) error {
	a, err := r.ApplicationByID(ctx, id)
	if err != nil {
		return err
	}
	a.Status = status
	r.st.applications[id] = a
	return nil
}

// =============================================================================
// PROVISIONER
// =============================================================================

func (s *Store) CreateClient(_ context.Context, c leave.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.state.clients {
		if existing.ID == c.ID || existing.Name == c.Name || existing.Credential == c.Credential {
			return leave.ErrConflict
		}
	}
	s.state.clients[c.ID] = c
	return nil
}

func (s *Store) CreateEmployee(_ context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.clients[e.ClientID]; !ok {
		return leave.ErrNoRecord
	}
	for _, existing := range s.state.employees {
		if existing.ID == e.ID || (existing.ClientID == e.ClientID && existing.Code == e.Code) {
			return leave.ErrConflict
		}
	}
	s.state.employees[e.ID] = e
	return nil
}

func (s *Store) CreateLeaveType(_ context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.clients[lt.ClientID]; !ok {
		return leave.ErrNoRecord
	}
	for _, existing := range s.state.leaveTypes {
		if existing.ID == lt.ID || (existing.ClientID == lt.ClientID && existing.Code == lt.Code) {
			return leave.ErrConflict
		}
	}
	s.state.leaveTypes[lt.ID] = lt
	return nil
}

func (s *Store) CreateApplication(ctx context.Context, clientID string, app leave.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := &tenantRepo{st: &s.state, clientID: clientID}
	return repo.InsertApplication(ctx, app)
}

func (s *Store) DeleteClient(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.clients[clientID]; !ok {
		return leave.ErrNoRecord
	}
	for id, e := range s.state.employees {
		if e.ClientID == clientID {
			s.deleteEmployeeLocked(id)
		}
	}
	for id, lt := range s.state.leaveTypes {
		if lt.ClientID == clientID {
			s.deleteLeaveTypeLocked(id)
		}
	}
	delete(s.state.clients, clientID)
	return nil
}

func (s *Store) DeleteEmployee(_ context.Context, clientID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.state.employees {
		if e.ClientID == clientID && e.Code == code {
			s.deleteEmployeeLocked(id)
			return nil
		}
	}
	return leave.ErrNoRecord
}

func (s *Store) DeleteLeaveType(_ context.Context, clientID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, lt := range s.state.leaveTypes {
		if lt.ClientID == clientID && lt.Code == code {
			s.deleteLeaveTypeLocked(id)
			return nil
		}
	}
	return leave.ErrNoRecord
}

func (s *Store) deleteEmployeeLocked(id string) {
	for appID, a := range s.state.applications {
		if a.EmployeeID == id {
			delete(s.state.applications, appID)
		}
	}
	delete(s.state.employees, id)
}

func (s *Store) deleteLeaveTypeLocked(id string) {
	for appID, a := range s.state.applications {
		if a.LeaveTypeID == id {
			delete(s.state.applications, appID)
		}
	}
	delete(s.state.leaveTypes, id)
}

func (s *Store) ListClients(_ context.Context) ([]leave.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]leave.Client, 0, len(s.state.clients))
	for _, c := range s.state.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}
