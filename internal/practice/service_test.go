package practice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"praxis.legal/internal/audit"
	"praxis.legal/internal/authz"
	"praxis.legal/internal/ratelimit"
)

// memStore backs the guard, the service and the audit recorder in one fake.
type memStore struct {
	usersByEmail map[string]authz.User
	usersByID    map[string]authz.User
	accounts     map[string]authz.Account
	processes    map[string]Process
	clients      map[string]Client
	deadlines    map[string]Deadline
	products     map[string]Product
	tribunals    map[string]Tribunal
	activity     []authz.ActivityEntry
	activityErr  error
}

func newMemStore() *memStore {
	return &memStore{
		usersByEmail: map[string]authz.User{},
		usersByID:    map[string]authz.User{},
		accounts:     map[string]authz.Account{},
		processes:    map[string]Process{},
		clients:      map[string]Client{},
		deadlines:    map[string]Deadline{},
		products:     map[string]Product{},
		tribunals:    map[string]Tribunal{},
	}
}

func (m *memStore) addUser(u authz.User) {
	m.usersByEmail[u.Email] = u
	m.usersByID[u.ID] = u
}

// authz.Store

func (m *memStore) FindUser(ctx context.Context, id string) (authz.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return authz.User{}, authz.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (authz.User, error) {
	u, ok := m.usersByEmail[email]
	if !ok {
		return authz.User{}, authz.ErrNotFound
	}
	return u, nil
}

func (m *memStore) FindAccount(ctx context.Context, id string) (authz.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return authz.Account{}, authz.ErrNotFound
	}
	return a, nil
}

func (m *memStore) CountUsers(ctx context.Context, accountID string) (int, error) {
	n := 0
	for _, u := range m.usersByID {
		if u.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountProducts(ctx context.Context, accountID string) (int, error) {
	n := 0
	for _, p := range m.products {
		if p.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

// practice.Store

func (m *memStore) InsertProcess(ctx context.Context, p Process) error {
	m.processes[p.ID] = p
	return nil
}

func (m *memStore) FindProcess(ctx context.Context, id string) (Process, error) {
	p, ok := m.processes[id]
	if !ok {
		return Process{}, authz.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListProcesses(ctx context.Context, accountID string) ([]Process, error) {
	var out []Process
	for _, p := range m.processes {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) UpdateProcess(ctx context.Context, id string, upd ProcessUpdate) (Process, error) {
	p, ok := m.processes[id]
	if !ok {
		return Process{}, authz.ErrNotFound
	}
	if upd.Subject != nil {
		p.Subject = *upd.Subject
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.TribunalID != nil {
		p.TribunalID = *upd.TribunalID
	}
	m.processes[id] = p
	return p, nil
}

func (m *memStore) DeleteProcess(ctx context.Context, id string) error {
	if _, ok := m.processes[id]; !ok {
		return authz.ErrNotFound
	}
	delete(m.processes, id)
	return nil
}

func (m *memStore) InsertClient(ctx context.Context, c Client) error {
	m.clients[c.ID] = c
	return nil
}

func (m *memStore) FindClient(ctx context.Context, id string) (Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return Client{}, authz.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListClients(ctx context.Context, accountID string) ([]Client, error) {
	var out []Client
	for _, c := range m.clients {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) InsertDeadline(ctx context.Context, d Deadline) error {
	m.deadlines[d.ID] = d
	return nil
}

func (m *memStore) FindDeadline(ctx context.Context, id string) (Deadline, error) {
	d, ok := m.deadlines[id]
	if !ok {
		return Deadline{}, authz.ErrNotFound
	}
	return d, nil
}

func (m *memStore) ListDeadlines(ctx context.Context, accountID string) ([]Deadline, error) {
	var out []Deadline
	for _, d := range m.deadlines {
		if d.AccountID == accountID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) MarkDeadlineDone(ctx context.Context, id string) (Deadline, error) {
	d, ok := m.deadlines[id]
	if !ok {
		return Deadline{}, authz.ErrNotFound
	}
	d.Done = true
	m.deadlines[id] = d
	return d, nil
}

func (m *memStore) InsertProduct(ctx context.Context, p Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *memStore) ListProducts(ctx context.Context, accountID string) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) InsertTribunal(ctx context.Context, t Tribunal) error {
	m.tribunals[t.ID] = t
	return nil
}

func (m *memStore) FindTribunal(ctx context.Context, id string) (Tribunal, error) {
	t, ok := m.tribunals[id]
	if !ok {
		return Tribunal{}, authz.ErrNotFound
	}
	return t, nil
}

func (m *memStore) ListTribunals(ctx context.Context) ([]Tribunal, error) {
	var out []Tribunal
	for _, t := range m.tribunals {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) InsertUser(ctx context.Context, u authz.User, passwordHash string) error {
	if _, exists := m.usersByEmail[u.Email]; exists {
		return fmt.Errorf("duplicate email %s", u.Email)
	}
	m.addUser(u)
	return nil
}

// audit.Store

func (m *memStore) AppendActivity(ctx context.Context, entry authz.ActivityEntry) error {
	if m.activityErr != nil {
		return m.activityErr
	}
	m.activity = append(m.activity, entry)
	return nil
}

func seededStore() *memStore {
	m := newMemStore()
	m.accounts["A"] = authz.Account{ID: "A", Name: "Firm A", IsActive: true, MaxUsers: 3, MaxProducts: 1}
	m.accounts["B"] = authz.Account{ID: "B", Name: "Firm B", IsActive: true, MaxUsers: 3, MaxProducts: 3}
	m.addUser(authz.User{ID: "admin-a", Email: "admin@firm-a.example", Role: authz.RoleAdmin, AccountID: "A", IsActive: true})
	m.addUser(authz.User{ID: "member-a", Email: "member@firm-a.example", Role: authz.RoleMember, AccountID: "A", IsActive: true})
	m.addUser(authz.User{ID: "member-b", Email: "member@firm-b.example", Role: authz.RoleMember, AccountID: "B", IsActive: true})
	m.addUser(authz.User{ID: "root", Email: "root@praxis.example", Role: authz.RoleSuperAdmin, IsActive: true})
	m.clients["c1"] = Client{ID: "c1", AccountID: "A", Name: "Acme Corp"}
	return m
}

func newTestService(t *testing.T, store *memStore) *Service {
	t.Helper()
	guard, err := authz.NewGuard(store)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	svc, err := NewService(guard, store, audit.NewRecorder(guard, store), ratelimit.New())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func as(email string) context.Context {
	return authz.ContextWithIdentity(context.Background(), authz.Identity{Email: email})
}

func lastActivity(t *testing.T, store *memStore, action string) authz.ActivityEntry {
	t.Helper()
	for i := len(store.activity) - 1; i >= 0; i-- {
		if store.activity[i].Action == action {
			return store.activity[i]
		}
	}
	t.Fatalf("no activity entry for %s", action)
	return authz.ActivityEntry{}
}

func TestCreateProcess(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, store)

	p, err := svc.CreateProcess(as("member@firm-a.example"), CreateProcessRequest{
		AccountID: "A",
		ClientID:  "c1",
		Number:    "0001234-56.2026",
		Subject:   "Contract dispute",
	})
	if err != nil {
		t.Fatalf("CreateProcess: %v", err)
	}
	if p.Status != ProcessStatusActive || p.AccountID != "A" {
		t.Fatalf("unexpected process: %+v", p)
	}

	entry := lastActivity(t, store, "process.create")
	if entry.ActorID != "member-a" || entry.AccountID != "A" || entry.EntityID != p.ID {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	// Cross-tenant creation is denied before any insert.
	if _, err := svc.CreateProcess(as("member@firm-b.example"), CreateProcessRequest{
		AccountID: "A",
		ClientID:  "c1",
		Number:    "0001",
		Subject:   "x",
	}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(store.processes) != 1 {
		t.Fatalf("denied creation must not insert, have %d", len(store.processes))
	}
}

func TestCreateProcessRejectsForeignClient(t *testing.T) {
	store := seededStore()
	store.clients["c2"] = Client{ID: "c2", AccountID: "B", Name: "Other"}
	svc := newTestService(t, store)

	_, err := svc.CreateProcess(as("member@firm-a.example"), CreateProcessRequest{
		AccountID: "A",
		ClientID:  "c2",
		Number:    "0002",
		Subject:   "x",
	})
	if !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign client, got %v", err)
	}
}

func TestGetProcessScoping(t *testing.T) {
	store := seededStore()
	store.processes["p1"] = Process{ID: "p1", AccountID: "A", Number: "1", Subject: "s"}
	svc := newTestService(t, store)

	if _, err := svc.GetProcess(as("member@firm-a.example"), "p1"); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetProcess(as("member@firm-b.example"), "p1"); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetProcess(as("root@praxis.example"), "p1"); err != nil {
		t.Fatalf("super read failed: %v", err)
	}
	if _, err := svc.GetProcess(as("member@firm-a.example"), "missing"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProcessRequiresAccountAdmin(t *testing.T) {
	store := seededStore()
	store.processes["p1"] = Process{ID: "p1", AccountID: "A", Number: "1", Subject: "s"}
	svc := newTestService(t, store)

	if err := svc.DeleteProcess(as("member@firm-a.example"), "p1"); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("member must not delete, got %v", err)
	}
	if err := svc.DeleteProcess(as("admin@firm-a.example"), "p1"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, ok := store.processes["p1"]; ok {
		t.Fatal("process not deleted")
	}
}

func TestCreateProductQuota(t *testing.T) {
	store := seededStore() // A allows 1 product
	svc := newTestService(t, store)
	ctx := as("admin@firm-a.example")

	if _, err := svc.CreateProduct(ctx, CreateProductRequest{AccountID: "A", Name: "Retainer"}); err != nil {
		t.Fatalf("first product: %v", err)
	}

	_, err := svc.CreateProduct(ctx, CreateProductRequest{AccountID: "A", Name: "Consultation"})
	if !errors.Is(err, authz.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	var qe *authz.QuotaError
	if !errors.As(err, &qe) || qe.Limit != 1 {
		t.Fatalf("expected limit 1 in quota error, got %+v", qe)
	}
	if len(store.products) != 1 {
		t.Fatalf("over-quota insert happened: %d products", len(store.products))
	}
}

func TestCreateUser(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, store)

	// Members cannot provision users.
	if _, err := svc.CreateUser(as("member@firm-a.example"), CreateUserRequest{
		AccountID: "A", Email: "new@firm-a.example", Password: "s3cret", Role: "member",
	}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}

	// Tenant admins cannot grant the super role.
	if _, err := svc.CreateUser(as("admin@firm-a.example"), CreateUserRequest{
		AccountID: "A", Email: "new@firm-a.example", Password: "s3cret", Role: "super_admin",
	}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for super grant, got %v", err)
	}

	u, err := svc.CreateUser(as("admin@firm-a.example"), CreateUserRequest{
		AccountID: "A", Email: "New@Firm-A.example", Password: "s3cret", Role: "member",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "new@firm-a.example" || u.AccountID != "A" || !u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Account A allows 3 users and now has 3: the next provisioning fails.
	_, err = svc.CreateUser(as("admin@firm-a.example"), CreateUserRequest{
		AccountID: "A", Email: "fourth@firm-a.example", Password: "s3cret", Role: "member",
	})
	if !errors.Is(err, authz.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded at max_users, got %v", err)
	}
}

func TestTribunalOperations(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, store)

	// Only the super role mutates the registry.
	if _, err := svc.CreateTribunal(as("admin@firm-a.example"), CreateTribunalRequest{
		Name: "2nd Civil Court", Jurisdiction: "state",
	}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for tenant admin, got %v", err)
	}

	trib, err := svc.CreateTribunal(as("root@praxis.example"), CreateTribunalRequest{
		Name: "2nd Civil Court", Jurisdiction: "state", Region: "SP",
	})
	if err != nil {
		t.Fatalf("CreateTribunal: %v", err)
	}

	// Reads are open to any authenticated caller, across tenants.
	got, err := svc.GetTribunal(as("member@firm-b.example"), trib.ID)
	if err != nil {
		t.Fatalf("GetTribunal: %v", err)
	}
	if got.Name != "2nd Civil Court" {
		t.Fatalf("unexpected tribunal: %+v", got)
	}
	if _, err := svc.ListTribunals(context.Background()); !errors.Is(err, authz.ErrUnauthenticated) {
		t.Fatalf("anonymous read must fail, got %v", err)
	}
}

func TestDeadlineFollowsProcessOwnership(t *testing.T) {
	store := seededStore()
	store.processes["p1"] = Process{ID: "p1", AccountID: "A", Number: "1", Subject: "s"}
	svc := newTestService(t, store)

	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	d, err := svc.CreateDeadline(as("member@firm-a.example"), CreateDeadlineRequest{
		ProcessID: "p1", Title: "File answer", DueAt: due,
	})
	if err != nil {
		t.Fatalf("CreateDeadline: %v", err)
	}
	if d.AccountID != "A" || d.ProcessID != "p1" {
		t.Fatalf("deadline must inherit the process scope: %+v", d)
	}

	if _, err := svc.CreateDeadline(as("member@firm-b.example"), CreateDeadlineRequest{
		ProcessID: "p1", Title: "x", DueAt: due,
	}); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	done, err := svc.CompleteDeadline(as("member@firm-a.example"), d.ID)
	if err != nil {
		t.Fatalf("CompleteDeadline: %v", err)
	}
	if !done.Done {
		t.Fatal("deadline not marked done")
	}
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	store := seededStore()
	store.activityErr = errors.New("activity log unavailable")
	svc := newTestService(t, store)

	c, err := svc.CreateClient(as("admin@firm-a.example"), CreateClientRequest{
		AccountID: "A", Name: "Beta LLC",
	})
	if err != nil {
		t.Fatalf("mutation must succeed despite audit failure: %v", err)
	}
	if _, ok := store.clients[c.ID]; !ok {
		t.Fatal("client not persisted")
	}
	if len(store.activity) != 0 {
		t.Fatal("no activity should have been recorded")
	}
}

func TestCreateClientRateLimited(t *testing.T) {
	store := seededStore()
	svc := newTestService(t, store)
	ctx := as("admin@firm-a.example")

	for i := 0; i < createMaxPerWindow; i++ {
		if _, err := svc.CreateClient(ctx, CreateClientRequest{
			AccountID: "A", Name: fmt.Sprintf("Client %d", i),
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	_, err := svc.CreateClient(ctx, CreateClientRequest{AccountID: "A", Name: "One more"})
	if !errors.Is(err, authz.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
