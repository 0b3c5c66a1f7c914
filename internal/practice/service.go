// Package practice implements the tenant-scoped business operations of the
// platform: processes, clients, deadlines, products and the global tribunal
// registry. Every entry point resolves the caller, applies a guard, runs the
// store operation and, for mutations, records an activity entry.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"praxis.legal/internal/audit"
	"praxis.legal/internal/authz"
	"praxis.legal/internal/ids"
	"praxis.legal/internal/ratelimit"
)

// Creation endpoints are the abuse-prone surface; they share one
// fixed-window budget per caller identity.
const (
	createMaxPerWindow = 30
	createWindow       = time.Minute
)

// Service exposes the practice operations. All authorization flows through
// the injected guard; the service itself never mutates users or accounts
// outside the provisioning path.
type Service struct {
	guard *authz.Guard
	store Store
	audit *audit.Recorder
	now   func() time.Time

	createProcess authz.HandlerFunc[CreateProcessRequest, Process]
	createClient  authz.HandlerFunc[CreateClientRequest, Client]
	createProduct authz.HandlerFunc[CreateProductRequest, Product]
	createUser    authz.HandlerFunc[CreateUserRequest, authz.User]
	createTrib    authz.HandlerFunc[CreateTribunalRequest, Tribunal]
}

// CreateProcessRequest opens a new case for a client of the account.
type CreateProcessRequest struct {
	AccountID  string
	ClientID   string
	TribunalID string
	Number     string
	Subject    string
}

// CreateClientRequest registers a represented party.
type CreateClientRequest struct {
	AccountID string
	Name      string
	Email     string
	Phone     string
}

// CreateDeadlineRequest attaches a dated obligation to a process.
type CreateDeadlineRequest struct {
	ProcessID string
	Title     string
	DueAt     time.Time
}

// CreateProductRequest adds a billable offering, subject to the account's
// product quota.
type CreateProductRequest struct {
	AccountID   string
	Name        string
	Description string
}

// CreateUserRequest provisions a user into an account, subject to the
// account's user quota.
type CreateUserRequest struct {
	AccountID string
	Email     string
	Password  string
	Role      string
}

// CreateTribunalRequest registers a court in the global registry.
type CreateTribunalRequest struct {
	Name         string
	Jurisdiction string
	Region       string
}

// NewService wires the guard middleware around the business handlers. The
// limiter runs outermost on creation endpoints so abusive callers are
// rejected before any identity resolution cost is incurred.
func NewService(guard *authz.Guard, store Store, recorder *audit.Recorder, limiter *ratelimit.Limiter) (*Service, error) {
	if guard == nil || store == nil || recorder == nil || limiter == nil {
		return nil, errors.New("practice: guard, store, audit recorder and limiter are required")
	}
	s := &Service{guard: guard, store: store, audit: recorder, now: time.Now}

	s.createProcess = authz.WithRateLimit(limiter, "process.create", createMaxPerWindow, createWindow, rateKey[CreateProcessRequest],
		authz.WithAccountAccess(guard, func(r CreateProcessRequest) string { return r.AccountID }, s.doCreateProcess))

	s.createClient = authz.WithRateLimit(limiter, "client.create", createMaxPerWindow, createWindow, rateKey[CreateClientRequest],
		authz.WithAccountAccess(guard, func(r CreateClientRequest) string { return r.AccountID }, s.doCreateClient))

	s.createProduct = authz.WithRateLimit(limiter, "product.create", createMaxPerWindow, createWindow, rateKey[CreateProductRequest],
		authz.WithAccountAccess(guard, func(r CreateProductRequest) string { return r.AccountID }, s.doCreateProduct))

	s.createUser = authz.WithRateLimit(limiter, "user.create", createMaxPerWindow, createWindow, rateKey[CreateUserRequest],
		authz.WithAccountAdmin(guard, func(r CreateUserRequest) string { return r.AccountID }, s.doCreateUser))

	s.createTrib = authz.WithSuperAdmin(guard, s.doCreateTribunal)

	return s, nil
}

// rateKey buckets creation attempts by the unverified identity claim. The
// claim is read straight off the context, so no store round-trip happens for
// a caller that is already over budget.
func rateKey[Req any](ctx context.Context, _ Req) string {
	if identity, ok := authz.IdentityFromContext(ctx); ok {
		return identity.Email
	}
	return "anonymous"
}

// --- processes ---

func (s *Service) CreateProcess(ctx context.Context, req CreateProcessRequest) (Process, error) {
	return s.createProcess(ctx, req)
}

func (s *Service) doCreateProcess(ctx context.Context, req CreateProcessRequest) (Process, error) {
	caller, _ := authz.CallerFromContext(ctx)

	req.Number = strings.TrimSpace(req.Number)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Number == "" || req.Subject == "" {
		return Process{}, fmt.Errorf("%w: number and subject are required", authz.ErrInvalidInput)
	}

	// The client must exist and belong to the same account.
	client, err := authz.RequireResourceAccess(ctx, s.guard, caller, strings.TrimSpace(req.ClientID), s.store.FindClient, clientOwner)
	if err != nil {
		return Process{}, err
	}
	if client.AccountID != req.AccountID {
		return Process{}, fmt.Errorf("%w: client belongs to another account", authz.ErrInvalidInput)
	}

	req.TribunalID = strings.TrimSpace(req.TribunalID)
	if req.TribunalID != "" {
		if _, err := s.store.FindTribunal(ctx, req.TribunalID); err != nil {
			return Process{}, err
		}
	}

	now := s.now().UTC()
	p := Process{
		ID:         ids.New(),
		AccountID:  req.AccountID,
		ClientID:   client.ID,
		TribunalID: req.TribunalID,
		Number:     req.Number,
		Subject:    req.Subject,
		Status:     ProcessStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.InsertProcess(ctx, p); err != nil {
		return Process{}, err
	}
	s.audit.Record(ctx, "process.create", "process", p.ID, map[string]string{
		"number":    p.Number,
		"client_id": p.ClientID,
	})
	return p, nil
}

func (s *Service) GetProcess(ctx context.Context, id string) (Process, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return Process{}, err
	}
	return authz.RequireResourceAccess(ctx, s.guard, caller, id, s.store.FindProcess, processOwner)
}

func (s *Service) ListProcesses(ctx context.Context, accountID string) ([]Process, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireAccountAccess(ctx, caller, accountID); err != nil {
		return nil, err
	}
	return s.store.ListProcesses(ctx, accountID)
}

func (s *Service) UpdateProcess(ctx context.Context, id string, upd ProcessUpdate) (Process, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return Process{}, err
	}
	if _, err := authz.RequireResourceAccess(ctx, s.guard, caller, id, s.store.FindProcess, processOwner); err != nil {
		return Process{}, err
	}
	if upd.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*upd.Status))
		if status != ProcessStatusActive && status != ProcessStatusArchived {
			return Process{}, fmt.Errorf("%w: unsupported status %s", authz.ErrInvalidInput, status)
		}
		upd.Status = &status
	}
	if upd.Subject != nil {
		subject := strings.TrimSpace(*upd.Subject)
		if subject == "" {
			return Process{}, fmt.Errorf("%w: subject is required", authz.ErrInvalidInput)
		}
		upd.Subject = &subject
	}
	updated, err := s.store.UpdateProcess(ctx, id, upd)
	if err != nil {
		return Process{}, err
	}
	s.audit.Record(ctx, "process.update", "process", id, nil)
	return updated, nil
}

// DeleteProcess requires account-admin rights on the owning account, not
// just membership.
func (s *Service) DeleteProcess(ctx context.Context, id string) error {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return err
	}
	p, err := authz.RequireResourceAccess(ctx, s.guard, caller, id, s.store.FindProcess, processOwner)
	if err != nil {
		return err
	}
	if _, err := s.guard.RequireAccountAdmin(ctx, caller, p.AccountID); err != nil {
		return err
	}
	if err := s.store.DeleteProcess(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "process.delete", "process", id, map[string]string{"number": p.Number})
	return nil
}

// --- clients ---

func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (Client, error) {
	return s.createClient(ctx, req)
}

func (s *Service) doCreateClient(ctx context.Context, req CreateClientRequest) (Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Client{}, fmt.Errorf("%w: client name is required", authz.ErrInvalidInput)
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		return Client{}, fmt.Errorf("%w: valid email is required", authz.ErrInvalidInput)
	}

	now := s.now().UTC()
	c := Client{
		ID:        ids.New(),
		AccountID: req.AccountID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertClient(ctx, c); err != nil {
		return Client{}, err
	}
	s.audit.Record(ctx, "client.create", "client", c.ID, map[string]string{"name": c.Name})
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (Client, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return Client{}, err
	}
	return authz.RequireResourceAccess(ctx, s.guard, caller, id, s.store.FindClient, clientOwner)
}

func (s *Service) ListClients(ctx context.Context, accountID string) ([]Client, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireAccountAccess(ctx, caller, accountID); err != nil {
		return nil, err
	}
	return s.store.ListClients(ctx, accountID)
}

// --- deadlines ---

func (s *Service) CreateDeadline(ctx context.Context, req CreateDeadlineRequest) (Deadline, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return Deadline{}, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DueAt.IsZero() {
		return Deadline{}, fmt.Errorf("%w: title and due date are required", authz.ErrInvalidInput)
	}

	// Deadline ownership follows the process it belongs to.
	p, err := authz.RequireResourceAccess(ctx, s.guard, caller, strings.TrimSpace(req.ProcessID), s.store.FindProcess, processOwner)
	if err != nil {
		return Deadline{}, err
	}

	now := s.now().UTC()
	d := Deadline{
		ID:        ids.New(),
		AccountID: p.AccountID,
		ProcessID: p.ID,
		Title:     req.Title,
		DueAt:     req.DueAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertDeadline(ctx, d); err != nil {
		return Deadline{}, err
	}
	s.audit.Record(ctx, "deadline.create", "deadline", d.ID, map[string]string{"process_id": p.ID})
	return d, nil
}

func (s *Service) ListDeadlines(ctx context.Context, accountID string) ([]Deadline, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireAccountAccess(ctx, caller, accountID); err != nil {
		return nil, err
	}
	return s.store.ListDeadlines(ctx, accountID)
}

func (s *Service) CompleteDeadline(ctx context.Context, id string) (Deadline, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return Deadline{}, err
	}
	if _, err := authz.RequireResourceAccess(ctx, s.guard, caller, id, s.store.FindDeadline, deadlineOwner); err != nil {
		return Deadline{}, err
	}
	d, err := s.store.MarkDeadlineDone(ctx, id)
	if err != nil {
		return Deadline{}, err
	}
	s.audit.Record(ctx, "deadline.done", "deadline", id, nil)
	return d, nil
}

// --- products ---

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	return s.createProduct(ctx, req)
}

func (s *Service) doCreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Product{}, fmt.Errorf("%w: product name is required", authz.ErrInvalidInput)
	}

	// Advisory check before the insert; see Guard.RequireWithinQuota for the
	// concurrency caveat.
	if err := s.guard.RequireWithinQuota(ctx, req.AccountID, authz.QuotaProducts); err != nil {
		return Product{}, err
	}

	now := s.now().UTC()
	p := Product{
		ID:          ids.New(),
		AccountID:   req.AccountID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return Product{}, err
	}
	s.audit.Record(ctx, "product.create", "product", p.ID, map[string]string{"name": p.Name})
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, accountID string) ([]Product, error) {
	caller, err := s.guard.ResolveCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequireAccountAccess(ctx, caller, accountID); err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx, accountID)
}

// --- users ---

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (authz.User, error) {
	return s.createUser(ctx, req)
}

func (s *Service) doCreateUser(ctx context.Context, req CreateUserRequest) (authz.User, error) {
	caller, _ := authz.CallerFromContext(ctx)

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return authz.User{}, fmt.Errorf("%w: valid email is required", authz.ErrInvalidInput)
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		return authz.User{}, err
	}
	// Tenant admins provision tenant roles only.
	if role.IsSuper() && !caller.Role.IsSuper() {
		return authz.User{}, fmt.Errorf("%w: access denied", authz.ErrForbidden)
	}
	hash, err := authz.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return authz.User{}, fmt.Errorf("%w: password is required", authz.ErrInvalidInput)
	}

	if err := s.guard.RequireWithinQuota(ctx, req.AccountID, authz.QuotaUsers); err != nil {
		return authz.User{}, err
	}

	now := s.now().UTC()
	u := authz.User{
		ID:        ids.New(),
		Email:     email,
		Role:      role,
		AccountID: req.AccountID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertUser(ctx, u, hash); err != nil {
		return authz.User{}, err
	}
	s.audit.Record(ctx, "user.create", "user", u.ID, map[string]string{
		"email": u.Email,
		"role":  string(u.Role),
	})
	return u, nil
}

// --- tribunals ---

func (s *Service) CreateTribunal(ctx context.Context, req CreateTribunalRequest) (Tribunal, error) {
	return s.createTrib(ctx, req)
}

func (s *Service) doCreateTribunal(ctx context.Context, req CreateTribunalRequest) (Tribunal, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Jurisdiction = strings.TrimSpace(req.Jurisdiction)
	if req.Name == "" || req.Jurisdiction == "" {
		return Tribunal{}, fmt.Errorf("%w: name and jurisdiction are required", authz.ErrInvalidInput)
	}

	now := s.now().UTC()
	t := Tribunal{
		ID:           ids.New(),
		Name:         req.Name,
		Jurisdiction: req.Jurisdiction,
		Region:       strings.TrimSpace(req.Region),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertTribunal(ctx, t); err != nil {
		return Tribunal{}, err
	}
	s.audit.Record(ctx, "tribunal.create", "tribunal", t.ID, map[string]string{"name": t.Name})
	return t, nil
}

// Tribunal reads are open to any authenticated caller: the registry is
// global reference data.
func (s *Service) GetTribunal(ctx context.Context, id string) (Tribunal, error) {
	if _, err := s.guard.ResolveCaller(ctx); err != nil {
		return Tribunal{}, err
	}
	return s.store.FindTribunal(ctx, id)
}

func (s *Service) ListTribunals(ctx context.Context) ([]Tribunal, error) {
	if _, err := s.guard.ResolveCaller(ctx); err != nil {
		return nil, err
	}
	return s.store.ListTribunals(ctx)
}

// Owner projectors for the parametric ownership guard.
func processOwner(p Process) string   { return p.AccountID }
func clientOwner(c Client) string     { return c.AccountID }
func deadlineOwner(d Deadline) string { return d.AccountID }
