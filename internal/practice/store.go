package practice

import (
	"context"

	"praxis.legal/internal/authz"
)

// Store is the persistence surface for practice records. Absent rows are
// signalled with authz.ErrNotFound; list operations query by the accountID
// index. Any other error is infrastructure failure and propagates as-is.
type Store interface {
	InsertProcess(ctx context.Context, p Process) error
	FindProcess(ctx context.Context, id string) (Process, error)
	ListProcesses(ctx context.Context, accountID string) ([]Process, error)
	UpdateProcess(ctx context.Context, id string, upd ProcessUpdate) (Process, error)
	DeleteProcess(ctx context.Context, id string) error

	InsertClient(ctx context.Context, c Client) error
	FindClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, accountID string) ([]Client, error)

	InsertDeadline(ctx context.Context, d Deadline) error
	FindDeadline(ctx context.Context, id string) (Deadline, error)
	ListDeadlines(ctx context.Context, accountID string) ([]Deadline, error)
	MarkDeadlineDone(ctx context.Context, id string) (Deadline, error)

	InsertProduct(ctx context.Context, p Product) error
	ListProducts(ctx context.Context, accountID string) ([]Product, error)

	InsertTribunal(ctx context.Context, t Tribunal) error
	FindTribunal(ctx context.Context, id string) (Tribunal, error)
	ListTribunals(ctx context.Context) ([]Tribunal, error)

	// User provisioning; the password hash is produced by the service.
	InsertUser(ctx context.Context, u authz.User, passwordHash string) error
}
