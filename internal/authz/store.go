package authz

import "context"

// Store describes the persistence operations the guards depend on. Absent
// rows are signalled with ErrNotFound; any other error is treated as an
// infrastructure failure and propagated untouched.
type Store interface {
	FindUser(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindAccount(ctx context.Context, id string) (Account, error)

	// Live-row counts by the accountID index, consumed by the quota
	// validator. These are full index scans, not maintained counters.
	CountUsers(ctx context.Context, accountID string) (int, error)
	CountProducts(ctx context.Context, accountID string) (int, error)
}
