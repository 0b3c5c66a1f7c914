package authz

import (
	"context"
	"fmt"
)

// RequireWithinQuota checks the account's creation limit for the given
// resource kind before an insert. The count and the caller's subsequent
// insert are not one atomic step: concurrent creators can all pass the check
// and overshoot the nominal limit by up to the concurrency minus one. This
// is an accepted best-effort bound, not a hard invariant.
func (g *Guard) RequireWithinQuota(ctx context.Context, accountID string, kind QuotaKind) error {
	account, err := g.store.FindAccount(ctx, accountID)
	if err != nil {
		return err
	}

	var count, limit int
	switch kind {
	case QuotaUsers:
		limit = account.MaxUsers
		count, err = g.store.CountUsers(ctx, accountID)
	case QuotaProducts:
		limit = account.MaxProducts
		count, err = g.store.CountProducts(ctx, accountID)
	default:
		return fmt.Errorf("%w: unknown quota kind %q", ErrInvalidInput, kind)
	}
	if err != nil {
		return err
	}
	if count >= limit {
		return &QuotaError{Kind: kind, Limit: limit}
	}
	return nil
}
