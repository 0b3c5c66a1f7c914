package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"praxis.legal/internal/obs"
)

// Guard evaluates access decisions against the backing store. It holds no
// per-call state; every decision is a pure function of the caller, the
// target and the current store contents.
type Guard struct {
	store Store
}

// NewGuard constructs a Guard.
func NewGuard(store Store) (*Guard, error) {
	if store == nil {
		return nil, errors.New("authz: store is required")
	}
	return &Guard{store: store}, nil
}

// ResolveCaller turns the verified identity on the context into the internal
// user record. It is the first step of every other guard: Unauthenticated
// without an identity, NotFound without a matching user, Forbidden for a
// disabled one. No side effects.
func (g *Guard) ResolveCaller(ctx context.Context) (User, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return User{}, fmt.Errorf("%w: no verified identity", ErrUnauthenticated)
	}
	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if email == "" {
		return User{}, fmt.Errorf("%w: no verified identity", ErrUnauthenticated)
	}
	user, err := g.store.FindUserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if !user.IsActive {
		return User{}, errAccessDenied()
	}
	return user, nil
}

// RequireAccountAccess decides whether the caller may touch resources owned
// by the given account. The super role bypasses scoping unconditionally;
// everyone else must belong to the account, and the account itself must be
// active (an inactive tenant blocks its own members too). Returns the caller
// for chaining.
func (g *Guard) RequireAccountAccess(ctx context.Context, caller User, accountID string) (User, error) {
	if caller.Role.IsSuper() {
		obs.ObserveDecision("account_access", true)
		return caller, nil
	}
	// An unprovisioned caller has an empty AccountID and fails the equality
	// check against every concrete target.
	if accountID == "" || caller.AccountID != accountID {
		obs.ObserveDecision("account_access", false)
		return User{}, errAccessDenied()
	}
	if err := g.requireActiveAccount(ctx, accountID); err != nil {
		obs.ObserveDecision("account_access", false)
		return User{}, err
	}
	obs.ObserveDecision("account_access", true)
	return caller, nil
}

// RequireAccountAdmin allows the super role through, and otherwise requires
// both that the target account (when given) is the caller's own and that the
// caller holds at least the admin role.
func (g *Guard) RequireAccountAdmin(ctx context.Context, caller User, accountID string) (User, error) {
	if caller.Role.IsSuper() {
		obs.ObserveDecision("account_admin", true)
		return caller, nil
	}
	if accountID != "" && caller.AccountID != accountID {
		obs.ObserveDecision("account_admin", false)
		return User{}, errAccessDenied()
	}
	if caller.AccountID == "" || !caller.Role.IsAdmin() {
		obs.ObserveDecision("account_admin", false)
		return User{}, errAccessDenied()
	}
	if err := g.requireActiveAccount(ctx, caller.AccountID); err != nil {
		obs.ObserveDecision("account_admin", false)
		return User{}, err
	}
	obs.ObserveDecision("account_admin", true)
	return caller, nil
}

// requireActiveAccount loads the account and denies unless it is active. A
// missing account yields the same denial as a scope mismatch so the response
// does not reveal whether the account exists.
func (g *Guard) requireActiveAccount(ctx context.Context, accountID string) error {
	account, err := g.store.FindAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errAccessDenied()
		}
		return err
	}
	if !account.IsActive {
		return errAccessDenied()
	}
	return nil
}
