package authz

import "context"

// LookupFunc resolves a resource of kind R by its identifier. Absent
// resources are reported with ErrNotFound.
type LookupFunc[R any] func(ctx context.Context, id string) (R, error)

// RequireResourceAccess is the one parametric ownership guard: it resolves
// the resource, then delegates to account scoping with the projected owning
// account. Existence is resolved before scoping, but a resource owned by a
// foreign account is still denied even though it exists.
func RequireResourceAccess[R any](ctx context.Context, g *Guard, caller User, id string, lookup LookupFunc[R], ownerOf func(R) string) (R, error) {
	var zero R
	resource, err := lookup(ctx, id)
	if err != nil {
		return zero, err
	}
	if _, err := g.RequireAccountAccess(ctx, caller, ownerOf(resource)); err != nil {
		return zero, err
	}
	return resource, nil
}
