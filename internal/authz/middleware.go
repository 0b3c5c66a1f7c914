package authz

import (
	"context"
	"fmt"
	"time"

	"praxis.legal/internal/obs"
	"praxis.legal/internal/ratelimit"
)

// HandlerFunc is the shape of a business operation the guard wrappers
// compose around. Wrappers run strictly before the handler touches any
// persistence and short-circuit on the first failing guard.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// WithRole resolves the caller, enforces a minimum role and injects the
// caller into the handler context.
func WithRole[Req, Resp any](g *Guard, min Role, next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
	return func(ctx context.Context, req Req) (Resp, error) {
		var zero Resp
		caller, err := g.ResolveCaller(ctx)
		if err != nil {
			return zero, err
		}
		if err := RequireRoleAtLeast(caller.Role, min); err != nil {
			obs.ObserveDecision("role", false)
			return zero, err
		}
		obs.ObserveDecision("role", true)
		return next(ContextWithCaller(ctx, caller), req)
	}
}

// WithSuperAdmin restricts the handler to the global super role.
func WithSuperAdmin[Req, Resp any](g *Guard, next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
	return WithRole(g, RoleSuperAdmin, next)
}

// WithAccountAccess scopes the handler to the account selected from the
// request and injects both the resolved caller and, when a concrete target
// is named, the resolved account.
func WithAccountAccess[Req, Resp any](g *Guard, accountID func(Req) string, next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
	return func(ctx context.Context, req Req) (Resp, error) {
		var zero Resp
		caller, err := g.ResolveCaller(ctx)
		if err != nil {
			return zero, err
		}
		target := accountID(req)
		if _, err := g.RequireAccountAccess(ctx, caller, target); err != nil {
			return zero, err
		}
		ctx = ContextWithCaller(ctx, caller)
		if target != "" {
			account, err := g.store.FindAccount(ctx, target)
			if err != nil {
				// Scoping already passed; only the super role reaches a
				// missing account, and it gets the store's verdict as-is.
				return zero, err
			}
			ctx = ContextWithAccount(ctx, account)
		}
		return next(ctx, req)
	}
}

// WithAccountAdmin is WithAccountAccess with the admin requirement on top.
func WithAccountAdmin[Req, Resp any](g *Guard, accountID func(Req) string, next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
	return func(ctx context.Context, req Req) (Resp, error) {
		var zero Resp
		caller, err := g.ResolveCaller(ctx)
		if err != nil {
			return zero, err
		}
		target := accountID(req)
		if _, err := g.RequireAccountAdmin(ctx, caller, target); err != nil {
			return zero, err
		}
		ctx = ContextWithCaller(ctx, caller)
		if target != "" {
			account, err := g.store.FindAccount(ctx, target)
			if err != nil {
				return zero, err
			}
			ctx = ContextWithAccount(ctx, account)
		}
		return next(ctx, req)
	}
}

// WithRateLimit rejects abusive callers before any identity resolution cost
// is incurred; it must therefore be the outermost wrapper. The key function
// sees only the raw context and request (typically a transport-derived
// client key plus the operation name).
func WithRateLimit[Req, Resp any](l *ratelimit.Limiter, operation string, max int, window time.Duration, key func(ctx context.Context, req Req) string, next HandlerFunc[Req, Resp]) HandlerFunc[Req, Resp] {
	return func(ctx context.Context, req Req) (Resp, error) {
		var zero Resp
		if !l.Allow(operation+":"+key(ctx, req), max, window) {
			obs.ObserveRateLimited(operation)
			return zero, fmt.Errorf("%w: too many requests", ErrRateLimited)
		}
		return next(ctx, req)
	}
}
