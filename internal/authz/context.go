package authz

import "context"

type identityContextKey struct{}
type callerContextKey struct{}
type accountContextKey struct{}

// ContextWithIdentity attaches the verified identity to the context. The
// transport layer calls this after token validation; the resolver reads it.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the verified identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || v.Email == "" {
		return Identity{}, false
	}
	return v, true
}

// ContextWithCaller attaches the resolved caller for downstream handlers.
func ContextWithCaller(ctx context.Context, caller User) context.Context {
	return context.WithValue(ctx, callerContextKey{}, &caller)
}

// CallerFromContext extracts the resolved caller placed by a guard wrapper.
func CallerFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	v, ok := ctx.Value(callerContextKey{}).(*User)
	if !ok || v == nil {
		return User{}, false
	}
	return *v, true
}

// ContextWithAccount attaches the resolved target account.
func ContextWithAccount(ctx context.Context, account Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, &account)
}

// AccountFromContext extracts the resolved account placed by a guard wrapper.
func AccountFromContext(ctx context.Context) (Account, bool) {
	if ctx == nil {
		return Account{}, false
	}
	v, ok := ctx.Value(accountContextKey{}).(*Account)
	if !ok || v == nil {
		return Account{}, false
	}
	return *v, true
}
