package authz

import (
	"errors"
	"fmt"
)

// Guard failures wrap exactly one of these kinds. Infrastructure errors from
// the persistence collaborator propagate untouched.
var (
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	ErrNotFound        = errors.New("authz: not found")
	ErrForbidden       = errors.New("authz: forbidden")
	ErrQuotaExceeded   = errors.New("authz: quota exceeded")
	ErrRateLimited     = errors.New("authz: rate limited")
	ErrInvalidInput    = errors.New("authz: invalid input")
	ErrConflict        = errors.New("authz: conflict")
)

// Scoping denials share one message so callers cannot distinguish a missing
// target from an out-of-scope one.
const accessDeniedMessage = "access denied"

func errAccessDenied() error {
	return fmt.Errorf("%w: %s", ErrForbidden, accessDeniedMessage)
}

// QuotaError reports a reached account limit. It matches ErrQuotaExceeded
// under errors.Is and carries the limit for user-facing rendering.
type QuotaError struct {
	Kind  QuotaKind
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("account limit of %d %s reached", e.Limit, e.Kind)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
