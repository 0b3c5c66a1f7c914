package authz

import "time"

// Identity is the verified caller claim set handed over by the transport
// layer. Only the email claim is consumed by this core; it is never
// persisted here.
type Identity struct {
	Email string
}

// User is an authenticated actor. AccountID is empty while the user is
// unprovisioned; users are soft-disabled via IsActive, never hard-deleted.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	AccountID string    `json:"account_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is the tenant boundary. It owns users and every scoped resource,
// and carries the per-kind creation limits enforced by the quota validator.
type Account struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	MaxUsers    int       `json:"max_users"`
	MaxProducts int       `json:"max_products"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuotaKind selects which account limit a quota check compares against.
// The kind-to-limit mapping is compile-time, see Guard.RequireWithinQuota.
type QuotaKind string

const (
	QuotaUsers    QuotaKind = "users"
	QuotaProducts QuotaKind = "products"
)

// ActivityEntry is one append-only audit record. Actor fields are a snapshot
// taken at the time of the action, not a live reference.
type ActivityEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	ActorID    string            `json:"actor_id"`
	ActorEmail string            `json:"actor_email"`
	ActorRole  Role              `json:"actor_role"`
	AccountID  string            `json:"account_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
