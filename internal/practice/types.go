package practice

import "time"

// Process is a legal case handled for a client. Scoped to the owning
// account.
type Process struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	ClientID   string    `json:"client_id"`
	TribunalID string    `json:"tribunal_id,omitempty"`
	Number     string    `json:"number"`
	Subject    string    `json:"subject"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Process statuses. Free-form beyond these would be rejected on write.
const (
	ProcessStatusActive   = "active"
	ProcessStatusArchived = "archived"
)

// Client is a represented party, scoped to the owning account.
type Client struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deadline is a dated obligation attached to a process.
type Deadline struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	ProcessID string    `json:"process_id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a billable service offering, scoped to the owning account and
// subject to the account's product quota.
type Product struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tribunal is a court registry entry. Tribunals are global reference data:
// they carry no account id and are exempt from account scoping. Only the
// super role mutates them.
type Tribunal struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Jurisdiction string    `json:"jurisdiction"`
	Region       string    `json:"region,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProcessUpdate patches mutable process fields.
type ProcessUpdate struct {
	Subject    *string
	Status     *string
	TribunalID *string
}
