// Package audit appends activity-log entries as a side channel of every
// mutating operation.
package audit

import (
	"context"
	"time"

	"praxis.legal/internal/authz"
	"praxis.legal/internal/ids"
	"praxis.legal/internal/obs"
)

// Store persists append-only activity entries.
type Store interface {
	AppendActivity(ctx context.Context, entry authz.ActivityEntry) error
}

// Recorder writes activity entries. Its defining contract is that Record
// never propagates a failure to the caller: a broken audit trail must not
// abort or mask a successful business mutation. Failures are visible only
// through the operational log and the audit failure counter.
type Recorder struct {
	guard *authz.Guard
	store Store
	now   func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(guard *authz.Guard, store Store) *Recorder {
	return &Recorder{guard: guard, store: store, now: time.Now}
}

// Record appends one immutable entry for the given action. The acting caller
// is re-resolved from the context and snapshotted (id, email, role, account)
// so the entry stays meaningful if the actor is later renamed or disabled.
// The method signature returns nothing: there is no error for the caller to
// handle, by contract.
func (r *Recorder) Record(ctx context.Context, action, entityType, entityID string, metadata map[string]string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(action, "panic in audit record")
		}
	}()

	caller, err := r.guard.ResolveCaller(ctx)
	if err != nil {
		r.fail(action, err.Error())
		return
	}

	entry := authz.ActivityEntry{
		ID:         ids.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    caller.ID,
		ActorEmail: caller.Email,
		ActorRole:  caller.Role,
		AccountID:  caller.AccountID,
		CreatedAt:  r.now().UTC(),
	}
	if len(metadata) > 0 {
		entry.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			entry.Metadata[k] = v
		}
	}

	// The append outlives the request's own cancellation: a caller whose
	// operation already committed should still leave a trail.
	if err := r.store.AppendActivity(context.WithoutCancel(ctx), entry); err != nil {
		r.fail(action, err.Error())
	}
}

func (r *Recorder) fail(action, reason string) {
	obs.ObserveAuditFailure()
	obs.Error("audit append failed", map[string]any{
		"action": action,
		"error":  reason,
	})
}
