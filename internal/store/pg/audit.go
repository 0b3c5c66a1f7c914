package pg

import (
	"context"
	"encoding/json"
	"errors"

	"praxis.legal/internal/audit"
	"praxis.legal/internal/authz"
)

var _ audit.Store = (*Store)(nil)

// AppendActivity inserts one activity entry. Metadata is stored as jsonb;
// a nil map becomes a null column.
func (s *Store) AppendActivity(ctx context.Context, entry authz.ActivityEntry) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	var metadata any
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = raw
	}
	_, err := s.db.ExecContext(ctx, `
		insert into activity_log (id, action, entity_type, entity_id, actor_id, actor_email, actor_role, account_id, metadata, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.ActorID, entry.ActorEmail,
		string(entry.ActorRole), nullIfEmpty(entry.AccountID), metadata, entry.CreatedAt)
	return err
}
