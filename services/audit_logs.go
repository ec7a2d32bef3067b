package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
)

type (
	AuditLog struct {
		ID         uuid.UUID        `column:"id" json:"id"`
		ActorID    *uuid.UUID       `column:"actor_id" json:"actorId"`
		Action     string           `column:"action" json:"action"`
		EntityType string           `column:"entity_type" json:"entityType"`
		EntityID   *string          `column:"entity_id" json:"entityId"`
		Details    *json.RawMessage `column:"details" json:"details"`
		CreatedAt  time.Time        `column:"created_at" json:"createdAt"`
	}

	NewAuditLog struct {
		ActorID    *uuid.UUID       `column:"actor_id"`
		Action     string           `column:"action"`
		EntityType string           `column:"entity_type"`
		EntityID   *string          `column:"entity_id"`
		Details    *json.RawMessage `column:"details"`
	}

	// AuditLogService appends to and reads the audit trail. Entries are
	// never patched; the Values patch type only satisfies the accessor.
	AuditLogService struct {
		*psql.Mutable[AuditLog, NewAuditLog, psql.Values]
	}
)

func newAuditLogService(ex *psql.Executor) *AuditLogService {
	return &AuditLogService{psql.NewMutable[AuditLog, NewAuditLog, psql.Values](ex, string(AuditLogs))}
}

// Record appends an entry. details is marshalled to JSON; nil leaves the
// column to its default.
func (s *AuditLogService) Record(ctx context.Context, actorID *uuid.UUID, action string, entity Entity, entityID string, details interface{}) (*AuditLog, error) {
	in := NewAuditLog{ActorID: actorID, Action: action, EntityType: string(entity)}
	if entityID != "" {
		in.EntityID = &entityID
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return nil, err
		}
		raw := json.RawMessage(b)
		in.Details = &raw
	}
	return s.Create(ctx, in)
}

// ListByActor lists entries of one actor, newest first unless q orders
// otherwise.
func (s *AuditLogService) ListByActor(ctx context.Context, actorID uuid.UUID, q psql.Query) ([]AuditLog, error) {
	return s.FindMany(ctx, ordered(scope(q, psql.Where{"actor_id": actorID}), "created_at", psql.Desc))
}

// ListByEntity lists entries about one row, newest first.
func (s *AuditLogService) ListByEntity(ctx context.Context, entity Entity, entityID string, q psql.Query) ([]AuditLog, error) {
	return s.FindMany(ctx, ordered(scope(q, psql.Where{"entity_type": string(entity), "entity_id": entityID}), "created_at", psql.Desc))
}
