package auditlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AuditLog is one immutable record of a data change. OldValues and NewValues
// are full row snapshots; Changes is the field-level patch between them.
type AuditLog struct {
	ID        int64
	TableName string
	RecordID  int64
	Action    Action
	OldValues json.RawMessage
	NewValues json.RawMessage
	Changes   json.RawMessage
	ActorID   int64
	RequestID uuid.UUID
	CreatedAt time.Time
}

type FindParams struct {
	TableName string
	RecordID  *int64
	ActorID   *int64
	Action    Action
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*AuditLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, log *AuditLog) error
}
