package services

import (
	"context"
	"encoding/json"

	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

var errAuditWrite = serrors.Integrity("AUDIT_WRITE_FAILED", "audit log write failed")

// AuditService records data changes. Record must run inside the mutating
// transaction: an audit entry must never exist without its data change and
// vice versa. A failed write aborts the whole transaction.
type AuditService struct {
	repo auditlog.Repository
}

func NewAuditService(repo auditlog.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Record writes exactly one audit entry for the change to (table, recordID).
// oldValue and newValue are the row representations before and after; either
// may be nil for inserts and deletes respectively.
func (s *AuditService) Record(ctx context.Context, table string, recordID int64, action auditlog.Action, oldValue, newValue any) error {
	actorID, err := composables.UseActorID(ctx)
	if err != nil {
		return err
	}

	oldRaw, err := marshalSnapshot(oldValue)
	if err != nil {
		return errAuditWrite.WithCause(err)
	}
	newRaw, err := marshalSnapshot(newValue)
	if err != nil {
		return errAuditWrite.WithCause(err)
	}

	var changes json.RawMessage
	if oldRaw != nil && newRaw != nil {
		patch, err := jsondiff.CompareJSON(oldRaw, newRaw)
		if err != nil {
			return errAuditWrite.WithCause(err)
		}
		if patch != nil {
			changes, err = json.Marshal(patch)
			if err != nil {
				return errAuditWrite.WithCause(err)
			}
		}
	}

	entry := &auditlog.AuditLog{
		TableName: table,
		RecordID:  recordID,
		Action:    action,
		OldValues: oldRaw,
		NewValues: newRaw,
		Changes:   changes,
		ActorID:   actorID,
		RequestID: composables.UseRequestID(ctx),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return errAuditWrite.WithCause(err)
	}
	return nil
}

func (s *AuditService) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*auditlog.AuditLog, error) {
		return s.repo.List(txCtx, params)
	})
}

func (s *AuditService) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx, params)
	})
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
