package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

type mockAuditRepo struct {
	entries []*auditlog.AuditLog
	err     error
}

func (m *mockAuditRepo) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	return m.entries, m.err
}

func (m *mockAuditRepo) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	return int64(len(m.entries)), m.err
}

func (m *mockAuditRepo) Create(ctx context.Context, log *auditlog.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, log)
	return nil
}

func actorCtx(actorID int64) context.Context {
	return composables.WithActorID(context.Background(), actorID)
}

func TestAuditService_Record_CapturesSnapshotsAndDiff(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo)

	type row struct {
		Status string `json:"status"`
		Days   int    `json:"days"`
	}

	err := svc.Record(actorCtx(7), "leave_applications", 42, auditlog.ActionUpdate,
		row{Status: "pending", Days: 3},
		row{Status: "approved", Days: 3},
	)
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, "leave_applications", entry.TableName)
	require.Equal(t, int64(42), entry.RecordID)
	require.Equal(t, auditlog.ActionUpdate, entry.Action)
	require.Equal(t, int64(7), entry.ActorID)
	require.JSONEq(t, `{"status":"pending","days":3}`, string(entry.OldValues))
	require.JSONEq(t, `{"status":"approved","days":3}`, string(entry.NewValues))
	require.Contains(t, string(entry.Changes), "/status")
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", entry.RequestID.String())
}

func TestAuditService_Record_InsertHasNoOldSnapshot(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo)

	err := svc.Record(actorCtx(1), "staff", 9, auditlog.ActionInsert, nil, map[string]string{"email": "a@b.c"})
	require.NoError(t, err)
	require.Nil(t, repo.entries[0].OldValues)
	require.NotNil(t, repo.entries[0].NewValues)
	require.Nil(t, repo.entries[0].Changes)
}

func TestAuditService_Record_FailureIsIntegrityFault(t *testing.T) {
	repo := &mockAuditRepo{err: errors.New("connection reset")}
	svc := NewAuditService(repo)

	err := svc.Record(actorCtx(1), "staff", 9, auditlog.ActionInsert, nil, map[string]string{})
	require.Error(t, err)
	require.Equal(t, serrors.KindIntegrity, serrors.KindOf(err))
	require.True(t, serrors.HasCode(err, "AUDIT_WRITE_FAILED"))
}

func TestAuditService_Record_RequiresActor(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{})

	err := svc.Record(context.Background(), "staff", 9, auditlog.ActionInsert, nil, map[string]string{})
	require.ErrorIs(t, err, composables.ErrNoActor)
}
