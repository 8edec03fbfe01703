package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualification"
	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualtype"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/configuration"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

var testLedgerOpts = configuration.LedgerOptions{
	LockTimeout:    time.Second,
	RetryAttempts:  1,
	RetryBaseDelay: time.Millisecond,
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type noopTx struct{}

func (noopTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func testCtx() context.Context {
	ctx := composables.WithTx(context.Background(), noopTx{})
	return composables.WithActorID(ctx, 99)
}

type mockQualRepo struct {
	byID   map[int64]*qualification.Qualification
	nextID int64
}

func newMockQualRepo() *mockQualRepo {
	return &mockQualRepo{byID: map[int64]*qualification.Qualification{}, nextID: 1}
}

func (m *mockQualRepo) GetByID(ctx context.Context, id int64) (*qualification.Qualification, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *q
	return &clone, nil
}

func (m *mockQualRepo) GetByIDForUpdate(ctx context.Context, id int64) (*qualification.Qualification, error) {
	return m.GetByID(ctx, id)
}

func (m *mockQualRepo) ListByStaff(ctx context.Context, staffID int64) ([]*qualification.Qualification, error) {
	var out []*qualification.Qualification
	for id := int64(1); id < m.nextID; id++ {
		if q, ok := m.byID[id]; ok && q.StaffID == staffID {
			clone := *q
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockQualRepo) ExistsActive(ctx context.Context, staffID, typeID int64, name string) (bool, error) {
	for _, q := range m.byID {
		if q.StaffID == staffID && q.TypeID == typeID && q.Name == name && q.VerificationStatus.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockQualRepo) Create(ctx context.Context, q *qualification.Qualification) error {
	q.ID = m.nextID
	m.nextID++
	clone := *q
	m.byID[q.ID] = &clone
	return nil
}

func (m *mockQualRepo) Update(ctx context.Context, q *qualification.Qualification) error {
	if _, ok := m.byID[q.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *q
	m.byID[q.ID] = &clone
	return nil
}

func (m *mockQualRepo) EachExpiring(ctx context.Context, from, to time.Time, fn func(*qualification.Qualification) error) error {
	for id := int64(1); id < m.nextID; id++ {
		q, ok := m.byID[id]
		if !ok || q.VerificationStatus != qualification.StatusVerified {
			continue
		}
		if !q.ExpiresBetween(from, to) {
			continue
		}
		clone := *q
		if err := fn(&clone); err != nil {
			return err
		}
	}
	return nil
}

type mockTypeRepo struct {
	byID map[int64]qualtype.QualificationType
}

func (m *mockTypeRepo) List(ctx context.Context) ([]qualtype.QualificationType, error) {
	var out []qualtype.QualificationType
	for _, t := range m.byID {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTypeRepo) GetByID(ctx context.Context, id int64) (qualtype.QualificationType, error) {
	t, ok := m.byID[id]
	if !ok {
		return qualtype.QualificationType{}, pgx.ErrNoRows
	}
	return t, nil
}

type mockStaffDir struct {
	byID map[int64]staff.Staff
}

func (m *mockStaffDir) GetByID(ctx context.Context, id int64) (staff.Staff, error) {
	s, ok := m.byID[id]
	if !ok {
		return staff.Staff{}, pgx.ErrNoRows
	}
	return s, nil
}

type auditEntry struct {
	Table    string
	RecordID int64
	Action   auditlog.Action
}

type mockAudit struct {
	entries []auditEntry
}

func (m *mockAudit) Record(ctx context.Context, table string, recordID int64, action auditlog.Action, oldValue, newValue any) error {
	m.entries = append(m.entries, auditEntry{Table: table, RecordID: recordID, Action: action})
	return nil
}

type stubPublisher struct {
	published []interface{}
}

func (p *stubPublisher) Publish(args ...interface{})   { p.published = append(p.published, args...) }
func (p *stubPublisher) Subscribe(handler interface{}) {}
func (p *stubPublisher) Unsubscribe(h interface{})     {}
func (p *stubPublisher) Clear()                        {}
func (p *stubPublisher) SubscribersCount() int         { return 0 }

type qualFixture struct {
	svc   *QualificationService
	quals *mockQualRepo
	audit *mockAudit
}

func member(id int64) staff.Staff {
	return staff.Hydrate(
		id, "E-1", "a@clinic.test", "Ada", "Smith",
		staff.Placement{DepartmentID: 1, FacilityID: 1, RoleID: 1, RankID: 1},
		staff.StatusActive, nil, date(2020, time.January, 1), nil,
		time.Now(), time.Now(),
	)
}

func newQualFixture() *qualFixture {
	f := &qualFixture{
		quals: newMockQualRepo(),
		audit: &mockAudit{},
	}
	types := &mockTypeRepo{byID: map[int64]qualtype.QualificationType{
		1: {ID: 1, Code: "LICENSE", Name: "Professional License"},
	}}
	staffDir := &mockStaffDir{byID: map[int64]staff.Staff{1: member(1), 2: member(2)}}
	f.svc = NewQualificationService(f.quals, types, staffDir, f.audit, &stubPublisher{}, testLedgerOpts)
	return f
}

func expiry(t time.Time) *time.Time { return &t }

func TestQualificationService_Record(t *testing.T) {
	f := newQualFixture()

	qual, err := f.svc.Record(testCtx(), RecordInput{
		StaffID:   1,
		TypeID:    1,
		Name:      "RN License",
		IssuedOn:  date(2024, time.January, 15),
		ExpiresOn: expiry(date(2026, time.January, 15)),
	})
	require.NoError(t, err)
	require.Equal(t, qualification.StatusPending, qual.VerificationStatus)
	require.NotNil(t, qual.ExpiresOn)

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, "staff_qualifications", f.audit.entries[0].Table)
	require.Equal(t, auditlog.ActionInsert, f.audit.entries[0].Action)
}

func TestQualificationService_Record_DuplicateActive(t *testing.T) {
	f := newQualFixture()

	input := RecordInput{StaffID: 1, TypeID: 1, Name: "RN License", IssuedOn: date(2024, time.January, 15)}
	_, err := f.svc.Record(testCtx(), input)
	require.NoError(t, err)

	_, err = f.svc.Record(testCtx(), input)
	require.True(t, serrors.HasCode(err, "DUPLICATE_QUALIFICATION"))
	require.Equal(t, serrors.KindConflict, serrors.KindOf(err))
}

func TestQualificationService_Record_AfterRevokeAllowed(t *testing.T) {
	f := newQualFixture()

	input := RecordInput{StaffID: 1, TypeID: 1, Name: "RN License", IssuedOn: date(2024, time.January, 15)}
	first, err := f.svc.Record(testCtx(), input)
	require.NoError(t, err)

	_, err = f.svc.Verify(testCtx(), first.ID, 2, qualification.StatusRevoked)
	require.NoError(t, err)

	_, err = f.svc.Record(testCtx(), input)
	require.NoError(t, err)
}

func TestQualificationService_Record_Validation(t *testing.T) {
	f := newQualFixture()

	_, err := f.svc.Record(testCtx(), RecordInput{StaffID: 1, TypeID: 1, IssuedOn: date(2024, time.January, 15)})
	require.True(t, serrors.HasCode(err, "NAME_REQUIRED"))

	_, err = f.svc.Record(testCtx(), RecordInput{
		StaffID:   1,
		TypeID:    1,
		Name:      "RN License",
		IssuedOn:  date(2024, time.January, 15),
		ExpiresOn: expiry(date(2023, time.January, 15)),
	})
	require.True(t, serrors.HasCode(err, "INVALID_DATE_ORDER"))
}

func TestQualificationService_Record_UnknownType(t *testing.T) {
	f := newQualFixture()

	_, err := f.svc.Record(testCtx(), RecordInput{StaffID: 1, TypeID: 42, Name: "X", IssuedOn: date(2024, time.January, 15)})
	require.True(t, serrors.HasCode(err, "QUALIFICATION_TYPE_NOT_FOUND"))
}

func TestQualificationService_Verify(t *testing.T) {
	f := newQualFixture()
	qual, err := f.svc.Record(testCtx(), RecordInput{StaffID: 1, TypeID: 1, Name: "RN License", IssuedOn: date(2024, time.January, 15)})
	require.NoError(t, err)

	verified, err := f.svc.Verify(testCtx(), qual.ID, 2, qualification.StatusVerified)
	require.NoError(t, err)
	require.Equal(t, qualification.StatusVerified, verified.VerificationStatus)
	require.NotNil(t, verified.VerifiedBy)
	require.Equal(t, int64(2), *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	require.Len(t, f.audit.entries, 2)
	require.Equal(t, auditlog.ActionUpdate, f.audit.entries[1].Action)
}

func TestQualificationService_Verify_OnlyPending(t *testing.T) {
	f := newQualFixture()
	qual, err := f.svc.Record(testCtx(), RecordInput{StaffID: 1, TypeID: 1, Name: "RN License", IssuedOn: date(2024, time.January, 15)})
	require.NoError(t, err)

	_, err = f.svc.Verify(testCtx(), qual.ID, 2, qualification.StatusVerified)
	require.NoError(t, err)

	_, err = f.svc.Verify(testCtx(), qual.ID, 2, qualification.StatusRevoked)
	require.True(t, serrors.HasCode(err, "QUALIFICATION_NOT_PENDING"))
}

func TestQualificationService_Verify_InvalidStatus(t *testing.T) {
	f := newQualFixture()

	_, err := f.svc.Verify(testCtx(), 1, 2, qualification.StatusExpired)
	require.True(t, serrors.HasCode(err, "INVALID_STATUS"))
}

func TestQualificationService_ExpiringWithin(t *testing.T) {
	f := newQualFixture()
	now := date(2024, time.June, 1)

	record := func(name string, expiresOn *time.Time) *qualification.Qualification {
		q, err := f.svc.Record(testCtx(), RecordInput{
			StaffID: 1, TypeID: 1, Name: name,
			IssuedOn: date(2022, time.January, 1), ExpiresOn: expiresOn,
		})
		require.NoError(t, err)
		return q
	}

	inWindow := record("expires soon", expiry(date(2024, time.June, 20)))
	record("expires later", expiry(date(2025, time.June, 20)))
	alreadyPast := record("already expired", expiry(date(2024, time.May, 1)))
	neverExpires := record("no expiry", nil)
	pendingOnly := record("pending in window", expiry(date(2024, time.June, 10)))

	for _, q := range []*qualification.Qualification{inWindow, alreadyPast, neverExpires} {
		_, err := f.svc.Verify(testCtx(), q.ID, 2, qualification.StatusVerified)
		require.NoError(t, err)
	}
	_ = pendingOnly // stays pending

	expiring, err := f.svc.ExpiringWithin(testCtx(), now, 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	require.Equal(t, inWindow.ID, expiring[0].ID)
}

func TestQualificationService_EachExpiring_StopsOnError(t *testing.T) {
	f := newQualFixture()
	now := date(2024, time.June, 1)

	for _, name := range []string{"first", "second"} {
		q, err := f.svc.Record(testCtx(), RecordInput{
			StaffID: 1, TypeID: 1, Name: name,
			IssuedOn: date(2022, time.January, 1), ExpiresOn: expiry(date(2024, time.June, 10)),
		})
		require.NoError(t, err)
		_, err = f.svc.Verify(testCtx(), q.ID, 2, qualification.StatusVerified)
		require.NoError(t, err)
	}

	seen := 0
	stop := serrors.Validation("STOP", "stop")
	err := f.svc.EachExpiring(testCtx(), now, 30, func(*qualification.Qualification) error {
		seen++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, seen)
}

func TestQualificationService_ListByStaff(t *testing.T) {
	f := newQualFixture()

	_, err := f.svc.Record(testCtx(), RecordInput{StaffID: 1, TypeID: 1, Name: "A", IssuedOn: date(2024, time.January, 1)})
	require.NoError(t, err)
	_, err = f.svc.Record(testCtx(), RecordInput{StaffID: 2, TypeID: 1, Name: "B", IssuedOn: date(2024, time.January, 1)})
	require.NoError(t, err)

	listed, err := f.svc.ListByStaff(testCtx(), 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "A", listed[0].Name)
}
