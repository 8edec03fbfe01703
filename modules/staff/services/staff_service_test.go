package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/assignment"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/catalog"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/configuration"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

var testLedgerOpts = configuration.LedgerOptions{
	LockTimeout:    time.Second,
	RetryAttempts:  1,
	RetryBaseDelay: time.Millisecond,
}

var testPlacement = staff.Placement{DepartmentID: 1, FacilityID: 1, RoleID: 1, RankID: 1}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// noopTx satisfies the transaction lookup in composables; mock repositories
// never touch it.
type noopTx struct{}

func (noopTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func testCtx() context.Context {
	ctx := composables.WithTx(context.Background(), noopTx{})
	return composables.WithActorID(ctx, 99)
}

type mockStaffRepo struct {
	byID   map[int64]staff.Staff
	nextID int64
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{byID: map[int64]staff.Staff{}, nextID: 1}
}

func (m *mockStaffRepo) put(s staff.Staff) staff.Staff {
	if s.ID() == 0 {
		s = rehydrate(s, m.nextID)
		m.nextID++
	}
	m.byID[s.ID()] = s
	return s
}

func rehydrate(s staff.Staff, id int64) staff.Staff {
	return staff.Hydrate(
		id, s.EmployeeNo(), s.Email(), s.FirstName(), s.LastName(),
		s.Placement(), s.Status(), s.SupervisorID(),
		s.HireDate(), s.TerminationDate(), s.CreatedAt(), s.UpdatedAt(),
	)
}

func (m *mockStaffRepo) GetPaginated(ctx context.Context, params *staff.FindParams) ([]staff.Staff, int64, error) {
	var all []staff.Staff
	for _, s := range m.byID {
		all = append(all, s)
	}
	return all, int64(len(all)), nil
}

func (m *mockStaffRepo) GetByID(ctx context.Context, id int64) (staff.Staff, error) {
	s, ok := m.byID[id]
	if !ok {
		return staff.Staff{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockStaffRepo) GetByIDForUpdate(ctx context.Context, id int64) (staff.Staff, error) {
	return m.GetByID(ctx, id)
}

func (m *mockStaffRepo) GetByEmployeeNo(ctx context.Context, employeeNo string) (staff.Staff, error) {
	for _, s := range m.byID {
		if s.EmployeeNo() == employeeNo {
			return s, nil
		}
	}
	return staff.Staff{}, pgx.ErrNoRows
}

func (m *mockStaffRepo) ExistsByIdentity(ctx context.Context, employeeNo, email string) (bool, error) {
	for _, s := range m.byID {
		if s.EmployeeNo() == employeeNo || s.Email() == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStaffRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockStaffRepo) Create(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	return m.put(s), nil
}

func (m *mockStaffRepo) Update(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	if _, ok := m.byID[s.ID()]; !ok {
		return staff.Staff{}, pgx.ErrNoRows
	}
	m.byID[s.ID()] = s
	return s, nil
}

type mockAssignmentRepo struct {
	byID   map[int64]*assignment.Assignment
	nextID int64
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{byID: map[int64]*assignment.Assignment{}, nextID: 1}
}

func (m *mockAssignmentRepo) GetCurrent(ctx context.Context, staffID int64) (*assignment.Assignment, error) {
	for _, a := range m.byID {
		if a.StaffID == staffID && a.IsCurrent {
			clone := *a
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAssignmentRepo) History(ctx context.Context, staffID int64) ([]*assignment.Assignment, error) {
	var results []*assignment.Assignment
	err := m.Each(ctx, staffID, func(a *assignment.Assignment) error {
		results = append(results, a)
		return nil
	})
	return results, err
}

func (m *mockAssignmentRepo) Each(ctx context.Context, staffID int64, fn func(*assignment.Assignment) error) error {
	for id := int64(1); id < m.nextID; id++ {
		a, ok := m.byID[id]
		if !ok || a.StaffID != staffID {
			continue
		}
		clone := *a
		if err := fn(&clone); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAssignmentRepo) Create(ctx context.Context, a *assignment.Assignment) error {
	a.ID = m.nextID
	m.nextID++
	clone := *a
	m.byID[a.ID] = &clone
	return nil
}

func (m *mockAssignmentRepo) Close(ctx context.Context, id int64, endDate time.Time) error {
	a, ok := m.byID[id]
	if !ok || !a.IsCurrent {
		return pgx.ErrNoRows
	}
	a.EndDate = &endDate
	a.IsCurrent = false
	return nil
}

type staticCatalog struct {
	exists bool
}

func (c *staticCatalog) Departments(ctx context.Context) ([]catalog.Department, error) {
	return nil, nil
}
func (c *staticCatalog) Facilities(ctx context.Context) ([]catalog.Facility, error) {
	return nil, nil
}
func (c *staticCatalog) Roles(ctx context.Context) ([]catalog.Role, error) { return nil, nil }
func (c *staticCatalog) Ranks(ctx context.Context) ([]catalog.Rank, error) { return nil, nil }
func (c *staticCatalog) PlacementExists(ctx context.Context, departmentID, facilityID, roleID, rankID int64) (bool, error) {
	return c.exists, nil
}

type auditEntry struct {
	Table    string
	RecordID int64
	Action   auditlog.Action
	Old      any
	New      any
}

type mockAudit struct {
	entries []auditEntry
	err     error
}

func (m *mockAudit) Record(ctx context.Context, table string, recordID int64, action auditlog.Action, oldValue, newValue any) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, auditEntry{Table: table, RecordID: recordID, Action: action, Old: oldValue, New: newValue})
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

type stubLeaveCanceller struct {
	cancelled []int64
}

func (c *stubLeaveCanceller) CancelPendingForStaff(ctx context.Context, staffID int64) (int, error) {
	c.cancelled = append(c.cancelled, staffID)
	return 1, nil
}

func newStaffFixture() (*StaffService, *mockStaffRepo, *mockAssignmentRepo, *mockAudit, *stubPublisher) {
	staffRepo := newMockStaffRepo()
	assignmentRepo := newMockAssignmentRepo()
	audit := &mockAudit{}
	publisher := &stubPublisher{}
	svc := NewStaffService(staffRepo, assignmentRepo, &staticCatalog{exists: true}, audit, publisher, testLedgerOpts)
	svc.SetPendingLeaveCanceller(&stubLeaveCanceller{})
	return svc, staffRepo, assignmentRepo, audit, publisher
}

func hireInput(no, email string) HireInput {
	return HireInput{
		EmployeeNo: no,
		Email:      email,
		FirstName:  "Ada",
		LastName:   "Smith",
		Placement:  testPlacement,
		HireDate:   date(2024, time.January, 15),
	}
}

func TestStaffService_Hire_CreatesStaffAssignmentAndAudit(t *testing.T) {
	svc, staffRepo, assignmentRepo, audit, publisher := newStaffFixture()

	created, err := svc.Hire(testCtx(), hireInput("E-100", "ada@clinic.test"))
	require.NoError(t, err)
	require.NotZero(t, created.ID())
	require.Equal(t, staff.StatusActive, created.Status())

	current, err := assignmentRepo.GetCurrent(testCtx(), created.ID())
	require.NoError(t, err)
	require.True(t, current.IsCurrent)
	require.Equal(t, assignment.ReasonHire, current.Reason)
	require.Equal(t, date(2024, time.January, 15), current.StartDate)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "staff", audit.entries[0].Table)
	require.Equal(t, created.ID(), audit.entries[0].RecordID)
	require.Equal(t, auditlog.ActionInsert, audit.entries[0].Action)
	require.Nil(t, audit.entries[0].Old)

	require.Len(t, publisher.published, 1)
	_, ok := staffRepo.byID[created.ID()]
	require.True(t, ok)
}

func TestStaffService_Hire_DuplicateIdentity(t *testing.T) {
	svc, _, _, audit, _ := newStaffFixture()

	_, err := svc.Hire(testCtx(), hireInput("E-100", "ada@clinic.test"))
	require.NoError(t, err)

	_, err = svc.Hire(testCtx(), hireInput("E-100", "other@clinic.test"))
	require.Error(t, err)
	require.True(t, serrors.HasCode(err, "DUPLICATE_IDENTITY"))
	require.Equal(t, serrors.KindConflict, serrors.KindOf(err))
	require.Len(t, audit.entries, 1)
}

func TestStaffService_Hire_RejectsMissingFields(t *testing.T) {
	svc, _, _, _, _ := newStaffFixture()

	input := hireInput("", "ada@clinic.test")
	_, err := svc.Hire(testCtx(), input)
	require.Equal(t, serrors.KindValidation, serrors.KindOf(err))
}

func TestStaffService_AssignSupervisor_DetectsCycle(t *testing.T) {
	svc, _, _, _, _ := newStaffFixture()

	a, err := svc.Hire(testCtx(), hireInput("E-1", "a@clinic.test"))
	require.NoError(t, err)
	b, err := svc.Hire(testCtx(), hireInput("E-2", "b@clinic.test"))
	require.NoError(t, err)

	_, err = svc.AssignSupervisor(testCtx(), a.ID(), b.ID())
	require.NoError(t, err)

	_, err = svc.AssignSupervisor(testCtx(), b.ID(), a.ID())
	require.Error(t, err)
	require.True(t, serrors.HasCode(err, "CYCLE_DETECTED"))
}

func TestStaffService_AssignSupervisor_SelfIsCycle(t *testing.T) {
	svc, _, _, _, _ := newStaffFixture()

	a, err := svc.Hire(testCtx(), hireInput("E-1", "a@clinic.test"))
	require.NoError(t, err)

	_, err = svc.AssignSupervisor(testCtx(), a.ID(), a.ID())
	require.True(t, serrors.HasCode(err, "CYCLE_DETECTED"))
}

func TestStaffService_AssignSupervisor_LongChainIsAllowed(t *testing.T) {
	svc, _, _, _, _ := newStaffFixture()

	a, _ := svc.Hire(testCtx(), hireInput("E-1", "a@clinic.test"))
	b, _ := svc.Hire(testCtx(), hireInput("E-2", "b@clinic.test"))
	c, _ := svc.Hire(testCtx(), hireInput("E-3", "c@clinic.test"))

	_, err := svc.AssignSupervisor(testCtx(), b.ID(), a.ID())
	require.NoError(t, err)
	_, err = svc.AssignSupervisor(testCtx(), c.ID(), b.ID())
	require.NoError(t, err)

	// closing the loop from the top is rejected
	_, err = svc.AssignSupervisor(testCtx(), a.ID(), c.ID())
	require.True(t, serrors.HasCode(err, "CYCLE_DETECTED"))
}

func TestStaffService_ChangeStatus_TerminateClosesAssignmentAndCancelsLeave(t *testing.T) {
	staffRepo := newMockStaffRepo()
	assignmentRepo := newMockAssignmentRepo()
	audit := &mockAudit{}
	canceller := &stubLeaveCanceller{}
	svc := NewStaffService(staffRepo, assignmentRepo, &staticCatalog{exists: true}, audit, &stubPublisher{}, testLedgerOpts)
	svc.SetPendingLeaveCanceller(canceller)

	created, err := svc.Hire(testCtx(), hireInput("E-100", "ada@clinic.test"))
	require.NoError(t, err)

	effective := date(2024, time.June, 30)
	updated, err := svc.ChangeStatus(testCtx(), created.ID(), staff.StatusTerminated, effective)
	require.NoError(t, err)
	require.Equal(t, staff.StatusTerminated, updated.Status())
	require.NotNil(t, updated.TerminationDate())
	require.Equal(t, effective, *updated.TerminationDate())

	_, err = assignmentRepo.GetCurrent(testCtx(), created.ID())
	require.ErrorIs(t, err, pgx.ErrNoRows)

	history, err := assignmentRepo.History(testCtx(), created.ID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].EndDate)
	require.Equal(t, effective, *history[0].EndDate)

	require.Equal(t, []int64{created.ID()}, canceller.cancelled)
	require.Len(t, audit.entries, 2) // hire + status change
}

func TestStaffService_ChangeStatus_RejectsUnknownStatus(t *testing.T) {
	svc, _, _, _, _ := newStaffFixture()

	_, err := svc.ChangeStatus(testCtx(), 1, staff.Status("retired"), date(2024, time.June, 1))
	require.True(t, serrors.HasCode(err, "INVALID_STATUS"))
}

func TestStaffService_UpdateProfile_AuditsOldAndNew(t *testing.T) {
	svc, _, _, audit, _ := newStaffFixture()

	created, err := svc.Hire(testCtx(), hireInput("E-100", "ada@clinic.test"))
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(testCtx(), created.ID(), UpdateProfileInput{Email: "new@clinic.test"})
	require.NoError(t, err)
	require.Equal(t, "new@clinic.test", updated.Email())
	require.Equal(t, "Ada", updated.FirstName())

	last := audit.entries[len(audit.entries)-1]
	require.Equal(t, auditlog.ActionUpdate, last.Action)
	require.NotNil(t, last.Old)
	require.NotNil(t, last.New)
}
