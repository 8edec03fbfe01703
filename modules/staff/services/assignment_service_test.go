package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/assignment"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

func newAssignmentFixture(t *testing.T) (*AssignmentService, *StaffService, staff.Staff, *mockAssignmentRepo, *mockAudit) {
	t.Helper()
	staffRepo := newMockStaffRepo()
	assignmentRepo := newMockAssignmentRepo()
	audit := &mockAudit{}
	publisher := &stubPublisher{}
	catalogs := &staticCatalog{exists: true}

	staffSvc := NewStaffService(staffRepo, assignmentRepo, catalogs, audit, publisher, testLedgerOpts)
	staffSvc.SetPendingLeaveCanceller(&stubLeaveCanceller{})
	assignmentSvc := NewAssignmentService(staffRepo, assignmentRepo, catalogs, audit, publisher, testLedgerOpts)

	created, err := staffSvc.Hire(testCtx(), hireInput("E-100", "ada@clinic.test"))
	require.NoError(t, err)
	return assignmentSvc, staffSvc, created, assignmentRepo, audit
}

func TestAssignmentService_Reassign_ClosesOldAndOpensNew(t *testing.T) {
	svc, _, member, repo, audit := newAssignmentFixture(t)

	newPlacement := staff.Placement{DepartmentID: 2, FacilityID: 1, RoleID: 2, RankID: 2}
	start := date(2024, time.March, 1)

	next, err := svc.Reassign(testCtx(), member.ID(), newPlacement, start, "promotion")
	require.NoError(t, err)
	require.True(t, next.IsCurrent)
	require.Equal(t, start, next.StartDate)

	history, err := repo.History(testCtx(), member.ID())
	require.NoError(t, err)
	require.Len(t, history, 2)

	closed := history[0]
	require.False(t, closed.IsCurrent)
	require.NotNil(t, closed.EndDate)
	require.Equal(t, start.AddDate(0, 0, -1), *closed.EndDate)

	opened := history[1]
	require.True(t, opened.IsCurrent)
	require.Nil(t, opened.EndDate)

	last := audit.entries[len(audit.entries)-1]
	require.Equal(t, "staff_assignments", last.Table)
	require.Equal(t, next.ID, last.RecordID)
	require.Equal(t, auditlog.ActionUpdate, last.Action)
}

func TestAssignmentService_Reassign_UpdatesStaffPointers(t *testing.T) {
	svc, staffSvc, member, _, _ := newAssignmentFixture(t)

	newPlacement := staff.Placement{DepartmentID: 3, FacilityID: 2, RoleID: 1, RankID: 1}
	_, err := svc.Reassign(testCtx(), member.ID(), newPlacement, date(2024, time.March, 1), "")
	require.NoError(t, err)

	reloaded, err := staffSvc.GetByID(testCtx(), member.ID())
	require.NoError(t, err)
	require.Equal(t, newPlacement, reloaded.Placement())
}

func TestAssignmentService_Reassign_SameStartDateFailsAndHistoryUnchanged(t *testing.T) {
	svc, _, member, repo, _ := newAssignmentFixture(t)

	before, err := repo.History(testCtx(), member.ID())
	require.NoError(t, err)

	// hire date is the current assignment's start date
	_, err = svc.Reassign(testCtx(), member.ID(), testPlacement, member.HireDate(), "transfer")
	require.Error(t, err)
	require.True(t, serrors.HasCode(err, "INVALID_DATE_ORDER"))
	require.Equal(t, serrors.KindValidation, serrors.KindOf(err))

	after, err := repo.History(testCtx(), member.ID())
	require.NoError(t, err)
	require.Len(t, after, len(before))
	require.True(t, after[0].IsCurrent)
	require.Nil(t, after[0].EndDate)
}

func TestAssignmentService_Reassign_EarlierStartDateFails(t *testing.T) {
	svc, _, member, _, _ := newAssignmentFixture(t)

	_, err := svc.Reassign(testCtx(), member.ID(), testPlacement, member.HireDate().AddDate(0, 0, -10), "transfer")
	require.True(t, serrors.HasCode(err, "INVALID_DATE_ORDER"))
}

func TestAssignmentService_Reassign_InactiveStaffRejected(t *testing.T) {
	svc, staffSvc, member, _, _ := newAssignmentFixture(t)

	_, err := staffSvc.ChangeStatus(testCtx(), member.ID(), staff.StatusSuspended, date(2024, time.February, 1))
	require.NoError(t, err)

	_, err = svc.Reassign(testCtx(), member.ID(), testPlacement, date(2024, time.March, 1), "transfer")
	require.True(t, serrors.HasCode(err, "STAFF_NOT_ACTIVE"))
	require.Equal(t, serrors.KindPolicy, serrors.KindOf(err))
}

func TestAssignmentService_CurrentAssignment(t *testing.T) {
	svc, _, member, _, _ := newAssignmentFixture(t)

	current, err := svc.CurrentAssignment(testCtx(), member.ID())
	require.NoError(t, err)
	require.True(t, current.IsCurrent)
	require.Equal(t, member.HireDate(), current.StartDate)
}

func TestAssignmentService_EachAssignment_StopsOnError(t *testing.T) {
	svc, _, member, _, _ := newAssignmentFixture(t)

	_, err := svc.Reassign(testCtx(), member.ID(), staff.Placement{DepartmentID: 2, FacilityID: 1, RoleID: 1, RankID: 1}, date(2024, time.March, 1), "transfer")
	require.NoError(t, err)

	var seen int
	stop := serrors.Validation("STOP", "stop")
	err = svc.EachAssignment(testCtx(), member.ID(), func(a *assignment.Assignment) error {
		seen++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, seen)
}
