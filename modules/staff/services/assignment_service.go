package services

import (
	"context"
	"strings"
	"time"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/assignment"
	"github.com/iota-uz/staffledger/modules/staff/domain/entities/catalog"
	"github.com/iota-uz/staffledger/modules/staff/domain/events"
	"github.com/iota-uz/staffledger/pkg/bizdays"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/configuration"
	"github.com/iota-uz/staffledger/pkg/eventbus"
)

type AssignmentService struct {
	staffRepo      staff.Repository
	repo           assignment.Repository
	catalogs       catalog.Repository
	audit          AuditRecorder
	publisher      eventbus.EventBus
	retryAttempts  uint64
	retryBaseDelay time.Duration
}

func NewAssignmentService(
	staffRepo staff.Repository,
	repo assignment.Repository,
	catalogs catalog.Repository,
	audit AuditRecorder,
	publisher eventbus.EventBus,
	opts configuration.LedgerOptions,
) *AssignmentService {
	return &AssignmentService{
		staffRepo:      staffRepo,
		repo:           repo,
		catalogs:       catalogs,
		audit:          audit,
		publisher:      publisher,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// Reassign closes the current assignment the day before startDate, opens a
// new current one and updates the staff pointer columns. All four effects
// commit together; the staff row lock serializes competing reassignments.
func (s *AssignmentService) Reassign(ctx context.Context, staffID int64, placement staff.Placement, startDate time.Time, reason string) (*assignment.Assignment, error) {
	startDate = bizdays.Truncate(startDate)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = assignment.ReasonTransfer
	}

	var next *assignment.Assignment
	err := composables.InTxRetry(ctx, s.retryAttempts, s.retryBaseDelay, func(txCtx context.Context) error {
		st, err := s.staffRepo.GetByIDForUpdate(txCtx, staffID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if !st.IsActive() {
			return ErrStaffNotActive
		}

		current, err := s.repo.GetCurrent(txCtx, staffID)
		if err != nil {
			return mapDBError(err, ErrAssignmentNotFound)
		}
		if !startDate.After(bizdays.Truncate(current.StartDate)) {
			return ErrInvalidDateOrder
		}

		ok, err := s.catalogs.PlacementExists(txCtx,
			placement.DepartmentID, placement.FacilityID, placement.RoleID, placement.RankID)
		if err != nil {
			return mapDBError(err, ErrAssignmentNotFound)
		}
		if !ok {
			return ErrUnknownPlacement
		}

		if err := s.repo.Close(txCtx, current.ID, startDate.AddDate(0, 0, -1)); err != nil {
			return mapDBError(err, ErrAssignmentNotFound)
		}

		next = &assignment.Assignment{
			StaffID:      staffID,
			DepartmentID: placement.DepartmentID,
			FacilityID:   placement.FacilityID,
			RoleID:       placement.RoleID,
			RankID:       placement.RankID,
			StartDate:    startDate,
			Reason:       reason,
			IsCurrent:    true,
		}
		if err := s.repo.Create(txCtx, next); err != nil {
			return mapDBError(err, ErrAssignmentNotFound)
		}

		if _, err := s.staffRepo.Update(txCtx, st.WithPlacement(placement)); err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		return s.audit.Record(txCtx, "staff_assignments", next.ID, auditlog.ActionUpdate, current.Snapshot(), next.Snapshot())
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.StaffReassigned{StaffID: staffID, AssignmentID: next.ID})
	return next, nil
}

func (s *AssignmentService) CurrentAssignment(ctx context.Context, staffID int64) (*assignment.Assignment, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*assignment.Assignment, error) {
		a, err := s.repo.GetCurrent(txCtx, staffID)
		if err != nil {
			return nil, mapDBError(err, ErrAssignmentNotFound)
		}
		return a, nil
	})
}

func (s *AssignmentService) AssignmentHistory(ctx context.Context, staffID int64) ([]*assignment.Assignment, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*assignment.Assignment, error) {
		return s.repo.History(txCtx, staffID)
	})
}

// EachAssignment streams the history in start-date order without loading it
// whole; fn returning an error stops the scan.
func (s *AssignmentService) EachAssignment(ctx context.Context, staffID int64, fn func(*assignment.Assignment) error) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Each(txCtx, staffID, fn)
	})
}
