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
	"github.com/iota-uz/staffledger/pkg/serrors"
)

// AuditRecorder writes one audit entry inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, table string, recordID int64, action auditlog.Action, oldValue, newValue any) error
}

// PendingLeaveCanceller cancels every pending leave application for a staff
// member, releasing the reserved days. Wired from the leave module after
// both modules register.
type PendingLeaveCanceller interface {
	CancelPendingForStaff(ctx context.Context, staffID int64) (int, error)
}

var errLeaveLedgerUnavailable = serrors.Integrity("LEAVE_LEDGER_UNAVAILABLE", "leave ledger link is not wired")

type StaffService struct {
	repo           staff.Repository
	assignments    assignment.Repository
	catalogs       catalog.Repository
	audit          AuditRecorder
	publisher      eventbus.EventBus
	leave          PendingLeaveCanceller
	retryAttempts  uint64
	retryBaseDelay time.Duration
}

func NewStaffService(
	repo staff.Repository,
	assignments assignment.Repository,
	catalogs catalog.Repository,
	audit AuditRecorder,
	publisher eventbus.EventBus,
	opts configuration.LedgerOptions,
) *StaffService {
	return &StaffService{
		repo:           repo,
		assignments:    assignments,
		catalogs:       catalogs,
		audit:          audit,
		publisher:      publisher,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// SetPendingLeaveCanceller links the leave ledger. Termination cancels
// pending applications through it.
func (s *StaffService) SetPendingLeaveCanceller(c PendingLeaveCanceller) {
	s.leave = c
}

func (s *StaffService) inTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTxRetry(ctx, s.retryAttempts, s.retryBaseDelay, fn)
}

type HireInput struct {
	EmployeeNo string
	Email      string
	FirstName  string
	LastName   string
	Placement  staff.Placement
	HireDate   time.Time
}

func (i *HireInput) Validate() error {
	if strings.TrimSpace(i.EmployeeNo) == "" {
		return serrors.Validation("EMPLOYEE_NO_REQUIRED", "employee number is required")
	}
	if strings.TrimSpace(i.Email) == "" {
		return serrors.Validation("EMAIL_REQUIRED", "email is required")
	}
	if strings.TrimSpace(i.FirstName) == "" || strings.TrimSpace(i.LastName) == "" {
		return serrors.Validation("NAME_REQUIRED", "first and last name are required")
	}
	if i.HireDate.IsZero() {
		return serrors.Validation("HIRE_DATE_REQUIRED", "hire date is required")
	}
	return nil
}

type hireSnapshot struct {
	Staff             staff.Snapshot      `json:"staff"`
	InitialAssignment assignment.Snapshot `json:"initial_assignment"`
}

// Hire creates the staff record together with its first assignment. Both
// rows and the audit entry commit as one unit.
func (s *StaffService) Hire(ctx context.Context, input HireInput) (staff.Staff, error) {
	if err := input.Validate(); err != nil {
		return staff.Staff{}, err
	}
	hireDate := bizdays.Truncate(input.HireDate)

	var created staff.Staff
	err := s.inTx(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByIdentity(txCtx, input.EmployeeNo, input.Email)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if exists {
			return ErrDuplicateIdentity
		}

		ok, err := s.catalogs.PlacementExists(txCtx,
			input.Placement.DepartmentID, input.Placement.FacilityID,
			input.Placement.RoleID, input.Placement.RankID,
		)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if !ok {
			return ErrUnknownPlacement
		}

		created, err = s.repo.Create(txCtx, staff.New(
			input.EmployeeNo, input.Email, input.FirstName, input.LastName,
			input.Placement, hireDate,
		))
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		first := &assignment.Assignment{
			StaffID:      created.ID(),
			DepartmentID: input.Placement.DepartmentID,
			FacilityID:   input.Placement.FacilityID,
			RoleID:       input.Placement.RoleID,
			RankID:       input.Placement.RankID,
			StartDate:    hireDate,
			Reason:       assignment.ReasonHire,
			IsCurrent:    true,
		}
		if err := s.assignments.Create(txCtx, first); err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		return s.audit.Record(txCtx, "staff", created.ID(), auditlog.ActionInsert, nil, hireSnapshot{
			Staff:             created.Snapshot(),
			InitialAssignment: first.Snapshot(),
		})
	})
	if err != nil {
		return staff.Staff{}, err
	}

	s.publisher.Publish(events.StaffHired{StaffID: created.ID(), EmployeeNo: created.EmployeeNo()})
	return created, nil
}

type UpdateProfileInput struct {
	Email     string
	FirstName string
	LastName  string
}

func (s *StaffService) UpdateProfile(ctx context.Context, staffID int64, input UpdateProfileInput) (staff.Staff, error) {
	var updated staff.Staff
	err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(txCtx, staffID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		next := current.WithProfile(input.Email, input.FirstName, input.LastName)
		updated, err = s.repo.Update(txCtx, next)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		return s.audit.Record(txCtx, "staff", staffID, auditlog.ActionUpdate, current.Snapshot(), updated.Snapshot())
	})
	if err != nil {
		return staff.Staff{}, err
	}
	return updated, nil
}

// ChangeStatus mutates the lifecycle status. Termination additionally closes
// the current assignment at the effective date and cancels every pending
// leave application, all in one transaction.
func (s *StaffService) ChangeStatus(ctx context.Context, staffID int64, status staff.Status, effectiveDate time.Time) (staff.Staff, error) {
	if !status.Valid() {
		return staff.Staff{}, serrors.Validation("INVALID_STATUS", "unknown employment status")
	}
	effectiveDate = bizdays.Truncate(effectiveDate)

	var updated staff.Staff
	var oldStatus staff.Status
	err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(txCtx, staffID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		oldStatus = current.Status()

		next := current.WithStatus(status)
		if status == staff.StatusTerminated {
			if s.leave == nil {
				return errLeaveLedgerUnavailable
			}
			next = current.WithTermination(effectiveDate)

			open, err := s.assignments.GetCurrent(txCtx, staffID)
			switch mapped := mapDBError(err, ErrAssignmentNotFound); {
			case mapped == nil:
				if err := s.assignments.Close(txCtx, open.ID, effectiveDate); err != nil {
					return mapDBError(err, ErrAssignmentNotFound)
				}
			case serrors.KindOf(mapped) == serrors.KindNotFound:
				// already closed by a prior termination
			default:
				return mapped
			}

			if _, err := s.leave.CancelPendingForStaff(txCtx, staffID); err != nil {
				return err
			}
		}

		updated, err = s.repo.Update(txCtx, next)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		return s.audit.Record(txCtx, "staff", staffID, auditlog.ActionUpdate, current.Snapshot(), updated.Snapshot())
	})
	if err != nil {
		return staff.Staff{}, err
	}

	s.publisher.Publish(events.StaffStatusChanged{
		StaffID:   staffID,
		OldStatus: string(oldStatus),
		NewStatus: string(updated.Status()),
	})
	return updated, nil
}

// AssignSupervisor links staffID under supervisorID after walking the
// candidate's supervisor chain. The walk is bounded by the staff count so a
// corrupt chain cannot loop forever.
func (s *StaffService) AssignSupervisor(ctx context.Context, staffID, supervisorID int64) (staff.Staff, error) {
	if staffID == supervisorID {
		return staff.Staff{}, ErrCycleDetected
	}

	var updated staff.Staff
	err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(txCtx, staffID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if _, err := s.repo.GetByID(txCtx, supervisorID); err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		if err := s.checkSupervisorCycle(txCtx, staffID, supervisorID); err != nil {
			return err
		}

		updated, err = s.repo.Update(txCtx, current.WithSupervisor(&supervisorID))
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		return s.audit.Record(txCtx, "staff", staffID, auditlog.ActionUpdate, current.Snapshot(), updated.Snapshot())
	})
	if err != nil {
		return staff.Staff{}, err
	}

	s.publisher.Publish(events.SupervisorAssigned{StaffID: staffID, SupervisorID: supervisorID})
	return updated, nil
}

func (s *StaffService) checkSupervisorCycle(ctx context.Context, staffID, candidateID int64) error {
	bound, err := s.repo.Count(ctx)
	if err != nil {
		return mapDBError(err, ErrStaffNotFound)
	}

	nextID := candidateID
	for i := int64(0); i <= bound; i++ {
		if nextID == staffID {
			return ErrCycleDetected
		}
		node, err := s.repo.GetByID(ctx, nextID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if node.SupervisorID() == nil {
			return nil
		}
		nextID = *node.SupervisorID()
	}
	// chain longer than the staff count means it already loops
	return ErrCycleDetected
}

func (s *StaffService) GetByID(ctx context.Context, staffID int64) (staff.Staff, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (staff.Staff, error) {
		st, err := s.repo.GetByID(txCtx, staffID)
		return st, mapDBError(err, ErrStaffNotFound)
	})
}

func (s *StaffService) GetByEmployeeNo(ctx context.Context, employeeNo string) (staff.Staff, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (staff.Staff, error) {
		st, err := s.repo.GetByEmployeeNo(txCtx, employeeNo)
		return st, mapDBError(err, ErrStaffNotFound)
	})
}

func (s *StaffService) List(ctx context.Context, params *staff.FindParams) ([]staff.Staff, int64, error) {
	var total int64
	results, err := composables.InTxResult(ctx, func(txCtx context.Context) ([]staff.Staff, error) {
		var innerErr error
		var list []staff.Staff
		list, total, innerErr = s.repo.GetPaginated(txCtx, params)
		return list, innerErr
	})
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
