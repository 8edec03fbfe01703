package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/leave/domain/aggregates/entitlement"
	"github.com/iota-uz/staffledger/modules/leave/domain/entities/category"
	"github.com/iota-uz/staffledger/modules/leave/domain/entities/leaveapp"
	"github.com/iota-uz/staffledger/modules/leave/domain/events"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/pkg/authz"
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

// StaffDirectory is the read surface of the staff registry the leave ledger
// consults: leave operations require an active staff member.
type StaffDirectory interface {
	GetByID(ctx context.Context, id int64) (staff.Staff, error)
}

type LeaveService struct {
	categories     category.Repository
	entitlements   entitlement.Repository
	applications   leaveapp.Repository
	staffDir       StaffDirectory
	audit          AuditRecorder
	checker        authz.Checker
	calendar       bizdays.Calendar
	publisher      eventbus.EventBus
	allowNegative  bool
	retryAttempts  uint64
	retryBaseDelay time.Duration
}

func NewLeaveService(
	categories category.Repository,
	entitlements entitlement.Repository,
	applications leaveapp.Repository,
	staffDir StaffDirectory,
	audit AuditRecorder,
	checker authz.Checker,
	calendar bizdays.Calendar,
	publisher eventbus.EventBus,
	opts configuration.LedgerOptions,
) *LeaveService {
	return &LeaveService{
		categories:     categories,
		entitlements:   entitlements,
		applications:   applications,
		staffDir:       staffDir,
		audit:          audit,
		checker:        checker,
		calendar:       calendar,
		publisher:      publisher,
		allowNegative:  opts.AllowNegativeBalance,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

func (s *LeaveService) inTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTxRetry(ctx, s.retryAttempts, s.retryBaseDelay, fn)
}

type applicationSnapshot struct {
	Application leaveapp.Snapshot    `json:"application"`
	Entitlement entitlement.Snapshot `json:"entitlement"`
}

type FileInput struct {
	StaffID    int64
	CategoryID int64
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
	// Now anchors the notice-period check; the zero value means wall-clock
	// time.
	Now time.Time
}

// FileApplication reserves the requested days on the matching entitlement
// and creates a pending application. The entitlement row lock serializes
// competing filings for the same staff member and category.
func (s *LeaveService) FileApplication(ctx context.Context, input FileInput) (*leaveapp.Application, error) {
	start := bizdays.Truncate(input.StartDate)
	end := bizdays.Truncate(input.EndDate)
	if end.Before(start) {
		return nil, ErrInvalidDateOrder
	}
	// Entitlements are keyed by a single year; requests crossing the
	// boundary must be split by the caller.
	if start.Year() != end.Year() {
		return nil, ErrYearBoundary
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = bizdays.Truncate(now)

	var app *leaveapp.Application
	err := s.inTx(ctx, func(txCtx context.Context) error {
		member, err := s.staffDir.GetByID(txCtx, input.StaffID)
		if err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if !member.IsActive() {
			return ErrStaffNotActive
		}

		cat, err := s.categories.GetByID(txCtx, input.CategoryID)
		if err != nil {
			return mapDBError(err, ErrCategoryNotFound)
		}

		totalDays := decimal.NewFromInt(int64(s.calendar.CountDays(start, end, cat.BusinessDaysOnly)))
		if totalDays.IsZero() {
			return ErrNoLeaveDays
		}

		if cat.MinNoticeDays > 0 {
			notice := int(start.Sub(now).Hours() / 24)
			if notice < cat.MinNoticeDays {
				return ErrNoticeViolation.WithTemplateData(map[string]string{
					"Required": decimal.NewFromInt(int64(cat.MinNoticeDays)).String(),
				})
			}
		}
		if cat.MaxConsecutiveDays > 0 && totalDays.GreaterThan(decimal.NewFromInt(int64(cat.MaxConsecutiveDays))) {
			return ErrConsecutiveLimit
		}

		ent, err := s.entitlements.GetForUpdate(txCtx, entitlement.Key{
			StaffID:    input.StaffID,
			CategoryID: input.CategoryID,
			Year:       start.Year(),
		})
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}

		if !ent.CanReserve(totalDays, cat.AllowNegativeBalance || s.allowNegative) {
			return ErrInsufficientBalance.WithTemplateData(map[string]string{
				"Requested": totalDays.String(),
				"Remaining": ent.Remaining().String(),
			})
		}

		updatedEnt, err := s.entitlements.Update(txCtx, ent.Reserve(totalDays))
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}

		app = &leaveapp.Application{
			StaffID:    input.StaffID,
			CategoryID: input.CategoryID,
			StartDate:  start,
			EndDate:    end,
			TotalDays:  totalDays,
			Reason:     strings.TrimSpace(input.Reason),
			Status:     leaveapp.StatusPending,
		}
		if err := s.applications.Create(txCtx, app); err != nil {
			return mapDBError(err, ErrApplicationNotFound)
		}

		return s.audit.Record(txCtx, "leave_applications", app.ID, auditlog.ActionInsert, nil, applicationSnapshot{
			Application: app.Snapshot(),
			Entitlement: updatedEnt.Snapshot(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.LeaveFiled{
		ApplicationID: app.ID,
		StaffID:       app.StaffID,
		CategoryID:    app.CategoryID,
		TotalDays:     app.TotalDays.String(),
	})
	return app, nil
}

// Review decides a pending application. Approval requires the reviewer to
// hold the leave approval permission; approved days move from pending to
// used, rejected days return to the balance.
func (s *LeaveService) Review(ctx context.Context, appID int64, decision leaveapp.Status, reviewerID int64, rejectionReason string) (*leaveapp.Application, error) {
	if decision != leaveapp.StatusApproved && decision != leaveapp.StatusRejected {
		return nil, serrors.Validation("INVALID_DECISION", "decision must be approved or rejected")
	}
	rejectionReason = strings.TrimSpace(rejectionReason)
	if decision == leaveapp.StatusRejected && rejectionReason == "" {
		return nil, serrors.Validation("REJECTION_REASON_REQUIRED", "a rejection reason is required")
	}
	if decision == leaveapp.StatusApproved {
		if err := authz.Authorize(ctx, s.checker, reviewerID, "leave", "approve"); err != nil {
			return nil, err
		}
	}

	var app *leaveapp.Application
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.applications.GetByIDForUpdate(txCtx, appID)
		if err != nil {
			return mapDBError(err, ErrApplicationNotFound)
		}
		if app.Status.Decided() {
			return ErrAlreadyDecided
		}

		ent, err := s.entitlements.GetForUpdate(txCtx, entitlement.Key{
			StaffID:    app.StaffID,
			CategoryID: app.CategoryID,
			Year:       app.StartDate.Year(),
		})
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}

		before := applicationSnapshot{Application: app.Snapshot(), Entitlement: ent.Snapshot()}

		switch decision {
		case leaveapp.StatusApproved:
			ent = ent.Consume(app.TotalDays)
		case leaveapp.StatusRejected:
			ent = ent.Release(app.TotalDays)
			app.RejectionReason = &rejectionReason
		}
		app.Status = decision
		app.ReviewerID = &reviewerID
		decidedAt := time.Now()
		app.DecidedAt = &decidedAt

		updatedEnt, err := s.entitlements.Update(txCtx, ent)
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}
		if err := s.applications.Update(txCtx, app); err != nil {
			return mapDBError(err, ErrApplicationNotFound)
		}

		after := applicationSnapshot{Application: app.Snapshot(), Entitlement: updatedEnt.Snapshot()}
		return s.audit.Record(txCtx, "leave_applications", app.ID, auditlog.ActionUpdate, before, after)
	})
	if err != nil {
		return nil, err
	}

	recordDecision(string(decision))
	s.publisher.Publish(events.LeaveDecided{
		ApplicationID: app.ID,
		StaffID:       app.StaffID,
		Decision:      string(decision),
		ReviewerID:    reviewerID,
	})
	return app, nil
}

// Cancel withdraws a pending application and releases the reserved days.
// Anyone may cancel their own application; cancelling for someone else
// requires the leave cancel permission.
func (s *LeaveService) Cancel(ctx context.Context, appID, actorID int64) (*leaveapp.Application, error) {
	var app *leaveapp.Application
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.applications.GetByIDForUpdate(txCtx, appID)
		if err != nil {
			return mapDBError(err, ErrApplicationNotFound)
		}
		if app.Status.Decided() {
			return ErrAlreadyDecided
		}
		if app.StaffID != actorID {
			if err := authz.Authorize(txCtx, s.checker, actorID, "leave", "cancel"); err != nil {
				return err
			}
		}
		return s.cancelLocked(txCtx, app)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.LeaveCancelled{ApplicationID: app.ID, StaffID: app.StaffID})
	return app, nil
}

// CancelPendingForStaff cancels every pending application for a staff
// member inside the caller's transaction. The staff module invokes it when
// terminating.
func (s *LeaveService) CancelPendingForStaff(ctx context.Context, staffID int64) (int, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (int, error) {
		pending, err := s.applications.ListPendingByStaff(txCtx, staffID)
		if err != nil {
			return 0, mapDBError(err, ErrApplicationNotFound)
		}
		for _, app := range pending {
			if err := s.cancelLocked(txCtx, app); err != nil {
				return 0, err
			}
		}
		return len(pending), nil
	})
}

// cancelLocked releases the pending days and marks the application
// cancelled. The caller holds the transaction; the entitlement row is
// locked here.
func (s *LeaveService) cancelLocked(ctx context.Context, app *leaveapp.Application) error {
	ent, err := s.entitlements.GetForUpdate(ctx, entitlement.Key{
		StaffID:    app.StaffID,
		CategoryID: app.CategoryID,
		Year:       app.StartDate.Year(),
	})
	if err != nil {
		return mapDBError(err, ErrEntitlementNotFound)
	}

	before := applicationSnapshot{Application: app.Snapshot(), Entitlement: ent.Snapshot()}

	app.Status = leaveapp.StatusCancelled
	decidedAt := time.Now()
	app.DecidedAt = &decidedAt

	updatedEnt, err := s.entitlements.Update(ctx, ent.Release(app.TotalDays))
	if err != nil {
		return mapDBError(err, ErrEntitlementNotFound)
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return mapDBError(err, ErrApplicationNotFound)
	}

	after := applicationSnapshot{Application: app.Snapshot(), Entitlement: updatedEnt.Snapshot()}
	return s.audit.Record(ctx, "leave_applications", app.ID, auditlog.ActionUpdate, before, after)
}

// Balance returns the derived remaining balance for one entitlement.
func (s *LeaveService) Balance(ctx context.Context, staffID, categoryID int64, year int) (decimal.Decimal, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (decimal.Decimal, error) {
		ent, err := s.entitlements.Get(txCtx, entitlement.Key{StaffID: staffID, CategoryID: categoryID, Year: year})
		if err != nil {
			return decimal.Zero, mapDBError(err, ErrEntitlementNotFound)
		}
		return ent.Remaining(), nil
	})
}

// EntitlementSummary is the reporting projection of one entitlement.
type EntitlementSummary struct {
	Category    category.Category
	Entitlement entitlement.Entitlement
}

func (s *LeaveService) Summary(ctx context.Context, staffID int64, year int) ([]EntitlementSummary, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]EntitlementSummary, error) {
		ents, err := s.entitlements.ListByStaffYear(txCtx, staffID, year)
		if err != nil {
			return nil, mapDBError(err, ErrEntitlementNotFound)
		}
		out := make([]EntitlementSummary, 0, len(ents))
		for _, ent := range ents {
			cat, err := s.categories.GetByID(txCtx, ent.CategoryID())
			if err != nil {
				return nil, mapDBError(err, ErrCategoryNotFound)
			}
			out = append(out, EntitlementSummary{Category: cat, Entitlement: ent})
		}
		return out, nil
	})
}

func (s *LeaveService) GetApplication(ctx context.Context, appID int64) (*leaveapp.Application, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*leaveapp.Application, error) {
		app, err := s.applications.GetByID(txCtx, appID)
		if err != nil {
			return nil, mapDBError(err, ErrApplicationNotFound)
		}
		return app, nil
	})
}

func (s *LeaveService) ListCategories(ctx context.Context) ([]category.Category, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]category.Category, error) {
		return s.categories.List(txCtx)
	})
}

func (s *LeaveService) ListApplications(ctx context.Context, params *leaveapp.FindParams) ([]*leaveapp.Application, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*leaveapp.Application, error) {
		return s.applications.List(txCtx, params)
	})
}

// RolloverYear creates the next year's entitlement rows from fromYear's,
// copying unused days where the category carries forward. Existing rows are
// skipped so the operation is safe to rerun.
func (s *LeaveService) RolloverYear(ctx context.Context, fromYear int) (int, error) {
	var created int
	err := s.inTx(ctx, func(txCtx context.Context) error {
		ents, err := s.entitlements.ListForYear(txCtx, fromYear)
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}

		for _, ent := range ents {
			key := entitlement.Key{StaffID: ent.StaffID(), CategoryID: ent.CategoryID(), Year: fromYear + 1}
			exists, err := s.entitlements.Exists(txCtx, key)
			if err != nil {
				return mapDBError(err, ErrEntitlementNotFound)
			}
			if exists {
				continue
			}

			cat, err := s.categories.GetByID(txCtx, ent.CategoryID())
			if err != nil {
				return mapDBError(err, ErrCategoryNotFound)
			}

			carried := decimal.Zero
			if cat.CarryForward {
				if remaining := ent.Remaining(); remaining.IsPositive() {
					carried = remaining
				}
			}

			next, err := s.entitlements.Create(txCtx, entitlement.New(
				ent.StaffID(), ent.CategoryID(), fromYear+1, cat.AnnualAllowance, carried,
			))
			if err != nil {
				return mapDBError(err, ErrEntitlementNotFound)
			}
			if err := s.audit.Record(txCtx, "leave_entitlements", next.ID(), auditlog.ActionInsert, nil, next.Snapshot()); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publisher.Publish(events.YearRolledOver{Year: fromYear + 1, Created: created})
	return created, nil
}

// GrantEntitlement creates an entitlement row outside the rollover path,
// for onboarding and mid-year adjustments.
func (s *LeaveService) GrantEntitlement(ctx context.Context, staffID, categoryID int64, year int, allocated, carried decimal.Decimal) (entitlement.Entitlement, error) {
	var out entitlement.Entitlement
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = s.entitlements.Create(txCtx, entitlement.New(staffID, categoryID, year, allocated, carried))
		if err != nil {
			return mapDBError(err, ErrEntitlementNotFound)
		}
		return s.audit.Record(txCtx, "leave_entitlements", out.ID(), auditlog.ActionInsert, nil, out.Snapshot())
	})
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	return out, nil
}
