package services

import (
	"context"
	"strings"
	"time"

	"github.com/iota-uz/staffledger/modules/audit/domain/entities/auditlog"
	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualification"
	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualtype"
	"github.com/iota-uz/staffledger/modules/qualification/domain/events"
	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/pkg/bizdays"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/configuration"
	"github.com/iota-uz/staffledger/pkg/eventbus"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

type AuditRecorder interface {
	Record(ctx context.Context, table string, recordID int64, action auditlog.Action, oldValue, newValue any) error
}

type StaffDirectory interface {
	GetByID(ctx context.Context, id int64) (staff.Staff, error)
}

type QualificationService struct {
	quals          qualification.Repository
	types          qualtype.Repository
	staffDir       StaffDirectory
	audit          AuditRecorder
	publisher      eventbus.EventBus
	retryAttempts  uint64
	retryBaseDelay time.Duration
}

func NewQualificationService(
	quals qualification.Repository,
	types qualtype.Repository,
	staffDir StaffDirectory,
	audit AuditRecorder,
	publisher eventbus.EventBus,
	opts configuration.LedgerOptions,
) *QualificationService {
	return &QualificationService{
		quals:          quals,
		types:          types,
		staffDir:       staffDir,
		audit:          audit,
		publisher:      publisher,
		retryAttempts:  opts.RetryAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

func (s *QualificationService) inTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTxRetry(ctx, s.retryAttempts, s.retryBaseDelay, fn)
}

type RecordInput struct {
	StaffID   int64
	TypeID    int64
	Name      string
	IssuedOn  time.Time
	ExpiresOn *time.Time
}

func (i *RecordInput) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return serrors.Validation("NAME_REQUIRED", "qualification name is required")
	}
	if i.IssuedOn.IsZero() {
		return serrors.Validation("ISSUED_ON_REQUIRED", "issue date is required")
	}
	if i.ExpiresOn != nil && i.ExpiresOn.Before(i.IssuedOn) {
		return serrors.Validation("INVALID_DATE_ORDER", "expiry date must not be before the issue date")
	}
	return nil
}

// Record registers a new credential in pending state. A staff member holds
// at most one active credential per type and name.
func (s *QualificationService) Record(ctx context.Context, input RecordInput) (*qualification.Qualification, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)

	var qual *qualification.Qualification
	err := s.inTx(ctx, func(txCtx context.Context) error {
		if _, err := s.staffDir.GetByID(txCtx, input.StaffID); err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}
		if _, err := s.types.GetByID(txCtx, input.TypeID); err != nil {
			return mapDBError(err, ErrTypeNotFound)
		}

		exists, err := s.quals.ExistsActive(txCtx, input.StaffID, input.TypeID, name)
		if err != nil {
			return mapDBError(err, ErrQualificationNotFound)
		}
		if exists {
			return ErrDuplicateQualification
		}

		qual = &qualification.Qualification{
			StaffID:            input.StaffID,
			TypeID:             input.TypeID,
			Name:               name,
			IssuedOn:           bizdays.Truncate(input.IssuedOn),
			VerificationStatus: qualification.StatusPending,
		}
		if input.ExpiresOn != nil {
			expires := bizdays.Truncate(*input.ExpiresOn)
			qual.ExpiresOn = &expires
		}
		if err := s.quals.Create(txCtx, qual); err != nil {
			return mapDBError(err, ErrQualificationNotFound)
		}

		return s.audit.Record(txCtx, "staff_qualifications", qual.ID, auditlog.ActionInsert, nil, qual.Snapshot())
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.QualificationRecorded{
		QualificationID: qual.ID,
		StaffID:         qual.StaffID,
		TypeID:          qual.TypeID,
	})
	return qual, nil
}

// Verify decides a pending credential: verified or revoked. The row is
// locked so concurrent decisions surface as conflicts rather than lost
// updates.
func (s *QualificationService) Verify(ctx context.Context, qualID, verifierID int64, status qualification.VerificationStatus) (*qualification.Qualification, error) {
	if status != qualification.StatusVerified && status != qualification.StatusRevoked {
		return nil, ErrInvalidStatus
	}

	var qual *qualification.Qualification
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		qual, err = s.quals.GetByIDForUpdate(txCtx, qualID)
		if err != nil {
			return mapDBError(err, ErrQualificationNotFound)
		}
		if qual.VerificationStatus != qualification.StatusPending {
			return ErrNotPending
		}
		if _, err := s.staffDir.GetByID(txCtx, verifierID); err != nil {
			return mapDBError(err, ErrStaffNotFound)
		}

		before := qual.Snapshot()
		qual.VerificationStatus = status
		qual.VerifiedBy = &verifierID
		verifiedAt := time.Now()
		qual.VerifiedAt = &verifiedAt

		if err := s.quals.Update(txCtx, qual); err != nil {
			return mapDBError(err, ErrQualificationNotFound)
		}
		return s.audit.Record(txCtx, "staff_qualifications", qual.ID, auditlog.ActionUpdate, before, qual.Snapshot())
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.QualificationVerified{
		QualificationID: qual.ID,
		StaffID:         qual.StaffID,
		Status:          string(status),
		VerifierID:      verifierID,
	})
	return qual, nil
}

// EachExpiring streams verified credentials expiring within days of now.
// Expiry is computed against the caller's clock so scheduled scans and
// backfills agree on the window.
func (s *QualificationService) EachExpiring(ctx context.Context, now time.Time, days int, fn func(*qualification.Qualification) error) error {
	from := bizdays.Truncate(now)
	to := from.AddDate(0, 0, days)
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.quals.EachExpiring(txCtx, from, to, fn)
	})
}

func (s *QualificationService) ExpiringWithin(ctx context.Context, now time.Time, days int) ([]*qualification.Qualification, error) {
	var results []*qualification.Qualification
	err := s.EachExpiring(ctx, now, days, func(q *qualification.Qualification) error {
		results = append(results, q)
		return nil
	})
	return results, err
}

func (s *QualificationService) GetByID(ctx context.Context, qualID int64) (*qualification.Qualification, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*qualification.Qualification, error) {
		q, err := s.quals.GetByID(txCtx, qualID)
		if err != nil {
			return nil, mapDBError(err, ErrQualificationNotFound)
		}
		return q, nil
	})
}

func (s *QualificationService) ListByStaff(ctx context.Context, staffID int64) ([]*qualification.Qualification, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]*qualification.Qualification, error) {
		return s.quals.ListByStaff(txCtx, staffID)
	})
}

func (s *QualificationService) ListTypes(ctx context.Context) ([]qualtype.QualificationType, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]qualtype.QualificationType, error) {
		return s.types.List(txCtx)
	})
}
