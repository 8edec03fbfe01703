package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/staffledger/pkg/serrors"
)

var (
	ErrApplicationNotFound  = serrors.NotFound("APPLICATION_NOT_FOUND", "leave application not found")
	ErrEntitlementNotFound  = serrors.NotFound("ENTITLEMENT_NOT_FOUND", "no entitlement for staff, category and year")
	ErrCategoryNotFound     = serrors.NotFound("CATEGORY_NOT_FOUND", "leave category not found")
	ErrStaffNotFound        = serrors.NotFound("STAFF_NOT_FOUND", "staff member not found")
	ErrAlreadyDecided       = serrors.Conflict("ALREADY_DECIDED", "application has already been decided")
	ErrDuplicateEntitlement = serrors.Conflict("DUPLICATE_ENTITLEMENT", "entitlement already exists for staff, category and year")
	ErrInsufficientBalance  = serrors.Policy("INSUFFICIENT_BALANCE", "requested days exceed the remaining balance")
	ErrNoticeViolation      = serrors.Policy("NOTICE_VIOLATION", "minimum notice period not met")
	ErrConsecutiveLimit     = serrors.Policy("CONSECUTIVE_LIMIT_EXCEEDED", "requested days exceed the consecutive-day limit")
	ErrStaffNotActive       = serrors.Policy("STAFF_NOT_ACTIVE", "staff member is not active")
	ErrYearBoundary         = serrors.Validation("YEAR_BOUNDARY", "leave must not span a year boundary")
	ErrInvalidDateOrder     = serrors.Validation("INVALID_DATE_ORDER", "end date must not be before start date")
	ErrNoLeaveDays          = serrors.Validation("NO_LEAVE_DAYS", "the requested range contains no leave days")
	ErrLockTimeout          = serrors.Concurrency("LOCK_TIMEOUT", "timed out waiting for the entitlement row lock")
	ErrStaleUpdate          = serrors.Concurrency("SERIALIZATION_FAILURE", "concurrent update detected")
)

// mapDBError classifies errors surfacing from the persistence layer, keyed
// by SQLSTATE so the retry policy in composables can act on the kind.
func mapDBError(err error, notFound *serrors.BaseError) error {
	if err == nil {
		return nil
	}
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound.WithCause(err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		return ErrDuplicateEntitlement.WithCause(err)
	case "55P03": // lock_not_available
		recordLockTimeout()
		return ErrLockTimeout.WithCause(err)
	case "40001": // serialization_failure
		recordWriteConflict("serialization")
		return ErrStaleUpdate.WithCause(err)
	case "23503": // foreign_key_violation
		return serrors.Integrity("REFERENCE_VIOLATION", "referential integrity violated").WithCause(err)
	default:
		return err
	}
}
