package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/staffledger/pkg/serrors"
)

var (
	ErrStaffNotFound      = serrors.NotFound("STAFF_NOT_FOUND", "staff member not found")
	ErrAssignmentNotFound = serrors.NotFound("ASSIGNMENT_NOT_FOUND", "no current assignment for staff member")
	ErrDuplicateIdentity  = serrors.Conflict("DUPLICATE_IDENTITY", "employee number or email already in use")
	ErrCycleDetected      = serrors.Validation("CYCLE_DETECTED", "supervisor chain would form a cycle")
	ErrInvalidDateOrder   = serrors.Validation("INVALID_DATE_ORDER", "start date must be after the current assignment start date")
	ErrUnknownPlacement   = serrors.Validation("UNKNOWN_PLACEMENT", "department, facility, role or rank does not exist")
	ErrStaffNotActive     = serrors.Policy("STAFF_NOT_ACTIVE", "staff member is not active")
	ErrLockTimeout        = serrors.Concurrency("LOCK_TIMEOUT", "timed out waiting for the staff row lock")
	ErrStaleUpdate        = serrors.Concurrency("SERIALIZATION_FAILURE", "concurrent update detected")
)

// mapDBError classifies errors surfacing from the persistence layer.
// Already-classified errors pass through; raw postgres errors are mapped by
// SQLSTATE so the retry policy in composables can act on the kind.
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
		return ErrDuplicateIdentity.WithCause(err)
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
