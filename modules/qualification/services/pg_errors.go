package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/staffledger/pkg/serrors"
)

var (
	ErrQualificationNotFound  = serrors.NotFound("QUALIFICATION_NOT_FOUND", "qualification not found")
	ErrTypeNotFound           = serrors.NotFound("QUALIFICATION_TYPE_NOT_FOUND", "qualification type not found")
	ErrStaffNotFound          = serrors.NotFound("STAFF_NOT_FOUND", "staff member not found")
	ErrDuplicateQualification = serrors.Conflict("DUPLICATE_QUALIFICATION", "an active qualification with this type and name already exists")
	ErrNotPending             = serrors.Conflict("QUALIFICATION_NOT_PENDING", "only pending qualifications can be verified or revoked")
	ErrInvalidStatus          = serrors.Validation("INVALID_STATUS", "status must be verified or revoked")
	ErrLockTimeout            = serrors.Concurrency("LOCK_TIMEOUT", "timed out waiting for the qualification row lock")
	ErrStaleUpdate            = serrors.Concurrency("SERIALIZATION_FAILURE", "concurrent update detected")
)

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
		return ErrDuplicateQualification.WithCause(err)
	case "55P03": // lock_not_available
		return ErrLockTimeout.WithCause(err)
	case "40001": // serialization_failure
		return ErrStaleUpdate.WithCause(err)
	case "23503": // foreign_key_violation
		return serrors.Integrity("REFERENCE_VIOLATION", "referential integrity violated").WithCause(err)
	default:
		return err
	}
}
