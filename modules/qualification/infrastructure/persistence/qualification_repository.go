package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualification"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/repo"
)

const qualificationColumns = `
	id, staff_id, qualification_type_id, name, issued_on, expires_on,
	verification_status, verified_by, verified_at, created_at, updated_at`

type QualificationRepository struct {
	lockTimeout time.Duration
}

func NewQualificationRepository(lockTimeout time.Duration) qualification.Repository {
	return &QualificationRepository{lockTimeout: lockTimeout}
}

func (r *QualificationRepository) GetByID(ctx context.Context, id int64) (*qualification.Qualification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+qualificationColumns+` FROM staff_qualifications WHERE id = $1`, id)
	return scanQualification(row.Scan)
}

func (r *QualificationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*qualification.Qualification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.SetLocalLockTimeout(ctx, tx, r.lockTimeout); err != nil {
		return nil, gerrors.Wrap(err, "failed to set lock timeout")
	}
	row := tx.QueryRow(ctx, `SELECT `+qualificationColumns+` FROM staff_qualifications WHERE id = $1 FOR UPDATE`, id)
	return scanQualification(row.Scan)
}

func (r *QualificationRepository) ListByStaff(ctx context.Context, staffID int64) ([]*qualification.Qualification, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+qualificationColumns+`
		FROM staff_qualifications
		WHERE staff_id = $1
		ORDER BY issued_on DESC, id DESC`, staffID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list qualifications")
	}
	defer rows.Close()

	var results []*qualification.Qualification
	for rows.Next() {
		q, err := scanQualification(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

func (r *QualificationRepository) ExistsActive(ctx context.Context, staffID, typeID int64, name string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM staff_qualifications
			WHERE staff_id = $1
			  AND qualification_type_id = $2
			  AND name = $3
			  AND verification_status IN ('pending', 'verified')
		)`, staffID, typeID, name,
	).Scan(&exists); err != nil {
		return false, gerrors.Wrap(err, "failed to check active qualification")
	}
	return exists, nil
}

func (r *QualificationRepository) Create(ctx context.Context, q *qualification.Qualification) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO staff_qualifications (
			staff_id, qualification_type_id, name, issued_on, expires_on, verification_status
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		q.StaffID, q.TypeID, q.Name, q.IssuedOn, q.ExpiresOn, q.VerificationStatus,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return gerrors.Wrap(err, "failed to insert qualification")
	}
	return nil
}

func (r *QualificationRepository) Update(ctx context.Context, q *qualification.Qualification) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		UPDATE staff_qualifications SET
			verification_status = $2,
			verified_by = $3,
			verified_at = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		q.ID, q.VerificationStatus, q.VerifiedBy, q.VerifiedAt,
	).Scan(&q.UpdatedAt); err != nil {
		return gerrors.Wrap(err, "failed to update qualification")
	}
	return nil
}

func (r *QualificationRepository) EachExpiring(ctx context.Context, from, to time.Time, fn func(*qualification.Qualification) error) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+qualificationColumns+`
		FROM staff_qualifications
		WHERE verification_status = 'verified'
		  AND expires_on IS NOT NULL
		  AND expires_on > $1
		  AND expires_on <= $2
		ORDER BY expires_on ASC, id ASC`, from, to)
	if err != nil {
		return gerrors.Wrap(err, "failed to scan expiring qualifications")
	}
	defer rows.Close()

	for rows.Next() {
		q, err := scanQualification(rows.Scan)
		if err != nil {
			return err
		}
		if err := fn(q); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanQualification(scan func(dest ...any) error) (*qualification.Qualification, error) {
	var q qualification.Qualification
	if err := scan(
		&q.ID, &q.StaffID, &q.TypeID, &q.Name, &q.IssuedOn, &q.ExpiresOn,
		&q.VerificationStatus, &q.VerifiedBy, &q.VerifiedAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &q, nil
}
