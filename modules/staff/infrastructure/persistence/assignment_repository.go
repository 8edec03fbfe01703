package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/staffledger/modules/staff/domain/entities/assignment"
	"github.com/iota-uz/staffledger/pkg/composables"
)

const assignmentColumns = `
	id, staff_id, department_id, facility_id, role_id, rank_id,
	start_date, end_date, reason, is_current, created_at`

type AssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &AssignmentRepository{}
}

func (r *AssignmentRepository) GetCurrent(ctx context.Context, staffID int64) (*assignment.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM staff_assignments WHERE staff_id = $1 AND is_current`,
		staffID,
	)
	a, err := scanAssignment(row.Scan)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AssignmentRepository) History(ctx context.Context, staffID int64) ([]*assignment.Assignment, error) {
	var results []*assignment.Assignment
	err := r.Each(ctx, staffID, func(a *assignment.Assignment) error {
		results = append(results, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AssignmentRepository) Each(ctx context.Context, staffID int64, fn func(*assignment.Assignment) error) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM staff_assignments
		 WHERE staff_id = $1
		 ORDER BY start_date ASC, id ASC`,
		staffID,
	)
	if err != nil {
		return gerrors.Wrap(err, "failed to query assignment history")
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO staff_assignments (
			staff_id, department_id, facility_id, role_id, rank_id,
			start_date, end_date, reason, is_current
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		a.StaffID, a.DepartmentID, a.FacilityID, a.RoleID, a.RankID,
		a.StartDate, a.EndDate, a.Reason, a.IsCurrent,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return gerrors.Wrap(err, "failed to insert assignment")
	}
	return nil
}

func (r *AssignmentRepository) Close(ctx context.Context, id int64, endDate time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE staff_assignments SET end_date = $2, is_current = FALSE WHERE id = $1 AND is_current`,
		id, endDate,
	)
	if err != nil {
		return gerrors.Wrap(err, "failed to close assignment")
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAssignment(scan func(dest ...any) error) (*assignment.Assignment, error) {
	var a assignment.Assignment
	if err := scan(
		&a.ID, &a.StaffID, &a.DepartmentID, &a.FacilityID, &a.RoleID, &a.RankID,
		&a.StartDate, &a.EndDate, &a.Reason, &a.IsCurrent, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
