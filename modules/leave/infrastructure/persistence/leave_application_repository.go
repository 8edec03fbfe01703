package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/leave/domain/entities/leaveapp"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/repo"
)

const applicationColumns = `
	id, staff_id, category_id, start_date, end_date, total_days,
	reason, status, reviewer_id, rejection_reason, decided_at,
	created_at, updated_at`

type LeaveApplicationRepository struct {
	lockTimeout time.Duration
}

func NewLeaveApplicationRepository(lockTimeout time.Duration) leaveapp.Repository {
	return &LeaveApplicationRepository{lockTimeout: lockTimeout}
}

func (r *LeaveApplicationRepository) GetByID(ctx context.Context, id int64) (*leaveapp.Application, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRow(ctx, `SELECT `+applicationColumns+` FROM leave_applications WHERE id = $1`, id)
	return scanApplication(row.Scan)
}

func (r *LeaveApplicationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leaveapp.Application, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.SetLocalLockTimeout(ctx, tx, r.lockTimeout); err != nil {
		return nil, gerrors.Wrap(err, "failed to set lock timeout")
	}
	row := tx.QueryRow(ctx, `SELECT `+applicationColumns+` FROM leave_applications WHERE id = $1 FOR UPDATE`, id)
	return scanApplication(row.Scan)
}

func (r *LeaveApplicationRepository) List(ctx context.Context, params *leaveapp.FindParams) ([]*leaveapp.Application, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildApplicationFilters(params)
	query := `SELECT ` + applicationColumns + `
		FROM leave_applications
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_date DESC, id DESC`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list leave applications")
	}
	defer rows.Close()

	var results []*leaveapp.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (r *LeaveApplicationRepository) ListPendingByStaff(ctx context.Context, staffID int64) ([]*leaveapp.Application, error) {
	return r.List(ctx, &leaveapp.FindParams{StaffID: &staffID, Status: leaveapp.StatusPending})
}

func (r *LeaveApplicationRepository) Create(ctx context.Context, a *leaveapp.Application) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO leave_applications (
			staff_id, category_id, start_date, end_date, total_days, reason, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		a.StaffID, a.CategoryID, a.StartDate, a.EndDate, a.TotalDays, a.Reason, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return gerrors.Wrap(err, "failed to insert leave application")
	}
	return nil
}

func (r *LeaveApplicationRepository) Update(ctx context.Context, a *leaveapp.Application) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `
		UPDATE leave_applications SET
			status = $2,
			reviewer_id = $3,
			rejection_reason = $4,
			decided_at = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Status, a.ReviewerID, a.RejectionReason, a.DecidedAt,
	).Scan(&a.UpdatedAt); err != nil {
		return gerrors.Wrap(err, "failed to update leave application")
	}
	return nil
}

func scanApplication(scan func(dest ...any) error) (*leaveapp.Application, error) {
	var a leaveapp.Application
	if err := scan(
		&a.ID, &a.StaffID, &a.CategoryID, &a.StartDate, &a.EndDate, &a.TotalDays,
		&a.Reason, &a.Status, &a.ReviewerID, &a.RejectionReason, &a.DecidedAt,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func buildApplicationFilters(params *leaveapp.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if params.StaffID != nil {
		where = append(where, fmt.Sprintf("staff_id = $%d", argPos))
		args = append(args, *params.StaffID)
		argPos++
	}
	if params.CategoryID != nil {
		where = append(where, fmt.Sprintf("category_id = $%d", argPos))
		args = append(args, *params.CategoryID)
		argPos++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}
	if params.Year != 0 {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM start_date) = $%d", argPos))
		args = append(args, params.Year)
	}
	return where, args
}
