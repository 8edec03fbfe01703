package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/staff/domain/aggregates/staff"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/repo"
)

const staffColumns = `
	id, employee_no, email, first_name, last_name,
	department_id, facility_id, role_id, rank_id,
	employment_status, supervisor_id, hire_date, termination_date,
	created_at, updated_at`

type StaffRepository struct {
	lockTimeout time.Duration
}

func NewStaffRepository(lockTimeout time.Duration) staff.Repository {
	return &StaffRepository{lockTimeout: lockTimeout}
}

func (r *StaffRepository) GetPaginated(ctx context.Context, params *staff.FindParams) ([]staff.Staff, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	where, args := buildStaffFilters(params)
	query := `SELECT ` + staffColumns + `
		FROM staff
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY employee_no ASC`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "failed to list staff")
	}
	defer rows.Close()

	var results []staff.Staff
	for rows.Next() {
		s, err := scanStaff(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM staff WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&total); err != nil {
		return nil, 0, gerrors.Wrap(err, "failed to count staff")
	}
	return results, total, nil
}

func (r *StaffRepository) GetByID(ctx context.Context, id int64) (staff.Staff, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	return scanStaff(row.Scan)
}

func (r *StaffRepository) GetByIDForUpdate(ctx context.Context, id int64) (staff.Staff, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	if err := repo.SetLocalLockTimeout(ctx, tx, r.lockTimeout); err != nil {
		return staff.Staff{}, gerrors.Wrap(err, "failed to set lock timeout")
	}
	row := tx.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1 FOR UPDATE`, id)
	return scanStaff(row.Scan)
}

func (r *StaffRepository) GetByEmployeeNo(ctx context.Context, employeeNo string) (staff.Staff, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE employee_no = $1`, employeeNo)
	return scanStaff(row.Scan)
}

func (r *StaffRepository) ExistsByIdentity(ctx context.Context, employeeNo, email string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM staff WHERE employee_no = $1 OR email = $2)`,
		employeeNo, email,
	).Scan(&exists); err != nil {
		return false, gerrors.Wrap(err, "failed to check staff identity")
	}
	return exists, nil
}

func (r *StaffRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM staff`).Scan(&count); err != nil {
		return 0, gerrors.Wrap(err, "failed to count staff")
	}
	return count, nil
}

func (r *StaffRepository) Create(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO staff (
			employee_no, email, first_name, last_name,
			department_id, facility_id, role_id, rank_id,
			employment_status, supervisor_id, hire_date, termination_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+staffColumns,
		s.EmployeeNo(), s.Email(), s.FirstName(), s.LastName(),
		s.Placement().DepartmentID, s.Placement().FacilityID, s.Placement().RoleID, s.Placement().RankID,
		s.Status(), s.SupervisorID(), s.HireDate(), s.TerminationDate(),
	)
	return scanStaff(row.Scan)
}

func (r *StaffRepository) Update(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return staff.Staff{}, err
	}
	row := tx.QueryRow(ctx, `
		UPDATE staff SET
			email = $2,
			first_name = $3,
			last_name = $4,
			department_id = $5,
			facility_id = $6,
			role_id = $7,
			rank_id = $8,
			employment_status = $9,
			supervisor_id = $10,
			termination_date = $11,
			updated_at = now()
		WHERE id = $1
		RETURNING `+staffColumns,
		s.ID(),
		s.Email(), s.FirstName(), s.LastName(),
		s.Placement().DepartmentID, s.Placement().FacilityID, s.Placement().RoleID, s.Placement().RankID,
		s.Status(), s.SupervisorID(), s.TerminationDate(),
	)
	return scanStaff(row.Scan)
}

func scanStaff(scan func(dest ...any) error) (staff.Staff, error) {
	var (
		id              int64
		employeeNo      string
		email           string
		firstName       string
		lastName        string
		placement       staff.Placement
		status          staff.Status
		supervisorID    *int64
		hireDate        time.Time
		terminationDate *time.Time
		createdAt       time.Time
		updatedAt       time.Time
	)
	if err := scan(
		&id, &employeeNo, &email, &firstName, &lastName,
		&placement.DepartmentID, &placement.FacilityID, &placement.RoleID, &placement.RankID,
		&status, &supervisorID, &hireDate, &terminationDate,
		&createdAt, &updatedAt,
	); err != nil {
		return staff.Staff{}, err
	}
	return staff.Hydrate(
		id, employeeNo, email, firstName, lastName,
		placement, status, supervisorID,
		hireDate, terminationDate, createdAt, updatedAt,
	), nil
}

func buildStaffFilters(params *staff.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if q := strings.TrimSpace(params.Q); q != "" {
		where = append(where, fmt.Sprintf(
			"(employee_no ILIKE $%d OR email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			argPos, argPos, argPos, argPos,
		))
		args = append(args, "%"+q+"%")
		argPos++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("employment_status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}
	if params.DepartmentID != nil {
		where = append(where, fmt.Sprintf("department_id = $%d", argPos))
		args = append(args, *params.DepartmentID)
	}
	return where, args
}
