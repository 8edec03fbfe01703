package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/leave/domain/entities/category"
	"github.com/iota-uz/staffledger/pkg/composables"
)

const categoryColumns = `
	id, code, name, is_paid, annual_allowance, min_notice_days,
	max_consecutive_days, carry_forward, allow_negative_balance, business_days_only`

type CategoryRepository struct{}

func NewCategoryRepository() category.Repository {
	return &CategoryRepository{}
}

func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+categoryColumns+` FROM leave_categories ORDER BY code ASC`)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list leave categories")
	}
	defer rows.Close()

	var results []category.Category
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (category.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return category.Category{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+categoryColumns+` FROM leave_categories WHERE id = $1`, id)
	return scanCategory(row.Scan)
}

func scanCategory(scan func(dest ...any) error) (category.Category, error) {
	var c category.Category
	if err := scan(
		&c.ID, &c.Code, &c.Name, &c.IsPaid, &c.AnnualAllowance, &c.MinNoticeDays,
		&c.MaxConsecutiveDays, &c.CarryForward, &c.AllowNegativeBalance, &c.BusinessDaysOnly,
	); err != nil {
		return category.Category{}, err
	}
	return c, nil
}
