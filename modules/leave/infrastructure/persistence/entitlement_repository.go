package persistence

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffledger/modules/leave/domain/aggregates/entitlement"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/repo"
)

const entitlementColumns = `
	id, staff_id, category_id, year,
	allocated_days, carried_forward_days, used_days, pending_days,
	created_at, updated_at`

type EntitlementRepository struct {
	lockTimeout time.Duration
}

func NewEntitlementRepository(lockTimeout time.Duration) entitlement.Repository {
	return &EntitlementRepository{lockTimeout: lockTimeout}
}

func (r *EntitlementRepository) Get(ctx context.Context, key entitlement.Key) (entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	row := tx.QueryRow(ctx,
		`SELECT `+entitlementColumns+`
		 FROM leave_entitlements
		 WHERE staff_id = $1 AND category_id = $2 AND year = $3`,
		key.StaffID, key.CategoryID, key.Year,
	)
	return scanEntitlement(row.Scan)
}

func (r *EntitlementRepository) GetForUpdate(ctx context.Context, key entitlement.Key) (entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	if err := repo.SetLocalLockTimeout(ctx, tx, r.lockTimeout); err != nil {
		return entitlement.Entitlement{}, gerrors.Wrap(err, "failed to set lock timeout")
	}
	row := tx.QueryRow(ctx,
		`SELECT `+entitlementColumns+`
		 FROM leave_entitlements
		 WHERE staff_id = $1 AND category_id = $2 AND year = $3
		 FOR UPDATE`,
		key.StaffID, key.CategoryID, key.Year,
	)
	return scanEntitlement(row.Scan)
}

func (r *EntitlementRepository) ListByStaffYear(ctx context.Context, staffID int64, year int) ([]entitlement.Entitlement, error) {
	return r.list(ctx,
		`SELECT `+entitlementColumns+`
		 FROM leave_entitlements
		 WHERE staff_id = $1 AND year = $2
		 ORDER BY category_id ASC`,
		staffID, year,
	)
}

func (r *EntitlementRepository) ListForYear(ctx context.Context, year int) ([]entitlement.Entitlement, error) {
	return r.list(ctx,
		`SELECT `+entitlementColumns+`
		 FROM leave_entitlements
		 WHERE year = $1
		 ORDER BY staff_id ASC, category_id ASC`,
		year,
	)
}

func (r *EntitlementRepository) list(ctx context.Context, query string, args ...any) ([]entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list entitlements")
	}
	defer rows.Close()

	var results []entitlement.Entitlement
	for rows.Next() {
		e, err := scanEntitlement(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func (r *EntitlementRepository) Exists(ctx context.Context, key entitlement.Key) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM leave_entitlements
			WHERE staff_id = $1 AND category_id = $2 AND year = $3
		)`,
		key.StaffID, key.CategoryID, key.Year,
	).Scan(&exists); err != nil {
		return false, gerrors.Wrap(err, "failed to check entitlement existence")
	}
	return exists, nil
}

func (r *EntitlementRepository) Create(ctx context.Context, e entitlement.Entitlement) (entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO leave_entitlements (
			staff_id, category_id, year,
			allocated_days, carried_forward_days, used_days, pending_days
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+entitlementColumns,
		e.StaffID(), e.CategoryID(), e.Year(),
		e.Allocated(), e.CarriedForward(), e.Used(), e.Pending(),
	)
	return scanEntitlement(row.Scan)
}

func (r *EntitlementRepository) Update(ctx context.Context, e entitlement.Entitlement) (entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	row := tx.QueryRow(ctx, `
		UPDATE leave_entitlements SET
			allocated_days = $2,
			carried_forward_days = $3,
			used_days = $4,
			pending_days = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING `+entitlementColumns,
		e.ID(), e.Allocated(), e.CarriedForward(), e.Used(), e.Pending(),
	)
	return scanEntitlement(row.Scan)
}

func scanEntitlement(scan func(dest ...any) error) (entitlement.Entitlement, error) {
	var (
		id         int64
		staffID    int64
		categoryID int64
		year       int
		allocated  decimal.Decimal
		carried    decimal.Decimal
		used       decimal.Decimal
		pending    decimal.Decimal
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := scan(
		&id, &staffID, &categoryID, &year,
		&allocated, &carried, &used, &pending,
		&createdAt, &updatedAt,
	); err != nil {
		return entitlement.Entitlement{}, err
	}
	return entitlement.Hydrate(id, staffID, categoryID, year, allocated, carried, used, pending, createdAt, updatedAt), nil
}
