package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/staff/domain/entities/catalog"
	"github.com/iota-uz/staffledger/pkg/composables"
)

type CatalogRepository struct{}

func NewCatalogRepository() catalog.Repository {
	return &CatalogRepository{}
}

func (r *CatalogRepository) Departments(ctx context.Context) ([]catalog.Department, error) {
	var results []catalog.Department
	err := listCatalog(ctx, "departments", func(scan func(...any) error) error {
		var d catalog.Department
		if err := scan(&d.ID, &d.Code, &d.Name); err != nil {
			return err
		}
		results = append(results, d)
		return nil
	})
	return results, err
}

func (r *CatalogRepository) Facilities(ctx context.Context) ([]catalog.Facility, error) {
	var results []catalog.Facility
	err := listCatalog(ctx, "facilities", func(scan func(...any) error) error {
		var f catalog.Facility
		if err := scan(&f.ID, &f.Code, &f.Name); err != nil {
			return err
		}
		results = append(results, f)
		return nil
	})
	return results, err
}

func (r *CatalogRepository) Roles(ctx context.Context) ([]catalog.Role, error) {
	var results []catalog.Role
	err := listCatalog(ctx, "roles", func(scan func(...any) error) error {
		var role catalog.Role
		if err := scan(&role.ID, &role.Code, &role.Name); err != nil {
			return err
		}
		results = append(results, role)
		return nil
	})
	return results, err
}

func (r *CatalogRepository) Ranks(ctx context.Context) ([]catalog.Rank, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT id, code, name, level FROM ranks ORDER BY level ASC, code ASC`)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list ranks")
	}
	defer rows.Close()

	var results []catalog.Rank
	for rows.Next() {
		var rank catalog.Rank
		if err := rows.Scan(&rank.ID, &rank.Code, &rank.Name, &rank.Level); err != nil {
			return nil, err
		}
		results = append(results, rank)
	}
	return results, rows.Err()
}

func (r *CatalogRepository) PlacementExists(ctx context.Context, departmentID, facilityID, roleID, rankID int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)
		   AND EXISTS (SELECT 1 FROM facilities WHERE id = $2)
		   AND EXISTS (SELECT 1 FROM roles WHERE id = $3)
		   AND EXISTS (SELECT 1 FROM ranks WHERE id = $4)`,
		departmentID, facilityID, roleID, rankID,
	).Scan(&exists); err != nil {
		return false, gerrors.Wrap(err, "failed to resolve placement references")
	}
	return exists, nil
}

func listCatalog(ctx context.Context, table string, scanRow func(func(...any) error) error) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `SELECT id, code, name FROM `+table+` ORDER BY code ASC`)
	if err != nil {
		return gerrors.Wrap(err, "failed to list "+table)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scanRow(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}
