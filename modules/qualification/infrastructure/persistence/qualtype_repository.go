package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/staffledger/modules/qualification/domain/entities/qualtype"
	"github.com/iota-uz/staffledger/pkg/composables"
)

type QualTypeRepository struct{}

func NewQualTypeRepository() qualtype.Repository {
	return &QualTypeRepository{}
}

func (r *QualTypeRepository) List(ctx context.Context) ([]qualtype.QualificationType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT id, code, name FROM qualification_types ORDER BY code`)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to list qualification types")
	}
	defer rows.Close()

	var results []qualtype.QualificationType
	for rows.Next() {
		var t qualtype.QualificationType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func (r *QualTypeRepository) GetByID(ctx context.Context, id int64) (qualtype.QualificationType, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return qualtype.QualificationType{}, err
	}
	var t qualtype.QualificationType
	if err := tx.QueryRow(ctx, `SELECT id, code, name FROM qualification_types WHERE id = $1`, id).
		Scan(&t.ID, &t.Code, &t.Name); err != nil {
		return qualtype.QualificationType{}, err
	}
	return t, nil
}
