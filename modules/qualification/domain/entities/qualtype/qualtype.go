package qualtype

import "context"

// QualificationType is a seeded reference catalog row, immutable during
// normal operation.
type QualificationType struct {
	ID   int64
	Code string
	Name string
}

type Repository interface {
	List(ctx context.Context) ([]QualificationType, error)
	GetByID(ctx context.Context, id int64) (QualificationType, error)
}
