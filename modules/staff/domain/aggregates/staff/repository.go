package staff

import (
	"context"
)

type FindParams struct {
	Q            string
	Status       Status
	DepartmentID *int64
	Limit        int
	Offset       int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Staff, int64, error)
	GetByID(ctx context.Context, id int64) (Staff, error)
	// GetByIDForUpdate locks the staff row, serializing mutations on one
	// staff member. The wait is bounded by the configured lock timeout.
	GetByIDForUpdate(ctx context.Context, id int64) (Staff, error)
	GetByEmployeeNo(ctx context.Context, employeeNo string) (Staff, error)
	ExistsByIdentity(ctx context.Context, employeeNo, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, s Staff) (Staff, error)
	Update(ctx context.Context, s Staff) (Staff, error)
}
