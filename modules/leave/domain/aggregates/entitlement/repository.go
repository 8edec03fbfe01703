package entitlement

import (
	"context"
)

type Key struct {
	StaffID    int64
	CategoryID int64
	Year       int
}

type Repository interface {
	Get(ctx context.Context, key Key) (Entitlement, error)
	// GetForUpdate locks the entitlement row, serializing balance mutations
	// for one (staff, category, year). The wait is bounded by the configured
	// lock timeout.
	GetForUpdate(ctx context.Context, key Key) (Entitlement, error)
	ListByStaffYear(ctx context.Context, staffID int64, year int) ([]Entitlement, error)
	// ListForYear returns every entitlement of a year, for rollover.
	ListForYear(ctx context.Context, year int) ([]Entitlement, error)
	Exists(ctx context.Context, key Key) (bool, error)
	Create(ctx context.Context, e Entitlement) (Entitlement, error)
	Update(ctx context.Context, e Entitlement) (Entitlement, error)
}
