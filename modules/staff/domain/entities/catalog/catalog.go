package catalog

import (
	"context"
)

// Reference catalogs are seeded lookup sets, immutable during normal
// operation. They are validated against on hire and reassignment but never
// mutated through the ledger API.

type Department struct {
	ID   int64
	Code string
	Name string
}

type Facility struct {
	ID   int64
	Code string
	Name string
}

type Role struct {
	ID   int64
	Code string
	Name string
}

type Rank struct {
	ID    int64
	Code  string
	Name  string
	Level int
}

type Repository interface {
	Departments(ctx context.Context) ([]Department, error)
	Facilities(ctx context.Context) ([]Facility, error)
	Roles(ctx context.Context) ([]Role, error)
	Ranks(ctx context.Context) ([]Rank, error)
	// PlacementExists reports whether all four catalog references resolve.
	PlacementExists(ctx context.Context, departmentID, facilityID, roleID, rankID int64) (bool, error)
}
