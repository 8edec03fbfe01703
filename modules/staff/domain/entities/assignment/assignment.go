package assignment

import (
	"context"
	"time"
)

const (
	ReasonHire        = "hire"
	ReasonTransfer    = "transfer"
	ReasonPromotion   = "promotion"
	ReasonTermination = "termination"
)

// Assignment is one row of the append-only placement ledger. A nil EndDate
// means the assignment is open; for each staff member at most one row is
// open and flagged current.
type Assignment struct {
	ID           int64
	StaffID      int64
	DepartmentID int64
	FacilityID   int64
	RoleID       int64
	RankID       int64
	StartDate    time.Time
	EndDate      *time.Time
	Reason       string
	IsCurrent    bool
	CreatedAt    time.Time
}

// Snapshot is the audit representation of an assignment row.
type Snapshot struct {
	ID           int64   `json:"id"`
	StaffID      int64   `json:"staff_id"`
	DepartmentID int64   `json:"department_id"`
	FacilityID   int64   `json:"facility_id"`
	RoleID       int64   `json:"role_id"`
	RankID       int64   `json:"rank_id"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Reason       string  `json:"reason"`
	IsCurrent    bool    `json:"is_current"`
}

func (a *Assignment) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           a.ID,
		StaffID:      a.StaffID,
		DepartmentID: a.DepartmentID,
		FacilityID:   a.FacilityID,
		RoleID:       a.RoleID,
		RankID:       a.RankID,
		StartDate:    a.StartDate.Format(time.DateOnly),
		Reason:       a.Reason,
		IsCurrent:    a.IsCurrent,
	}
	if a.EndDate != nil {
		d := a.EndDate.Format(time.DateOnly)
		snap.EndDate = &d
	}
	return snap
}

type Repository interface {
	GetCurrent(ctx context.Context, staffID int64) (*Assignment, error)
	// History returns all assignments for staffID ordered by start date
	// ascending.
	History(ctx context.Context, staffID int64) ([]*Assignment, error)
	// Each streams assignments in history order without materializing the
	// full slice. Returning an error from fn stops the scan.
	Each(ctx context.Context, staffID int64, fn func(*Assignment) error) error
	Create(ctx context.Context, a *Assignment) error
	// Close ends an open assignment: end date set, current flag cleared.
	Close(ctx context.Context, id int64, endDate time.Time) error
}
