package leaveapp

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Decided reports whether the status is terminal. The state machine only
// moves pending to one of the three terminal states.
func (s Status) Decided() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

type Application struct {
	ID              int64
	StaffID         int64
	CategoryID      int64
	StartDate       time.Time
	EndDate         time.Time
	TotalDays       decimal.Decimal
	Reason          string
	Status          Status
	ReviewerID      *int64
	RejectionReason *string
	DecidedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot is the audit representation of an application row.
type Snapshot struct {
	ID              int64   `json:"id"`
	StaffID         int64   `json:"staff_id"`
	CategoryID      int64   `json:"category_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       string  `json:"total_days"`
	Reason          string  `json:"reason"`
	Status          Status  `json:"status"`
	ReviewerID      *int64  `json:"reviewer_id"`
	RejectionReason *string `json:"rejection_reason"`
}

func (a *Application) Snapshot() Snapshot {
	return Snapshot{
		ID:              a.ID,
		StaffID:         a.StaffID,
		CategoryID:      a.CategoryID,
		StartDate:       a.StartDate.Format(time.DateOnly),
		EndDate:         a.EndDate.Format(time.DateOnly),
		TotalDays:       a.TotalDays.String(),
		Reason:          a.Reason,
		Status:          a.Status,
		ReviewerID:      a.ReviewerID,
		RejectionReason: a.RejectionReason,
	}
}

type FindParams struct {
	StaffID    *int64
	CategoryID *int64
	Status     Status
	Year       int
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Application, error)
	// GetByIDForUpdate locks the application row so competing reviews of the
	// same application serialize.
	GetByIDForUpdate(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, params *FindParams) ([]*Application, error)
	ListPendingByStaff(ctx context.Context, staffID int64) ([]*Application, error)
	Create(ctx context.Context, a *Application) error
	Update(ctx context.Context, a *Application) error
}
