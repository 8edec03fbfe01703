package entitlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entitlement is a staff member's leave budget for one category in one
// year. Remaining is always derived from the four stored components; it is
// never written independently.
type Entitlement struct {
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
}

func New(staffID, categoryID int64, year int, allocated, carried decimal.Decimal) Entitlement {
	return Entitlement{
		staffID:    staffID,
		categoryID: categoryID,
		year:       year,
		allocated:  allocated,
		carried:    carried,
		used:       decimal.Zero,
		pending:    decimal.Zero,
	}
}

func Hydrate(
	id int64,
	staffID int64,
	categoryID int64,
	year int,
	allocated decimal.Decimal,
	carried decimal.Decimal,
	used decimal.Decimal,
	pending decimal.Decimal,
	createdAt time.Time,
	updatedAt time.Time,
) Entitlement {
	return Entitlement{
		id:         id,
		staffID:    staffID,
		categoryID: categoryID,
		year:       year,
		allocated:  allocated,
		carried:    carried,
		used:       used,
		pending:    pending,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (e Entitlement) ID() int64                       { return e.id }
func (e Entitlement) StaffID() int64                  { return e.staffID }
func (e Entitlement) CategoryID() int64               { return e.categoryID }
func (e Entitlement) Year() int                       { return e.year }
func (e Entitlement) Allocated() decimal.Decimal      { return e.allocated }
func (e Entitlement) CarriedForward() decimal.Decimal { return e.carried }
func (e Entitlement) Used() decimal.Decimal           { return e.used }
func (e Entitlement) Pending() decimal.Decimal        { return e.pending }
func (e Entitlement) CreatedAt() time.Time            { return e.createdAt }
func (e Entitlement) UpdatedAt() time.Time            { return e.updatedAt }
func (e Entitlement) IsZero() bool                    { return e.id == 0 && e.staffID == 0 }

// Remaining is the derived balance: allocated + carried − used − pending.
func (e Entitlement) Remaining() decimal.Decimal {
	return e.allocated.Add(e.carried).Sub(e.used).Sub(e.pending)
}

// CanReserve reports whether days fit in the remaining balance under the
// negative-balance policy.
func (e Entitlement) CanReserve(days decimal.Decimal, allowNegative bool) bool {
	if allowNegative {
		return true
	}
	return e.Remaining().GreaterThanOrEqual(days)
}

// Reserve moves days into pending when an application is filed.
func (e Entitlement) Reserve(days decimal.Decimal) Entitlement {
	e.pending = e.pending.Add(days)
	return e
}

// Consume moves days from pending to used when an application is approved.
func (e Entitlement) Consume(days decimal.Decimal) Entitlement {
	e.pending = e.pending.Sub(days)
	e.used = e.used.Add(days)
	return e
}

// Release returns pending days to the balance on rejection or cancellation.
func (e Entitlement) Release(days decimal.Decimal) Entitlement {
	e.pending = e.pending.Sub(days)
	return e
}

// Snapshot is the audit representation of an entitlement row. Remaining is
// included for readability of the trail; it is recomputed, not stored.
type Snapshot struct {
	ID             int64  `json:"id"`
	StaffID        int64  `json:"staff_id"`
	CategoryID     int64  `json:"category_id"`
	Year           int    `json:"year"`
	Allocated      string `json:"allocated_days"`
	CarriedForward string `json:"carried_forward_days"`
	Used           string `json:"used_days"`
	Pending        string `json:"pending_days"`
	Remaining      string `json:"remaining_days"`
}

func (e Entitlement) Snapshot() Snapshot {
	return Snapshot{
		ID:             e.id,
		StaffID:        e.staffID,
		CategoryID:     e.categoryID,
		Year:           e.year,
		Allocated:      e.allocated.String(),
		CarriedForward: e.carried.String(),
		Used:           e.used.String(),
		Pending:        e.pending.String(),
		Remaining:      e.Remaining().String(),
	}
}
