package qualification

import (
	"context"
	"time"
)

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRevoked  VerificationStatus = "revoked"
	StatusExpired  VerificationStatus = "expired"
)

// Active statuses count towards the duplicate check: a revoked or expired
// qualification may be recorded again.
func (s VerificationStatus) Active() bool {
	return s == StatusPending || s == StatusVerified
}

// Qualification is one credential held by a staff member. A nil ExpiresOn
// means the credential never expires; expiry is always derived against a
// caller-supplied clock, never stored back.
type Qualification struct {
	ID                 int64
	StaffID            int64
	TypeID             int64
	Name               string
	IssuedOn           time.Time
	ExpiresOn          *time.Time
	VerificationStatus VerificationStatus
	VerifiedBy         *int64
	VerifiedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExpiresBetween reports whether the credential expires inside (from, to].
func (q *Qualification) ExpiresBetween(from, to time.Time) bool {
	if q.ExpiresOn == nil {
		return false
	}
	return q.ExpiresOn.After(from) && !q.ExpiresOn.After(to)
}

// Snapshot is the audit representation of a qualification row.
type Snapshot struct {
	ID                 int64   `json:"id"`
	StaffID            int64   `json:"staff_id"`
	TypeID             int64   `json:"type_id"`
	Name               string  `json:"name"`
	IssuedOn           string  `json:"issued_on"`
	ExpiresOn          *string `json:"expires_on"`
	VerificationStatus string  `json:"verification_status"`
	VerifiedBy         *int64  `json:"verified_by"`
}

func (q *Qualification) Snapshot() Snapshot {
	snap := Snapshot{
		ID:                 q.ID,
		StaffID:            q.StaffID,
		TypeID:             q.TypeID,
		Name:               q.Name,
		IssuedOn:           q.IssuedOn.Format(time.DateOnly),
		VerificationStatus: string(q.VerificationStatus),
		VerifiedBy:         q.VerifiedBy,
	}
	if q.ExpiresOn != nil {
		d := q.ExpiresOn.Format(time.DateOnly)
		snap.ExpiresOn = &d
	}
	return snap
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Qualification, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Qualification, error)
	ListByStaff(ctx context.Context, staffID int64) ([]*Qualification, error)
	// ExistsActive reports whether an active (pending or verified)
	// qualification with the same staff, type and name already exists.
	ExistsActive(ctx context.Context, staffID, typeID int64, name string) (bool, error)
	Create(ctx context.Context, q *Qualification) error
	Update(ctx context.Context, q *Qualification) error
	// EachExpiring streams verified qualifications whose expiry falls inside
	// (from, to], ordered by expiry ascending. Returning an error from fn
	// stops the scan.
	EachExpiring(ctx context.Context, from, to time.Time, fn func(*Qualification) error) error
}
