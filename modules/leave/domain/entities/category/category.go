package category

import (
	"context"

	"github.com/shopspring/decimal"
)

// Category is the leave policy for one kind of absence. Categories are
// seeded reference data, immutable during normal operation.
type Category struct {
	ID                   int64
	Code                 string
	Name                 string
	IsPaid               bool
	AnnualAllowance      decimal.Decimal
	MinNoticeDays        int
	MaxConsecutiveDays   int // 0 means unlimited
	CarryForward         bool
	AllowNegativeBalance bool
	BusinessDaysOnly     bool
}

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (Category, error)
}
