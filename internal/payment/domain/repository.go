package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRow is the slice of the order record the ledger reads and writes.
// The payment service is the single writer of total_paid and
// last_payment_date; it never touches any other order column except the
// quotation-to-production auto-advance.
type OrderRow struct {
	ID          snowflake.ID
	Number      string
	Status      string
	TotalAmount decimal.Decimal
	TotalPaid   decimal.Decimal
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*Payment, error)
	ListInRange(ctx context.Context, db *gorm.DB, orderID snowflake.ID, from, to *time.Time) ([]*Payment, error)
	FindOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*OrderRow, error)
	// SyncOrderTotals rewrites the order's total_paid and
	// last_payment_date from a full re-sum of its payments and returns
	// the new total. Always a re-sum, never an increment, so concurrent
	// writers cannot lose updates.
	SyncOrderTotals(ctx context.Context, db *gorm.DB, orderID snowflake.ID, at time.Time) (decimal.Decimal, error)
	// AdvanceFromQuotation moves the order to production if it still
	// sits at quotation, reporting whether the transition happened.
	AdvanceFromQuotation(ctx context.Context, db *gorm.DB, orderID snowflake.ID, at time.Time) (bool, error)
}
