package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecordPaymentRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	Method    Method
	Reference string
	Notes     string
	// Date defaults to the current time when zero.
	Date time.Time
}

// RecordResult reports what the ledger did, for audit metadata and
// caller messaging.
type RecordResult struct {
	Payment       Payment
	TotalPaid     decimal.Decimal
	AutoAdvanced  bool
	TaskCompleted bool
}

type Service interface {
	// Record appends a payment in its own transaction and dispatches
	// the notification after commit.
	Record(ctx context.Context, req RecordPaymentRequest) (RecordResult, error)
	// RecordTx appends a payment inside the caller's transaction. The
	// caller owns commit, rollback and notification dispatch.
	RecordTx(ctx context.Context, tx *gorm.DB, req RecordPaymentRequest) (RecordResult, error)
	// TotalPaid sums the order's payments, optionally bounded to a date
	// range, rounding at each accumulation step.
	TotalPaid(ctx context.Context, orderID string, from, to *time.Time) (decimal.Decimal, error)
	// StatusOf derives unpaid/partial/paid from the ledger. Recomputed
	// on every call, never cached.
	StatusOf(ctx context.Context, orderID string) (PaymentStatus, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidMethod = errors.New("invalid_method")
	ErrInvalidID     = errors.New("invalid_id")
	ErrOrderNotFound = errors.New("order_not_found")
)

// DeriveStatus computes the payment status from a ledger total and the
// order total.
func DeriveStatus(totalPaid, totalAmount decimal.Decimal) PaymentStatus {
	switch {
	case totalPaid.IsZero() || totalPaid.IsNegative():
		return StatusUnpaid
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return StatusPaid
	default:
		return StatusPartial
	}
}
