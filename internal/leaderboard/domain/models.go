package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnattributedBucket collects activity whose creator cannot be resolved
// from either the order or its customer. It always sorts last.
const UnattributedBucket = "unattributed"

// Row is one staff member's standing for the requested window.
type Row struct {
	StaffID        string          `json:"staff_id"`
	StaffName      string          `json:"staff_name"`
	NewOrders      int64           `json:"new_orders"`
	NewOrdersValue decimal.Decimal `json:"new_orders_value"`
	PaidOrders     int64           `json:"paid_orders"`
	PaidRevenue    decimal.Decimal `json:"paid_revenue"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
	WeightedScore  decimal.Decimal `json:"weighted_score"`
}

type ComputeRequest struct {
	From time.Time
	To   time.Time
}

type ComputeResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Rows []Row     `json:"rows"`
}

// OrderFact and PaymentFact are the raw window slices the aggregation
// runs over. Attribution falls back from the order's creator to the
// owning customer's creator.
type OrderFact struct {
	OrderID           int64
	TotalAmount       decimal.Decimal
	CreatedBy         string
	CreatedByName     string
	CustomerCreatedBy string
	CustomerCreatorNm string
}

type PaymentFact struct {
	OrderID           int64
	Amount            decimal.Decimal
	CreatedBy         string
	CreatedByName     string
	CustomerCreatedBy string
	CustomerCreatorNm string
}

type Repository interface {
	// OrdersInWindow returns orders created inside [from, to].
	OrdersInWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]OrderFact, error)
	// PaymentsInWindow returns payments dated inside [from, to], joined
	// to their order and its customer for attribution.
	PaymentsInWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]PaymentFact, error)
}

type Service interface {
	// Compute aggregates the window. Pure over historical data;
	// restartable and idempotent.
	Compute(ctx context.Context, req ComputeRequest) (ComputeResponse, error)
}

var ErrInvalidWindow = errors.New("invalid_window")
