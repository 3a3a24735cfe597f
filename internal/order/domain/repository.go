package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cursor is the decoded keyset position for order listing.
type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Status      OrderStatus
	CustomerID  *snowflake.ID
	CreatedBy   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Cursor      *Cursor
	Limit       int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	InsertNote(ctx context.Context, db *gorm.DB, note *OrderNote) error
	// FindByID loads the order with its items and notes, or nil when
	// absent.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Order, error)
	// UpdateStatusCAS moves the order to a new status only when the
	// stored version still matches expectedVersion, bumping the version.
	// Returns false when another writer won.
	UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, status OrderStatus, expectedVersion int64, now time.Time) (bool, error)
	// UpdateFieldsCAS patches mutable columns under the same version
	// check as status changes.
	UpdateFieldsCAS(ctx context.Context, db *gorm.DB, order *Order, expectedVersion int64) (bool, error)
	// ReplaceItems swaps the full item set and rewrites total_amount.
	ReplaceItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, items []OrderItem, totalAmount decimal.Decimal, now time.Time) error
	// SumPayments re-sums the ledger for the order inside the current
	// transaction. Source of truth for revert-to-quotation checks.
	SumPayments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (decimal.Decimal, error)
	// Delete removes the order and its dependent rows: items, notes,
	// payments and tasks.
	Delete(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
