package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Order is the operational record advancing through the manufacturing
// pipeline. total_paid and last_payment_date mirror the payment ledger
// and are written only by the payment service; total_amount mirrors the
// line items and is written only by the order service.
type Order struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number          string          `gorm:"type:text;not null;uniqueIndex" json:"number"`
	CustomerID      snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Status          OrderStatus     `gorm:"type:text;not null;index" json:"status"`
	Version         int64           `gorm:"not null;default:0" json:"version"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	TotalPaid       decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_paid"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
	DeliveryMethod  string          `gorm:"type:text" json:"delivery_method,omitempty"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address,omitempty"`
	ExpectedDate    *time.Time      `json:"expected_date,omitempty"`
	CreatedBy       string          `gorm:"type:text;not null;index" json:"created_by"`
	CreatedByName   string          `gorm:"type:text" json:"created_by_name"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Notes []OrderNote `gorm:"foreignKey:OrderID" json:"notes,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID    `gorm:"not null;index" json:"order_id"`
	ProductID   string          `gorm:"type:text;not null" json:"product_id"`
	ProductName string          `gorm:"type:text;not null" json:"product_name"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric;not null" json:"line_total"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// OrderNote is an append-only annotation; notes are never edited or
// removed.
type OrderNote struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID    snowflake.ID `gorm:"not null;index" json:"order_id"`
	AuthorID   string       `gorm:"type:text;not null" json:"author_id"`
	AuthorName string       `gorm:"type:text" json:"author_name"`
	Body       string       `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (OrderNote) TableName() string { return "order_notes" }
