package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Method is the payment channel used by the customer.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodEcocash      Method = "ecocash"
	MethodInnbucks     Method = "innbucks"
)

// Valid reports whether the method is a known channel.
func (m Method) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodEcocash, MethodInnbucks:
		return true
	}
	return false
}

// PaymentStatus is derived from the ledger on every query, never stored.
type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// Payment is an immutable ledger record. There is no update or delete
// path: corrections are made by appending further payments.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID       snowflake.ID    `gorm:"not null;index" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Method        Method          `gorm:"type:text;not null" json:"method"`
	Reference     string          `gorm:"type:text" json:"reference,omitempty"`
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	PaymentDate   time.Time       `gorm:"not null;index" json:"payment_date"`
	CreatedBy     string          `gorm:"type:text;not null" json:"created_by"`
	CreatedByName string          `gorm:"type:text" json:"created_by_name"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
