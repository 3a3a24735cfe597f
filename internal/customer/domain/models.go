package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Customer carries two denormalized aggregate columns, TotalOrders and
// TotalRevenue. Their single writer is the customer service's
// RecalculateStats; no other code path may touch them.
type Customer struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:text;not null" json:"name"`
	Email         string          `gorm:"type:text" json:"email,omitempty"`
	Phone         string          `gorm:"type:text" json:"phone,omitempty"`
	Address       string          `gorm:"type:text" json:"address,omitempty"`
	City          string          `gorm:"type:text" json:"city,omitempty"`
	TotalOrders   int64           `gorm:"not null;default:0" json:"total_orders"`
	TotalRevenue  decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"total_revenue"`
	CreatedBy     string          `gorm:"type:text;not null;index" json:"created_by"`
	CreatedByName string          `gorm:"type:text" json:"created_by_name"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
