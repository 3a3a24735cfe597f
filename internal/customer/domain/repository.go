package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Name        string
	Email       string
	City        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Cursor      *Cursor
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Customer, error)
	// RecalculateStats rewrites total_orders and total_revenue from the
	// customer's current order set in a single statement.
	RecalculateStats(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
