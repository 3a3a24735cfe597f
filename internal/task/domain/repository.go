package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrderID    snowflake.ID
	Status     string
	AssignedTo string
	DueBefore  *time.Time
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, task *Task) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Task, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Task, error)
	// CompleteFollowUp closes the order's open follow-up task in one
	// guarded statement and reports whether a row was claimed.
	CompleteFollowUp(ctx context.Context, db *gorm.DB, orderID, paymentID snowflake.ID, reason string, at time.Time) (*Task, error)
	ListOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]*Task, error)
	MarkOverdueNotified(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) error
}
