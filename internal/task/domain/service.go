package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// OrderRef carries the order fields the task engine needs without
// importing the order package.
type OrderRef struct {
	ID     snowflake.ID
	Number string
}

type ListRequest struct {
	OrderID    string
	Status     string
	AssignedTo string
	PageSize   int32
}

type ListResponse struct {
	Tasks []Task `json:"tasks"`
}

type Service interface {
	// CreateFollowUp creates the single auto-created follow-up task for
	// a freshly created order, inside the caller's transaction.
	CreateFollowUp(ctx context.Context, tx *gorm.DB, order OrderRef) (*Task, error)
	// CompleteForPayment closes the order's open follow-up on its first
	// payment. At most one completion per order; later payments no-op
	// and return (nil, nil).
	CompleteForPayment(ctx context.Context, tx *gorm.DB, orderID, paymentID snowflake.ID) (*Task, error)
	GetByID(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// SweepOverdue flags pending follow-ups past their due date and
	// returns the newly flagged tasks. Used by the scheduler.
	SweepOverdue(ctx context.Context, asOf time.Time, limit int) ([]Task, error)
}

var (
	ErrInvalidOrder = errors.New("invalid_order")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
