package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateCustomerRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
}

type UpdateCustomerRequest struct {
	ID      string
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	City    *string
}

type GetCustomerRequest struct {
	ID string
}

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	City        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	// RecalculateStats recomputes the denormalized order count and
	// revenue for one customer. Idempotent; safe to run inside the
	// caller's transaction (tx may be nil).
	RecalculateStats(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
)
