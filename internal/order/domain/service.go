package domain

import (
	"context"
	"errors"
	"time"

	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type LineItemInput struct {
	ProductID   string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

type CreateOrderRequest struct {
	CustomerID      string
	Items           []LineItemInput
	DeliveryMethod  string
	DeliveryAddress string
	ExpectedDate    *time.Time
	Notes           string
}

// PaymentInput is an inline payment accompanying a status change. It is
// recorded by the payment ledger inside the same transaction as the
// transition.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    paymentdomain.Method
	Reference string
	Notes     string
}

type ChangeStatusRequest struct {
	OrderID   string
	NewStatus OrderStatus
	// Acknowledged must be true for any transition touching the paid
	// checkpoint. The caller supplies it; the engine never infers it.
	Acknowledged bool
	Payment      *PaymentInput
}

type ChangeStatusResult struct {
	Order         Order
	PreviousState OrderStatus
	Payment       *paymentdomain.RecordResult
}

type UpdateOrderRequest struct {
	OrderID         string
	DeliveryMethod  *string
	DeliveryAddress *string
	ExpectedDate    *time.Time
	Items           []LineItemInput
	AppendNote      string
}

type GetOrderRequest struct {
	ID string
}

type ListOrderRequest struct {
	pagination.Pagination
	Status      string
	CustomerID  string
	CreatedBy   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

type Service interface {
	Create(context.Context, CreateOrderRequest) (Order, error)
	ChangeStatus(context.Context, ChangeStatusRequest) (ChangeStatusResult, error)
	Update(context.Context, UpdateOrderRequest) (Order, error)
	Delete(ctx context.Context, id string) error
	GetByID(context.Context, GetOrderRequest) (Order, error)
	List(context.Context, ListOrderRequest) (ListOrderResponse, error)
	// PaymentStatus derives unpaid/partial/paid from the live ledger.
	PaymentStatus(ctx context.Context, id string) (paymentdomain.PaymentStatus, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidItems        = errors.New("invalid_items")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrNotFound            = errors.New("not_found")
	ErrPermissionDenied    = errors.New("permission_denied")
	ErrAcknowledgeRequired = errors.New("acknowledge_required")
	ErrPaidBalanceRevert   = errors.New("paid_balance_revert")
	ErrConflict            = errors.New("conflict")
)
