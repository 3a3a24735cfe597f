package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	customerdomain "github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/internal/notification"
	obsmetrics "github.com/kudamusaisiwa/royalprecast/internal/observability/metrics"
	"github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"github.com/kudamusaisiwa/royalprecast/pkg/money"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	CustomerSvc customerdomain.Service
	PaymentSvc  paymentdomain.Service
	TaskSvc     taskdomain.Service
	ActivitySvc activitydomain.Service
	Dispatcher  *notification.Dispatcher `optional:"true"`
	Metrics     *obsmetrics.Metrics      `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	customerSvc customerdomain.Service
	paymentSvc  paymentdomain.Service
	taskSvc     taskdomain.Service
	activitySvc activitydomain.Service
	dispatcher  *notification.Dispatcher
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		customerSvc: p.CustomerSvc,
		paymentSvc:  p.PaymentSvc,
		taskSvc:     p.TaskSvc,
		activitySvc: p.ActivitySvc,
		dispatcher:  p.Dispatcher,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return domain.Order{}, err
	}

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: req.CustomerID})
	if err != nil {
		if err == customerdomain.ErrNotFound || err == customerdomain.ErrInvalidID {
			return domain.Order{}, domain.ErrCustomerNotFound
		}
		return domain.Order{}, err
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()

	order := domain.Order{
		ID:              s.genID.Generate(),
		Number:          "ORD-" + ulid.Make().String(),
		CustomerID:      customerID,
		Status:          domain.StatusQuotation,
		TotalAmount:     decimal.Zero,
		TotalPaid:       decimal.Zero,
		DeliveryMethod:  strings.TrimSpace(req.DeliveryMethod),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		ExpectedDate:    req.ExpectedDate,
		CreatedBy:       actor.ID,
		CreatedByName:   actor.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items, totalAmount, err := s.buildItems(order.ID, req.Items)
	if err != nil {
		return domain.Order{}, err
	}
	order.TotalAmount = totalAmount
	order.Items = items

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		if note := strings.TrimSpace(req.Notes); note != "" {
			orderNote := domain.OrderNote{
				ID:         s.genID.Generate(),
				OrderID:    order.ID,
				AuthorID:   actor.ID,
				AuthorName: actor.Name,
				Body:       note,
				CreatedAt:  now,
			}
			if err := s.repo.InsertNote(ctx, tx, &orderNote); err != nil {
				return err
			}
			order.Notes = append(order.Notes, orderNote)
		}

		if _, err := s.taskSvc.CreateFollowUp(ctx, tx, taskdomain.OrderRef{ID: order.ID, Number: order.Number}); err != nil {
			return err
		}
		if err := s.customerSvc.RecalculateStats(ctx, tx, customer.ID); err != nil {
			return err
		}

		_, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
			Type:       activitydomain.TypeOrderCreated,
			Message:    "Order " + order.Number + " created for " + customer.Name,
			EntityType: "order",
			EntityID:   order.ID.String(),
			Metadata: map[string]any{
				"customer_id":  customer.ID.String(),
				"total_amount": order.TotalAmount.StringFixed(2),
				"item_count":   len(items),
			},
		})
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:       activitydomain.TypeOrderCreated,
			Message:    "Order " + order.Number + " created",
			EntityType: "order",
			EntityID:   order.ID.String(),
			ActorName:  actor.Name,
		})
	}

	return order, nil
}

func (s *Service) ChangeStatus(ctx context.Context, req domain.ChangeStatusRequest) (domain.ChangeStatusResult, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return domain.ChangeStatusResult{}, err
	}
	if !req.NewStatus.Valid() {
		return domain.ChangeStatusResult{}, domain.ErrInvalidStatus
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()

	var result domain.ChangeStatusResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		previous := order.Status

		if !domain.CanTransition(previous, req.NewStatus, actor.Role) {
			return domain.ErrPermissionDenied
		}
		if domain.TouchesPaid(previous, req.NewStatus) && !req.Acknowledged {
			return domain.ErrAcknowledgeRequired
		}
		if req.NewStatus == domain.StatusQuotation {
			// The ledger inside this transaction decides, never the
			// possibly stale total_paid column.
			paid, err := s.repo.SumPayments(ctx, tx, orderID)
			if err != nil {
				return err
			}
			if money.IsPositive(paid) {
				return domain.ErrPaidBalanceRevert
			}
		}

		if previous != req.NewStatus {
			ok, err := s.repo.UpdateStatusCAS(ctx, tx, orderID, req.NewStatus, order.Version, now)
			if err != nil {
				return err
			}
			if !ok {
				if s.metrics != nil {
					s.metrics.ConflictRetriesSeen.Inc()
				}
				return domain.ErrConflict
			}
		}

		metadata := map[string]any{
			"previous_status": string(previous),
			"new_status":      string(req.NewStatus),
		}

		if req.Payment != nil {
			paymentResult, err := s.paymentSvc.RecordTx(ctx, tx, paymentdomain.RecordPaymentRequest{
				OrderID:   orderID.String(),
				Amount:    req.Payment.Amount,
				Method:    req.Payment.Method,
				Reference: req.Payment.Reference,
				Notes:     req.Payment.Notes,
			})
			if err != nil {
				return err
			}
			result.Payment = &paymentResult
			metadata["payment_id"] = paymentResult.Payment.ID.String()
			metadata["payment_amount"] = paymentResult.Payment.Amount.StringFixed(2)
			metadata["total_paid"] = paymentResult.TotalPaid.StringFixed(2)
		}

		if _, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
			Type:       activitydomain.TypeStatusChange,
			Message:    "Order " + order.Number + " moved from " + string(previous) + " to " + string(req.NewStatus),
			EntityType: "order",
			EntityID:   orderID.String(),
			Metadata:   metadata,
		}); err != nil {
			return err
		}

		refreshed, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if refreshed == nil {
			return domain.ErrNotFound
		}
		result.Order = *refreshed
		result.PreviousState = previous
		return nil
	})
	if err != nil {
		return domain.ChangeStatusResult{}, err
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(req.NewStatus)).Inc()
		if result.Payment != nil {
			s.metrics.PaymentsRecorded.WithLabelValues(string(result.Payment.Payment.Method)).Inc()
		}
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:       activitydomain.TypeStatusChange,
			Message:    "Order " + result.Order.Number + " is now " + string(result.Order.Status),
			EntityType: "order",
			EntityID:   result.Order.ID.String(),
			ActorName:  actor.Name,
		})
	}

	return result, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateOrderRequest) (domain.Order, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return domain.Order{}, err
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()

	var updated domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}

		changed := make([]string, 0, 4)
		if req.DeliveryMethod != nil && *req.DeliveryMethod != order.DeliveryMethod {
			order.DeliveryMethod = *req.DeliveryMethod
			changed = append(changed, "delivery_method")
		}
		if req.DeliveryAddress != nil && *req.DeliveryAddress != order.DeliveryAddress {
			order.DeliveryAddress = *req.DeliveryAddress
			changed = append(changed, "delivery_address")
		}
		if req.ExpectedDate != nil {
			order.ExpectedDate = req.ExpectedDate
			changed = append(changed, "expected_date")
		}

		if len(changed) > 0 {
			order.UpdatedAt = now
			ok, err := s.repo.UpdateFieldsCAS(ctx, tx, order, order.Version)
			if err != nil {
				return err
			}
			if !ok {
				if s.metrics != nil {
					s.metrics.ConflictRetriesSeen.Inc()
				}
				return domain.ErrConflict
			}
		}

		totalChanged := false
		if len(req.Items) > 0 {
			items, totalAmount, err := s.buildItems(orderID, req.Items)
			if err != nil {
				return err
			}
			if err := s.repo.ReplaceItems(ctx, tx, orderID, items, totalAmount, now); err != nil {
				return err
			}
			totalChanged = !totalAmount.Equal(order.TotalAmount)
			changed = append(changed, "items")
			if totalChanged {
				changed = append(changed, "total_amount")
			}
		}

		if note := strings.TrimSpace(req.AppendNote); note != "" {
			orderNote := domain.OrderNote{
				ID:         s.genID.Generate(),
				OrderID:    orderID,
				AuthorID:   actor.ID,
				AuthorName: actor.Name,
				Body:       note,
				CreatedAt:  now,
			}
			if err := s.repo.InsertNote(ctx, tx, &orderNote); err != nil {
				return err
			}
			changed = append(changed, "notes")
		}

		if totalChanged {
			if err := s.customerSvc.RecalculateStats(ctx, tx, order.CustomerID); err != nil {
				return err
			}
		}

		if len(changed) > 0 {
			// Field names only; values stay out of the audit feed.
			if _, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
				Type:       activitydomain.TypeOrderUpdated,
				Message:    "Order " + order.Number + " updated",
				EntityType: "order",
				EntityID:   orderID.String(),
				Metadata:   map[string]any{"changed_fields": changed},
			}); err != nil {
				return err
			}
		}

		refreshed, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if refreshed == nil {
			return domain.ErrNotFound
		}
		updated = *refreshed
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	orderID, err := parseID(rawID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}

		if err := s.repo.Delete(ctx, tx, orderID); err != nil {
			return err
		}
		if err := s.customerSvc.RecalculateStats(ctx, tx, order.CustomerID); err != nil {
			return err
		}

		_, err = s.activitySvc.Record(ctx, tx, activitydomain.Entry{
			Type:       activitydomain.TypeOrderDeleted,
			Message:    "Order " + order.Number + " deleted",
			EntityType: "order",
			EntityID:   orderID.String(),
			Metadata:   map[string]any{"snapshot": snapshotOrder(order)},
		})
		return err
	})
}

func (s *Service) GetByID(ctx context.Context, req domain.GetOrderRequest) (domain.Order, error) {
	orderID, err := parseID(req.ID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	filter := domain.ListFilter{
		CreatedBy:   req.CreatedBy,
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if req.Status != "" {
		status := domain.OrderStatus(req.Status)
		if !status.Valid() {
			return domain.ListOrderResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.CustomerID != "" {
		customerID, err := parseID(req.CustomerID)
		if err != nil {
			return domain.ListOrderResponse{}, err
		}
		filter.CustomerID = &customerID
	}
	if req.PageToken != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		cursorID, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || cursorID == 0 {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.Cursor{ID: cursorID, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}
	filter.Limit = pageSize

	rows, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, int32(pageSize), func(o *domain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        o.ID.String(),
			CreatedAt: o.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})
	if len(rows) > pageSize {
		rows = rows[:pageSize]
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, *row)
	}
	return domain.ListOrderResponse{PageInfo: *pageInfo, Orders: orders}, nil
}

func (s *Service) PaymentStatus(ctx context.Context, id string) (paymentdomain.PaymentStatus, error) {
	if _, err := parseID(id); err != nil {
		return "", err
	}
	status, err := s.paymentSvc.StatusOf(ctx, id)
	if err != nil {
		if err == paymentdomain.ErrOrderNotFound {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (s *Service) buildItems(orderID snowflake.ID, inputs []domain.LineItemInput) ([]domain.OrderItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, domain.ErrInvalidItems
	}

	items := make([]domain.OrderItem, 0, len(inputs))
	total := decimal.Zero
	for _, in := range inputs {
		if in.Quantity <= 0 || in.UnitPrice.IsNegative() || strings.TrimSpace(in.ProductName) == "" {
			return nil, decimal.Zero, domain.ErrInvalidItems
		}
		lineTotal := money.Round(in.UnitPrice.Mul(decimal.NewFromInt(in.Quantity)))
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate(),
			OrderID:     orderID,
			ProductID:   strings.TrimSpace(in.ProductID),
			ProductName: strings.TrimSpace(in.ProductName),
			Quantity:    in.Quantity,
			UnitPrice:   money.Round(in.UnitPrice),
			LineTotal:   lineTotal,
		})
		total = money.Round(total.Add(lineTotal))
	}
	return items, total, nil
}

func snapshotOrder(order *domain.Order) map[string]any {
	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice.StringFixed(2),
			"line_total":   item.LineTotal.StringFixed(2),
		})
	}
	snapshot := map[string]any{
		"number":           order.Number,
		"customer_id":      order.CustomerID.String(),
		"status":           string(order.Status),
		"total_amount":     order.TotalAmount.StringFixed(2),
		"total_paid":       order.TotalPaid.StringFixed(2),
		"delivery_method":  order.DeliveryMethod,
		"delivery_address": order.DeliveryAddress,
		"created_by":       order.CreatedBy,
		"created_at":       order.CreatedAt.Format(time.RFC3339Nano),
		"items":            items,
	}
	if order.ExpectedDate != nil {
		snapshot["expected_date"] = order.ExpectedDate.Format(time.RFC3339Nano)
	}
	return snapshot
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
