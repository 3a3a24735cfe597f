package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/internal/notification"
	obsmetrics "github.com/kudamusaisiwa/royalprecast/internal/observability/metrics"
	"github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/money"
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
	taskSvc     taskdomain.Service
	activitySvc activitydomain.Service
	dispatcher  *notification.Dispatcher
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		taskSvc:     p.TaskSvc,
		activitySvc: p.ActivitySvc,
		dispatcher:  p.Dispatcher,
		metrics:     p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.RecordResult, error) {
	var result domain.RecordResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.RecordTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return domain.RecordResult{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.WithLabelValues(string(result.Payment.Method)).Inc()
	}
	actor, _ := identity.UserFromContext(ctx)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:       activitydomain.TypePayment,
			Message:    "Payment of " + result.Payment.Amount.StringFixed(2) + " received",
			EntityType: "order",
			EntityID:   result.Payment.OrderID.String(),
			ActorName:  actor.Name,
		})
	}

	return result, nil
}

func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, req domain.RecordPaymentRequest) (domain.RecordResult, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return domain.RecordResult{}, err
	}

	amount := money.Round(req.Amount)
	if !money.IsPositive(amount) {
		return domain.RecordResult{}, domain.ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return domain.RecordResult{}, domain.ErrInvalidMethod
	}

	order, err := s.repo.FindOrder(ctx, tx, orderID)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if order == nil {
		return domain.RecordResult{}, domain.ErrOrderNotFound
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()
	paymentDate := req.Date
	if paymentDate.IsZero() {
		paymentDate = now
	}

	payment := domain.Payment{
		ID:            s.genID.Generate(),
		OrderID:       orderID,
		Amount:        amount,
		Method:        req.Method,
		Reference:     strings.TrimSpace(req.Reference),
		Notes:         strings.TrimSpace(req.Notes),
		PaymentDate:   paymentDate,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
	}

	if err := s.repo.Insert(ctx, tx, &payment); err != nil {
		return domain.RecordResult{}, err
	}

	totalPaid, err := s.repo.SyncOrderTotals(ctx, tx, orderID, now)
	if err != nil {
		return domain.RecordResult{}, err
	}

	// Money received means work begins: a quotation moves straight to
	// production on its first payment.
	advanced, err := s.repo.AdvanceFromQuotation(ctx, tx, orderID, now)
	if err != nil {
		return domain.RecordResult{}, err
	}

	completedTask, err := s.taskSvc.CompleteForPayment(ctx, tx, orderID, payment.ID)
	if err != nil {
		return domain.RecordResult{}, err
	}

	metadata := map[string]any{
		"payment_id": payment.ID.String(),
		"amount":     payment.Amount.StringFixed(2),
		"method":     string(payment.Method),
		"total_paid": totalPaid.StringFixed(2),
	}
	if advanced {
		metadata["previous_status"] = order.Status
		metadata["new_status"] = "production"
	}
	if completedTask != nil {
		metadata["completed_task_id"] = completedTask.ID.String()
	}

	if _, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
		Type:       activitydomain.TypePayment,
		Message:    "Payment of " + payment.Amount.StringFixed(2) + " recorded against order " + order.Number,
		EntityType: "order",
		EntityID:   orderID.String(),
		Metadata:   metadata,
	}); err != nil {
		return domain.RecordResult{}, err
	}

	return domain.RecordResult{
		Payment:       payment,
		TotalPaid:     totalPaid,
		AutoAdvanced:  advanced,
		TaskCompleted: completedTask != nil,
	}, nil
}

func (s *Service) TotalPaid(ctx context.Context, rawOrderID string, from, to *time.Time) (decimal.Decimal, error) {
	orderID, err := parseID(rawOrderID)
	if err != nil {
		return decimal.Zero, err
	}

	payments, err := s.repo.ListInRange(ctx, s.db, orderID, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range payments {
		total = money.Round(total.Add(p.Amount))
	}
	return total, nil
}

func (s *Service) StatusOf(ctx context.Context, rawOrderID string) (domain.PaymentStatus, error) {
	orderID, err := parseID(rawOrderID)
	if err != nil {
		return "", err
	}

	order, err := s.repo.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", domain.ErrOrderNotFound
	}

	payments, err := s.repo.ListByOrder(ctx, s.db, orderID)
	if err != nil {
		return "", err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = money.Round(total.Add(p.Amount))
	}

	return domain.DeriveStatus(total, order.TotalAmount), nil
}

func (s *Service) ListByOrder(ctx context.Context, rawOrderID string) ([]domain.Payment, error) {
	orderID, err := parseID(rawOrderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}
	return payments, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
