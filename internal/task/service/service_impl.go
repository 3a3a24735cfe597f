package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Scoring     *config.ScoringConfigHolder
	Repo        domain.Repository
	ActivitySvc activitydomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	scoring     *config.ScoringConfigHolder
	repo        domain.Repository
	activitySvc activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("task.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		scoring:     p.Scoring,
		repo:        p.Repo,
		activitySvc: p.ActivitySvc,
	}
}

func (s *Service) CreateFollowUp(ctx context.Context, tx *gorm.DB, order domain.OrderRef) (*domain.Task, error) {
	if order.ID == 0 {
		return nil, domain.ErrInvalidOrder
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()
	dueDays := s.scoring.Get().FollowUpDueDays

	task := domain.Task{
		ID:             s.genID.Generate(),
		Title:          "Follow up on order " + order.Number,
		Type:           domain.MetaTypeFollowUp,
		Status:         domain.StatusPending,
		OrderID:        order.ID,
		DueDate:        now.AddDate(0, 0, dueDays),
		AssignedTo:     actor.ID,
		AssignedToName: actor.Name,
		Metadata:       datatypes.JSONMap{"auto_created": true},
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	handle := tx
	if handle == nil {
		handle = s.db
	}
	if err := s.repo.Insert(ctx, handle, &task); err != nil {
		return nil, err
	}

	if _, err := s.activitySvc.Record(ctx, handle, activitydomain.Entry{
		Type:       activitydomain.TypeTaskCreated,
		Message:    "Follow-up task created for order " + order.Number,
		EntityType: "task",
		EntityID:   task.ID.String(),
		Metadata:   map[string]any{"order_id": order.ID.String(), "due_date": task.DueDate.Format(time.RFC3339)},
	}); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *Service) CompleteForPayment(ctx context.Context, tx *gorm.DB, orderID, paymentID snowflake.ID) (*domain.Task, error) {
	if orderID == 0 {
		return nil, domain.ErrInvalidOrder
	}

	handle := tx
	if handle == nil {
		handle = s.db
	}

	task, err := s.repo.CompleteFollowUp(ctx, handle, orderID, paymentID, domain.CompletionReasonPayment, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if task == nil {
		// Already completed, or the order never had a follow-up.
		return nil, nil
	}

	if _, err := s.activitySvc.Record(ctx, handle, activitydomain.Entry{
		Type:       activitydomain.TypeTaskCompleted,
		Message:    "Follow-up task completed: payment received",
		EntityType: "task",
		EntityID:   task.ID.String(),
		Metadata: map[string]any{
			"order_id":   orderID.String(),
			"payment_id": paymentID.String(),
			"reason":     domain.CompletionReasonPayment,
		},
	}); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Task, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return domain.Task{}, domain.ErrInvalidID
	}

	task, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task == nil {
		return domain.Task{}, domain.ErrNotFound
	}
	return *task, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListFilter{
		Status:     strings.TrimSpace(req.Status),
		AssignedTo: strings.TrimSpace(req.AssignedTo),
		Limit:      int(req.PageSize),
	}
	if raw := strings.TrimSpace(req.OrderID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListResponse{}, domain.ErrInvalidID
		}
		filter.OrderID = id
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}

	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		tasks = append(tasks, *item)
	}
	return domain.ListResponse{Tasks: tasks}, nil
}

func (s *Service) SweepOverdue(ctx context.Context, asOf time.Time, limit int) ([]domain.Task, error) {
	items, err := s.repo.ListOverdue(ctx, s.db, asOf, limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]snowflake.ID, 0, len(items))
	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		ids = append(ids, item.ID)
		tasks = append(tasks, *item)
	}

	if err := s.repo.MarkOverdueNotified(ctx, s.db, ids, s.clock.Now()); err != nil {
		return nil, err
	}

	s.log.Info("follow-up tasks overdue", zap.Int("count", len(tasks)))
	return tasks, nil
}
