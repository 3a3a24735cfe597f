package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
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
	ActivitySvc activitydomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	activitySvc activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("customer.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		activitySvc: p.ActivitySvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	actor, _ := identity.UserFromContext(ctx)
	now := s.clock.Now()
	customer := domain.Customer{
		ID:            s.genID.Generate(),
		Name:          name,
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		TotalRevenue:  decimal.Zero,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &customer); err != nil {
			return err
		}
		_, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
			Type:       activitydomain.TypeCustomerCreated,
			Message:    "Customer " + customer.Name + " created",
			EntityType: "customer",
			EntityID:   customer.ID.String(),
		})
		return err
	})
	if err != nil {
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if existing == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	changed := make([]string, 0, 5)
	applyField(&existing.Name, req.Name, "name", &changed)
	applyField(&existing.Email, req.Email, "email", &changed)
	applyField(&existing.Phone, req.Phone, "phone", &changed)
	applyField(&existing.Address, req.Address, "address", &changed)
	applyField(&existing.City, req.City, "city", &changed)

	if len(changed) == 0 {
		return *existing, nil
	}
	if strings.TrimSpace(existing.Name) == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	existing.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		// Changed field names only; values stay out of the audit feed.
		_, err := s.activitySvc.Record(ctx, tx, activitydomain.Entry{
			Type:       activitydomain.TypeCustomerUpdated,
			Message:    "Customer " + existing.Name + " updated",
			EntityType: "customer",
			EntityID:   existing.ID.String(),
			Metadata:   map[string]any{"changed_fields": changed},
		})
		return err
	})
	if err != nil {
		return domain.Customer{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		City:        strings.TrimSpace(req.City),
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
		Cursor:      cursor,
		Limit:       int(pageSize),
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) RecalculateStats(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	if id == 0 {
		return domain.ErrInvalidID
	}
	handle := tx
	if handle == nil {
		handle = s.db
	}
	return s.repo.RecalculateStats(ctx, handle, id)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func applyField(dst *string, src *string, name string, changed *[]string) {
	if src == nil {
		return
	}
	value := strings.TrimSpace(*src)
	if value == *dst {
		return
	}
	*dst = value
	*changed = append(*changed, name)
}
