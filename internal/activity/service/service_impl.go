package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  activitydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  activitydomain.Repository
}

func New(p Params) activitydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activity.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry activitydomain.Entry) (*activitydomain.Activity, error) {
	if strings.TrimSpace(string(entry.Type)) == "" {
		return nil, activitydomain.ErrInvalidType
	}
	if strings.TrimSpace(entry.EntityType) == "" || strings.TrimSpace(entry.EntityID) == "" {
		return nil, activitydomain.ErrInvalidEntity
	}

	userID := "system"
	userName := "System"
	if user, ok := identity.UserFromContext(ctx); ok {
		userID = user.ID
		userName = user.Name
	}

	metadata := map[string]any{}
	for key, value := range entry.Metadata {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	record := activitydomain.Activity{
		ID:         s.genID.Generate(),
		Type:       entry.Type,
		Message:    strings.TrimSpace(entry.Message),
		UserID:     userID,
		UserName:   userName,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   datatypes.JSONMap(metadata),
		CreatedAt:  s.clock.Now(),
	}

	handle := tx
	if handle == nil {
		handle = s.db
	}
	if err := s.repo.Insert(ctx, handle, &record); err != nil {
		s.log.Warn("failed to append activity", zap.String("type", string(entry.Type)), zap.Error(err))
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context, req activitydomain.ListRequest) (activitydomain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return activitydomain.ListResponse{}, activitydomain.ErrInvalidTimeRange
	}

	var cursor *activitydomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return activitydomain.ListResponse{}, activitydomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return activitydomain.ListResponse{}, activitydomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return activitydomain.ListResponse{}, activitydomain.ErrInvalidPageToken
		}
		cursor = &activitydomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, activitydomain.ListFilter{
		Type:       req.Type,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserID:     req.UserID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return activitydomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *activitydomain.Activity) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	activities := make([]activitydomain.Activity, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		activities = append(activities, *item)
	}

	resp := activitydomain.ListResponse{Activities: activities}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}
