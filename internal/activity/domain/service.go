package domain

import (
	"context"
	"errors"
	"time"

	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"gorm.io/gorm"
)

// Entry is the write-side shape for a new audit record. Actor fields are
// resolved from the acting-user context when left empty.
type Entry struct {
	Type       ActivityType
	Message    string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Type       string
	EntityType string
	EntityID   string
	UserID     string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	Activities []Activity `json:"activities"`
}

type Service interface {
	// Record appends an activity inside the caller's transaction. tx may
	// be nil, in which case the service's own handle is used.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) (*Activity, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidType      = errors.New("invalid_type")
	ErrInvalidEntity    = errors.New("invalid_entity")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
