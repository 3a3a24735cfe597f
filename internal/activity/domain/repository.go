package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// AuditCursor is the keyset position for activity listing.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows an activity listing.
type ListFilter struct {
	Type       string
	EntityType string
	EntityID   string
	UserID     string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Activity) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Activity, error)
}
