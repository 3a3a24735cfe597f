package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActivityType classifies audit trail entries.
type ActivityType string

const (
	TypeOrderCreated    ActivityType = "order_created"
	TypeOrderUpdated    ActivityType = "order_updated"
	TypeOrderDeleted    ActivityType = "order_deleted"
	TypeStatusChange    ActivityType = "status_change"
	TypePayment         ActivityType = "payment"
	TypeCustomerCreated ActivityType = "customer_created"
	TypeCustomerUpdated ActivityType = "customer_updated"
	TypeTaskCreated     ActivityType = "task_created"
	TypeTaskCompleted   ActivityType = "task_completed"
)

// Activity is an immutable audit trail record. It is never updated or
// deleted; the leaderboard and the notification feed are derived from it.
type Activity struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Type       ActivityType      `gorm:"type:text;not null;index" json:"type"`
	Message    string            `gorm:"type:text;not null" json:"message"`
	UserID     string            `gorm:"type:text;not null;index" json:"user_id"`
	UserName   string            `gorm:"type:text" json:"user_name"`
	EntityType string            `gorm:"type:text;not null;index:idx_activities_entity" json:"entity_type"`
	EntityID   string            `gorm:"type:text;not null;index:idx_activities_entity" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Activity) TableName() string { return "activities" }
