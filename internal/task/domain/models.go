package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

const (
	// MetaTypeFollowUp tags the auto-created follow-up reminder tied to
	// each new order.
	MetaTypeFollowUp = "follow_up"

	// CompletionReasonPayment marks a follow-up closed by the first
	// payment recorded against its order.
	CompletionReasonPayment = "payment_received"
	CompletionReasonManual  = "manual"
)

type Task struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	Title                string            `gorm:"type:text;not null" json:"title"`
	Type                 string            `gorm:"type:text;not null;index" json:"type"`
	Status               TaskStatus        `gorm:"type:text;not null;index" json:"status"`
	OrderID              snowflake.ID      `gorm:"not null;index" json:"order_id"`
	DueDate              time.Time         `gorm:"not null;index" json:"due_date"`
	AssignedTo           string            `gorm:"type:text;not null" json:"assigned_to"`
	AssignedToName       string            `gorm:"type:text" json:"assigned_to_name"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	CompletionReason     string            `gorm:"type:text" json:"completion_reason,omitempty"`
	CompletedByPaymentID *snowflake.ID     `json:"completed_by_payment_id,omitempty"`
	OverdueNotifiedAt    *time.Time        `json:"overdue_notified_at,omitempty"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedBy            string            `gorm:"type:text;not null" json:"created_by"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }
