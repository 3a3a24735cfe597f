package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tasks (id, title, type, status, order_id, due_date, assigned_to, assigned_to_name, metadata, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Type,
		task.Status,
		task.OrderID,
		task.DueDate,
		task.AssignedTo,
		task.AssignedToName,
		task.Metadata,
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Task, error) {
	var task domain.Task
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Task, error) {
	stmt := db.WithContext(ctx).Model(&domain.Task{})
	if filter.OrderID != 0 {
		stmt = stmt.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != "" {
		stmt = stmt.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.DueBefore != nil {
		stmt = stmt.Where("due_date < ?", *filter.DueBefore)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var tasks []*domain.Task
	err := stmt.
		Order("due_date asc, id asc").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repo) CompleteFollowUp(ctx context.Context, db *gorm.DB, orderID, paymentID snowflake.ID, reason string, at time.Time) (*domain.Task, error) {
	// The guard on status makes the completion first-writer-wins: a
	// second payment finds no open follow-up and affects zero rows.
	result := db.WithContext(ctx).Exec(
		`UPDATE tasks SET status = ?, completed_at = ?, completion_reason = ?, completed_by_payment_id = ?, updated_at = ?
		 WHERE order_id = ? AND type = ? AND status != ?`,
		domain.StatusCompleted,
		at,
		reason,
		paymentID,
		at,
		orderID,
		domain.MetaTypeFollowUp,
		domain.StatusCompleted,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var task domain.Task
	err := db.WithContext(ctx).
		Where("order_id = ? AND type = ? AND status = ?", orderID, domain.MetaTypeFollowUp, domain.StatusCompleted).
		Order("updated_at desc").
		Take(&task).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	var tasks []*domain.Task
	err := db.WithContext(ctx).
		Where("type = ? AND status = ? AND due_date < ? AND overdue_notified_at IS NULL", domain.MetaTypeFollowUp, domain.StatusPending, asOf).
		Order("due_date asc").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repo) MarkOverdueNotified(ctx context.Context, db *gorm.DB, ids []snowflake.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`UPDATE tasks SET overdue_notified_at = ? WHERE id IN ?`,
		at,
		ids,
	).Error
}
