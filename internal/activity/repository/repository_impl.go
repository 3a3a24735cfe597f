package repository

import (
	"context"

	"github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Activity) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO activities (id, type, message, user_id, user_name, entity_type, entity_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Type,
		entry.Message,
		entry.UserID,
		entry.UserName,
		entry.EntityType,
		entry.EntityID,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Activity, error) {
	stmt := db.WithContext(ctx).Model(&domain.Activity{})
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.EntityType != "" {
		stmt = stmt.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		stmt = stmt.Where("entity_id = ?", filter.EntityID)
	}
	if filter.UserID != "" {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", *filter.EndAt)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var items []*domain.Activity
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
