package repository

import (
	"context"
	"time"

	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) OrdersInWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.OrderFact, error) {
	var facts []domain.OrderFact
	err := db.WithContext(ctx).Raw(
		`SELECT o.id AS order_id,
		        o.total_amount,
		        o.created_by,
		        o.created_by_name,
		        COALESCE(c.created_by, '') AS customer_created_by,
		        COALESCE(c.created_by_name, '') AS customer_creator_nm
		 FROM orders o
		 LEFT JOIN customers c ON c.id = o.customer_id
		 WHERE o.created_at >= ? AND o.created_at <= ?`,
		from, to,
	).Scan(&facts).Error
	if err != nil {
		return nil, err
	}
	return facts, nil
}

func (r *repo) PaymentsInWindow(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.PaymentFact, error) {
	var facts []domain.PaymentFact
	err := db.WithContext(ctx).Raw(
		`SELECT p.order_id,
		        p.amount,
		        o.created_by,
		        o.created_by_name,
		        COALESCE(c.created_by, '') AS customer_created_by,
		        COALESCE(c.created_by_name, '') AS customer_creator_nm
		 FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 LEFT JOIN customers c ON c.id = o.customer_id
		 WHERE p.payment_date >= ? AND p.payment_date <= ?`,
		from, to,
	).Scan(&facts).Error
	if err != nil {
		return nil, err
	}
	return facts, nil
}
