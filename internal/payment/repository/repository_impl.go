package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, order_id, amount, method, reference, notes, payment_date, created_by, created_by_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.Notes,
		payment.PaymentDate,
		payment.CreatedBy,
		payment.CreatedByName,
		payment.CreatedAt,
	).Error
}

func (r *repo) ListByOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListInRange(ctx context.Context, db *gorm.DB, orderID snowflake.ID, from, to *time.Time) ([]*domain.Payment, error) {
	stmt := db.WithContext(ctx).Where("order_id = ?", orderID)
	if from != nil {
		stmt = stmt.Where("payment_date >= ?", *from)
	}
	if to != nil {
		stmt = stmt.Where("payment_date <= ?", *to)
	}

	var payments []*domain.Payment
	err := stmt.
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindOrder(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (*domain.OrderRow, error) {
	var row domain.OrderRow
	err := db.WithContext(ctx).Raw(
		`SELECT id, number, status, total_amount, total_paid FROM orders WHERE id = ?`,
		orderID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) SyncOrderTotals(ctx context.Context, db *gorm.DB, orderID snowflake.ID, at time.Time) (decimal.Decimal, error) {
	err := db.WithContext(ctx).Exec(
		`UPDATE orders SET
			total_paid = (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE payments.order_id = orders.id),
			last_payment_date = (SELECT MAX(payment_date) FROM payments WHERE payments.order_id = orders.id),
			updated_at = ?
		 WHERE id = ?`,
		at,
		orderID,
	).Error
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err = db.WithContext(ctx).Raw(
		`SELECT total_paid FROM orders WHERE id = ?`,
		orderID,
	).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repo) AdvanceFromQuotation(ctx context.Context, db *gorm.DB, orderID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = 'production', version = version + 1, updated_at = ? WHERE id = ? AND status = 'quotation'`,
		at,
		orderID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
