package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, number, customer_id, status, version, total_amount, total_paid, last_payment_date, delivery_method, delivery_address, expected_date, created_by, created_by_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.Number,
		order.CustomerID,
		order.Status,
		order.Version,
		order.TotalAmount,
		order.TotalPaid,
		order.LastPaymentDate,
		order.DeliveryMethod,
		order.DeliveryAddress,
		order.ExpectedDate,
		order.CreatedBy,
		order.CreatedByName,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	for i := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, line_total)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].OrderID,
			items[i].ProductID,
			items[i].ProductName,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].LineTotal,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertNote(ctx context.Context, db *gorm.DB, note *domain.OrderNote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_notes (id, order_id, author_id, author_name, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.OrderID,
		note.AuthorID,
		note.AuthorName,
		note.Body,
		note.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Preload("Notes").
		Where("id = ?", id).
		Take(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Order, error) {
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.CreatedBy != "" {
		stmt = stmt.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
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

	var orders []*domain.Order
	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateStatusCAS(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.OrderStatus, expectedVersion int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, now, id, expectedVersion,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateFieldsCAS(ctx context.Context, db *gorm.DB, order *domain.Order, expectedVersion int64) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET delivery_method = ?, delivery_address = ?, expected_date = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		order.DeliveryMethod,
		order.DeliveryAddress,
		order.ExpectedDate,
		order.UpdatedAt,
		order.ID,
		expectedVersion,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, items []domain.OrderItem, totalAmount decimal.Decimal, now time.Time) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID).Error; err != nil {
		return err
	}
	if err := r.InsertItems(ctx, db, items); err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET total_amount = ?, updated_at = ? WHERE id = ?`,
		totalAmount, now, orderID,
	).Error
}

func (r *repo) SumPayments(ctx context.Context, db *gorm.DB, orderID snowflake.ID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = ?`, orderID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	// Dependents first; the schema carries no ON DELETE CASCADE.
	for _, q := range []string{
		`DELETE FROM order_items WHERE order_id = ?`,
		`DELETE FROM order_notes WHERE order_id = ?`,
		`DELETE FROM payments WHERE order_id = ?`,
		`DELETE FROM tasks WHERE order_id = ?`,
		`DELETE FROM orders WHERE id = ?`,
	} {
		if err := db.WithContext(ctx).Exec(q, orderID).Error; err != nil {
			return err
		}
	}
	return nil
}
