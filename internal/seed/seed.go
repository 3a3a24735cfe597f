package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoStaffID = "demo-staff"

// EnsureDemoData seeds a demo customer with one quotation order so a
// fresh install has something to look at. Idempotent: a second run
// finds the customer and stops.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Model(&customerdomain.Customer{}).
			Where("created_by = ?", demoStaffID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		customer := customerdomain.Customer{
			ID:            node.Generate(),
			Name:          "Demo Construction Ltd",
			Email:         "projects@democonstruction.example",
			Phone:         "+263771234567",
			City:          "Harare",
			TotalOrders:   1,
			TotalRevenue:  decimal.NewFromInt(450),
			CreatedBy:     demoStaffID,
			CreatedByName: "Demo Staff",
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
			return err
		}

		order := orderdomain.Order{
			ID:            node.Generate(),
			Number:        "ORD-" + ulid.Make().String(),
			CustomerID:    customer.ID,
			Status:        orderdomain.StatusQuotation,
			TotalAmount:   decimal.NewFromInt(450),
			TotalPaid:     decimal.Zero,
			CreatedBy:     demoStaffID,
			CreatedByName: "Demo Staff",
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
			return err
		}

		items := []orderdomain.OrderItem{
			{
				ID:          node.Generate(),
				OrderID:     order.ID,
				ProductID:   "culvert-600",
				ProductName: "600mm Concrete Culvert",
				Quantity:    10,
				UnitPrice:   decimal.NewFromInt(30),
				LineTotal:   decimal.NewFromInt(300),
			},
			{
				ID:          node.Generate(),
				OrderID:     order.ID,
				ProductID:   "slab-150",
				ProductName: "150mm Paving Slab",
				Quantity:    50,
				UnitPrice:   decimal.NewFromInt(3),
				LineTotal:   decimal.NewFromInt(150),
			},
		}
		for i := range items {
			if err := tx.WithContext(ctx).Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
