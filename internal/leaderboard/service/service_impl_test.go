package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	customerdomain "github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard/domain"
	leaderboardrepo "github.com/kudamusaisiwa/royalprecast/internal/leaderboard/repository"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type leaderboardEnv struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  domain.Service
}

func newLeaderboardEnv(t *testing.T) *leaderboardEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&orderdomain.Order{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Repo:    leaderboardrepo.Provide(),
		Scoring: config.NewStaticScoringConfigHolder(config.DefaultScoringConfig()),
	})

	return &leaderboardEnv{db: db, node: node, svc: svc}
}

func (e *leaderboardEnv) seedCustomer(t *testing.T, createdBy, createdByName string) customerdomain.Customer {
	t.Helper()
	customer := customerdomain.Customer{
		ID:            e.node.Generate(),
		Name:          "Customer of " + createdByName,
		TotalRevenue:  decimal.Zero,
		CreatedBy:     createdBy,
		CreatedByName: createdByName,
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.db.Create(&customer).Error)
	return customer
}

func (e *leaderboardEnv) seedOrder(t *testing.T, customerID snowflake.ID, createdBy, createdByName string, total int64, at time.Time) orderdomain.Order {
	t.Helper()
	order := orderdomain.Order{
		ID:            e.node.Generate(),
		Number:        "ORD-" + e.node.Generate().String(),
		CustomerID:    customerID,
		Status:        orderdomain.StatusProduction,
		TotalAmount:   decimal.NewFromInt(total),
		TotalPaid:     decimal.Zero,
		CreatedBy:     createdBy,
		CreatedByName: createdByName,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	require.NoError(t, e.db.Create(&order).Error)
	return order
}

func (e *leaderboardEnv) seedPayment(t *testing.T, orderID snowflake.ID, amount int64, at time.Time) {
	t.Helper()
	require.NoError(t, e.db.Create(&paymentdomain.Payment{
		ID:          e.node.Generate(),
		OrderID:     orderID,
		Amount:      decimal.NewFromInt(amount),
		Method:      paymentdomain.MethodCash,
		PaymentDate: at,
		CreatedBy:   "cashier-1",
		CreatedAt:   at,
	}).Error)
}

func findRow(rows []domain.Row, staffID string) *domain.Row {
	for i := range rows {
		if rows[i].StaffID == staffID {
			return &rows[i]
		}
	}
	return nil
}

func TestComputeAttributionAndScoring(t *testing.T) {
	env := newLeaderboardEnv(t)

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	inWindow := from.Add(48 * time.Hour)

	staffCustomer := env.seedCustomer(t, "staff-a", "Anesu Gumbo")
	orphanCustomerID := env.node.Generate() // no customer row behind it

	// Direct attribution through the order's creator.
	aliceOrder := env.seedOrder(t, staffCustomer.ID, "alice", "Alice Zhou", 100, inWindow)
	env.seedPayment(t, aliceOrder.ID, 60, inWindow)

	// Fallback to the customer's creator when the order has none.
	fallbackOrder := env.seedOrder(t, staffCustomer.ID, "", "", 200, inWindow)
	env.seedPayment(t, fallbackOrder.ID, 50, inWindow)

	// Neither order nor customer resolves: the unattributed bucket.
	env.seedOrder(t, orphanCustomerID, "", "", 50, inWindow)

	// Payment-only activity: bob's order predates the window.
	bobOrder := env.seedOrder(t, staffCustomer.ID, "bob", "Bob Marowa", 500, from.AddDate(0, -1, 0))
	env.seedPayment(t, bobOrder.ID, 40, inWindow)

	resp, err := env.svc.Compute(context.Background(), domain.ComputeRequest{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 4)

	// Weights: 0.6 paid revenue, 0.1 new orders value, 0.3 conversion.
	alice := findRow(resp.Rows, "alice")
	require.NotNil(t, alice)
	assert.Equal(t, int64(1), alice.NewOrders)
	assert.Equal(t, "100.00", alice.NewOrdersValue.StringFixed(2))
	assert.Equal(t, int64(1), alice.PaidOrders)
	assert.Equal(t, "60.00", alice.PaidRevenue.StringFixed(2))
	assert.Equal(t, "100.00", alice.ConversionRate.StringFixed(2))
	assert.Equal(t, "76.00", alice.WeightedScore.StringFixed(2))

	staffA := findRow(resp.Rows, "staff-a")
	require.NotNil(t, staffA)
	assert.Equal(t, "Anesu Gumbo", staffA.StaffName)
	assert.Equal(t, "80.00", staffA.WeightedScore.StringFixed(2))

	bob := findRow(resp.Rows, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, int64(0), bob.NewOrders)
	assert.Equal(t, int64(1), bob.PaidOrders)
	// No new orders in the window means a zero conversion rate, not a
	// division error.
	assert.Equal(t, "0.00", bob.ConversionRate.StringFixed(2))
	assert.Equal(t, "24.00", bob.WeightedScore.StringFixed(2))

	unattributed := findRow(resp.Rows, domain.UnattributedBucket)
	require.NotNil(t, unattributed)
	assert.Equal(t, "5.00", unattributed.WeightedScore.StringFixed(2))

	// Ranked by score with the unattributed bucket pinned last.
	assert.Equal(t, "staff-a", resp.Rows[0].StaffID)
	assert.Equal(t, "alice", resp.Rows[1].StaffID)
	assert.Equal(t, "bob", resp.Rows[2].StaffID)
	assert.Equal(t, domain.UnattributedBucket, resp.Rows[3].StaffID)
}

func TestComputeDistinctPaidOrders(t *testing.T) {
	env := newLeaderboardEnv(t)

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	inWindow := from.Add(time.Hour)

	customer := env.seedCustomer(t, "staff-a", "Anesu Gumbo")
	order := env.seedOrder(t, customer.ID, "alice", "Alice Zhou", 100, inWindow)
	env.seedPayment(t, order.ID, 30, inWindow)
	env.seedPayment(t, order.ID, 70, inWindow.Add(time.Hour))

	resp, err := env.svc.Compute(context.Background(), domain.ComputeRequest{From: from, To: to})
	require.NoError(t, err)

	alice := findRow(resp.Rows, "alice")
	require.NotNil(t, alice)
	// Two payments on one order count once for conversion but sum fully
	// into revenue.
	assert.Equal(t, int64(1), alice.PaidOrders)
	assert.Equal(t, "100.00", alice.PaidRevenue.StringFixed(2))
	assert.Equal(t, "100.00", alice.ConversionRate.StringFixed(2))
}

func TestComputeWindowValidation(t *testing.T) {
	env := newLeaderboardEnv(t)
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := env.svc.Compute(context.Background(), domain.ComputeRequest{To: now})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	_, err = env.svc.Compute(context.Background(), domain.ComputeRequest{From: now})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	_, err = env.svc.Compute(context.Background(), domain.ComputeRequest{From: now, To: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	resp, err := env.svc.Compute(context.Background(), domain.ComputeRequest{From: now, To: now})
	require.NoError(t, err)
	assert.Empty(t, resp.Rows)
}
