package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	activityrepo "github.com/kudamusaisiwa/royalprecast/internal/activity/repository"
	activityservice "github.com/kudamusaisiwa/royalprecast/internal/activity/service"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	paymentrepo "github.com/kudamusaisiwa/royalprecast/internal/payment/repository"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	taskrepo "github.com/kudamusaisiwa/royalprecast/internal/task/repository"
	taskservice "github.com/kudamusaisiwa/royalprecast/internal/task/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentEnv struct {
	db      *gorm.DB
	clock   *clock.FakeClock
	node    *snowflake.Node
	taskSvc taskdomain.Service
	svc     domain.Service
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&domain.Payment{},
		&taskdomain.Task{},
		&activitydomain.Activity{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	activitySvc := activityservice.New(activityservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  activityrepo.Provide(),
	})
	taskSvc := taskservice.New(taskservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Scoring:     config.NewStaticScoringConfigHolder(config.DefaultScoringConfig()),
		Repo:        taskrepo.Provide(),
		ActivitySvc: activitySvc,
	})
	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        paymentrepo.Provide(),
		TaskSvc:     taskSvc,
		ActivitySvc: activitySvc,
	})

	return &paymentEnv{db: db, clock: fake, node: node, taskSvc: taskSvc, svc: svc}
}

func staffContext() context.Context {
	return identity.WithUser(context.Background(), identity.User{
		ID:   "staff-1",
		Name: "Tariro Moyo",
		Role: identity.RoleStaff,
	})
}

// seedOrder inserts a quotation directly and creates its follow-up task
// the way order creation does.
func (e *paymentEnv) seedOrder(t *testing.T, total decimal.Decimal) orderdomain.Order {
	t.Helper()

	now := e.clock.Now()
	order := orderdomain.Order{
		ID:          e.node.Generate(),
		Number:      "ORD-TEST-" + e.node.Generate().String(),
		CustomerID:  e.node.Generate(),
		Status:      orderdomain.StatusQuotation,
		TotalAmount: total,
		TotalPaid:   decimal.Zero,
		CreatedBy:   "staff-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, e.db.Create(&order).Error)

	_, err := e.taskSvc.CreateFollowUp(staffContext(), nil, taskdomain.OrderRef{
		ID:     order.ID,
		Number: order.Number,
	})
	require.NoError(t, err)
	return order
}

func TestRecordFirstPaymentAdvancesAndCompletesFollowUp(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(100))

	result, err := env.svc.Record(staffContext(), domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(40),
		Method:  domain.MethodBankTransfer,
	})
	require.NoError(t, err)

	assert.True(t, result.TotalPaid.Equal(decimal.NewFromInt(40)))
	assert.True(t, result.AutoAdvanced)
	assert.True(t, result.TaskCompleted)
	assert.Equal(t, "staff-1", result.Payment.CreatedBy)
	assert.True(t, result.Payment.PaymentDate.Equal(env.clock.Now()))

	var reloaded orderdomain.Order
	require.NoError(t, env.db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, orderdomain.StatusProduction, reloaded.Status)
	assert.True(t, reloaded.TotalPaid.Equal(decimal.NewFromInt(40)))
	require.NotNil(t, reloaded.LastPaymentDate)

	var task taskdomain.Task
	require.NoError(t, env.db.First(&task, "order_id = ?", order.ID).Error)
	assert.Equal(t, taskdomain.StatusCompleted, task.Status)
	assert.Equal(t, taskdomain.CompletionReasonPayment, task.CompletionReason)
	require.NotNil(t, task.CompletedByPaymentID)
	assert.Equal(t, result.Payment.ID, *task.CompletedByPaymentID)

	status, err := env.svc.StatusOf(staffContext(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartial, status)
}

func TestSecondPaymentDoesNotReAdvanceOrReComplete(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(100))
	ctx := staffContext()

	_, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(40),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)

	env.clock.Advance(24 * time.Hour)
	result, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(60),
		Method:  domain.MethodEcocash,
	})
	require.NoError(t, err)

	assert.False(t, result.AutoAdvanced)
	assert.False(t, result.TaskCompleted)
	assert.True(t, result.TotalPaid.Equal(decimal.NewFromInt(100)))

	status, err := env.svc.StatusOf(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, status)

	// The follow-up stays attributed to the first payment.
	var task taskdomain.Task
	require.NoError(t, env.db.First(&task, "order_id = ?", order.ID).Error)
	assert.NotEqual(t, result.Payment.ID, *task.CompletedByPaymentID)
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(50))
	ctx := staffContext()

	_, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.Zero,
		Method:  domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(-5),
		Method:  domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(10),
		Method:  domain.Method("cheque"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	_, err = env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: "not-a-snowflake",
		Amount:  decimal.NewFromInt(10),
		Method:  domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: env.node.Generate().String(),
		Amount:  decimal.NewFromInt(10),
		Method:  domain.MethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRecordPaymentRoundsAtEachStep(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(10))
	ctx := staffContext()

	for i := 0; i < 3; i++ {
		_, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
			OrderID: order.ID.String(),
			Amount:  decimal.RequireFromString("3.333"),
			Method:  domain.MethodInnbucks,
		})
		require.NoError(t, err)
	}

	total, err := env.svc.TotalPaid(ctx, order.ID.String(), nil, nil)
	require.NoError(t, err)
	// 3.333 rounds to 3.33 before accumulation, so three payments sum
	// to 9.99 rather than 10.00.
	assert.Equal(t, "9.99", total.StringFixed(2))

	status, err := env.svc.StatusOf(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartial, status)
}

func TestTotalPaidRangeFilter(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(300))
	ctx := staffContext()

	day1 := env.clock.Now()
	_, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(100),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)

	env.clock.Advance(48 * time.Hour)
	_, err = env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(120),
		Method:  domain.MethodBankTransfer,
	})
	require.NoError(t, err)

	total, err := env.svc.TotalPaid(ctx, order.ID.String(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "220.00", total.StringFixed(2))

	cutoff := day1.Add(time.Hour)
	total, err = env.svc.TotalPaid(ctx, order.ID.String(), nil, &cutoff)
	require.NoError(t, err)
	assert.Equal(t, "100.00", total.StringFixed(2))

	total, err = env.svc.TotalPaid(ctx, order.ID.String(), &cutoff, nil)
	require.NoError(t, err)
	assert.Equal(t, "120.00", total.StringFixed(2))
}

func TestSyncTotalsIsFullResum(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(100))
	ctx := staffContext()

	_, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(30),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)

	// Corrupt the denormalized column as a lost concurrent increment
	// would. The next payment re-sums the ledger instead of adding to
	// the stale value.
	require.NoError(t, env.db.Exec(`UPDATE orders SET total_paid = 999 WHERE id = ?`, order.ID).Error)

	result, err := env.svc.Record(ctx, domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(30),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "60.00", result.TotalPaid.StringFixed(2))

	var reloaded orderdomain.Order
	require.NoError(t, env.db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, "60.00", reloaded.TotalPaid.StringFixed(2))
}

func TestStatusOfUnpaidOrder(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(75))

	status, err := env.svc.StatusOf(staffContext(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnpaid, status)

	_, err = env.svc.StatusOf(staffContext(), env.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRecordPaymentWritesActivity(t *testing.T) {
	env := newPaymentEnv(t)
	order := env.seedOrder(t, decimal.NewFromInt(100))

	result, err := env.svc.Record(staffContext(), domain.RecordPaymentRequest{
		OrderID: order.ID.String(),
		Amount:  decimal.NewFromInt(25),
		Method:  domain.MethodCash,
	})
	require.NoError(t, err)

	var entries []activitydomain.Activity
	require.NoError(t, env.db.
		Where("type = ? AND entity_id = ?", activitydomain.TypePayment, order.ID.String()).
		Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "staff-1", entries[0].UserID)
	assert.Equal(t, result.Payment.ID.String(), entries[0].Metadata["payment_id"])
}

func TestDeriveStatus(t *testing.T) {
	total := decimal.NewFromInt(100)

	assert.Equal(t, domain.StatusUnpaid, domain.DeriveStatus(decimal.Zero, total))
	assert.Equal(t, domain.StatusUnpaid, domain.DeriveStatus(decimal.NewFromInt(-10), total))
	assert.Equal(t, domain.StatusPartial, domain.DeriveStatus(decimal.NewFromInt(99), total))
	assert.Equal(t, domain.StatusPaid, domain.DeriveStatus(total, total))
	assert.Equal(t, domain.StatusPaid, domain.DeriveStatus(decimal.NewFromInt(150), total))
}
