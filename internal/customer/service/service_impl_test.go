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
	"github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	customerrepo "github.com/kudamusaisiwa/royalprecast/internal/customer/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type customerEnv struct {
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	svc   domain.Service
}

func newCustomerEnv(t *testing.T) *customerEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Customer{},
		&orderdomain.Order{},
		&activitydomain.Activity{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 2, 16, 14, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	activitySvc := activityservice.New(activityservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  activityrepo.Provide(),
	})
	svc := New(Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        customerrepo.Provide(),
		ActivitySvc: activitySvc,
	})

	return &customerEnv{db: db, clock: fake, node: node, svc: svc}
}

func customerContext() context.Context {
	return identity.WithUser(context.Background(), identity.User{
		ID:   "staff-3",
		Name: "Nyasha Dube",
		Role: identity.RoleStaff,
	})
}

func TestCreateCustomer(t *testing.T) {
	env := newCustomerEnv(t)

	customer, err := env.svc.Create(customerContext(), domain.CreateCustomerRequest{
		Name:  "  Bulawayo Builders  ",
		Email: "orders@bulawayobuilders.co.zw",
		City:  "Bulawayo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bulawayo Builders", customer.Name)
	assert.Equal(t, "staff-3", customer.CreatedBy)
	assert.Zero(t, customer.TotalOrders)

	var entries []activitydomain.Activity
	require.NoError(t, env.db.
		Where("type = ? AND entity_id = ?", activitydomain.TypeCustomerCreated, customer.ID.String()).
		Find(&entries).Error)
	assert.Len(t, entries, 1)

	_, err = env.svc.Create(customerContext(), domain.CreateCustomerRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestUpdateCustomer(t *testing.T) {
	env := newCustomerEnv(t)
	ctx := customerContext()

	customer, err := env.svc.Create(ctx, domain.CreateCustomerRequest{Name: "Masvingo Hardware", City: "Masvingo"})
	require.NoError(t, err)

	phone := "+263 77 123 4567"
	updated, err := env.svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:    customer.ID.String(),
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)

	var entries []activitydomain.Activity
	require.NoError(t, env.db.
		Where("type = ? AND entity_id = ?", activitydomain.TypeCustomerUpdated, customer.ID.String()).
		Find(&entries).Error)
	require.Len(t, entries, 1)
	changed, ok := entries[0].Metadata["changed_fields"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"phone"}, changed)

	// Setting the same value again is a no-op and records nothing.
	_, err = env.svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:    customer.ID.String(),
		Phone: &phone,
	})
	require.NoError(t, err)
	require.NoError(t, env.db.
		Where("type = ? AND entity_id = ?", activitydomain.TypeCustomerUpdated, customer.ID.String()).
		Find(&entries).Error)
	assert.Len(t, entries, 1)

	blank := "   "
	_, err = env.svc.Update(ctx, domain.UpdateCustomerRequest{
		ID:   customer.ID.String(),
		Name: &blank,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = env.svc.Update(ctx, domain.UpdateCustomerRequest{ID: env.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecalculateStatsIsIdempotent(t *testing.T) {
	env := newCustomerEnv(t)
	ctx := customerContext()

	customer, err := env.svc.Create(ctx, domain.CreateCustomerRequest{Name: "Hwange Colliery Housing"})
	require.NoError(t, err)

	now := env.clock.Now()
	for _, amount := range []int64{120, 80} {
		require.NoError(t, env.db.Create(&orderdomain.Order{
			ID:          env.node.Generate(),
			Number:      "ORD-" + env.node.Generate().String(),
			CustomerID:  customer.ID,
			Status:      orderdomain.StatusQuotation,
			TotalAmount: decimal.NewFromInt(amount),
			TotalPaid:   decimal.Zero,
			CreatedBy:   "staff-3",
			CreatedAt:   now,
			UpdatedAt:   now,
		}).Error)
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, env.svc.RecalculateStats(ctx, nil, customer.ID))
	}

	reloaded, err := env.svc.GetByID(ctx, domain.GetCustomerRequest{ID: customer.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.TotalOrders)
	assert.Equal(t, "200.00", reloaded.TotalRevenue.StringFixed(2))

	assert.ErrorIs(t, env.svc.RecalculateStats(ctx, nil, 0), domain.ErrInvalidID)
}

func TestListCustomers(t *testing.T) {
	env := newCustomerEnv(t)
	ctx := customerContext()

	for _, name := range []string{"Avondale Paving", "Borrowdale Paving", "Chitungwiza Roofing"} {
		_, err := env.svc.Create(ctx, domain.CreateCustomerRequest{Name: name, City: "Harare"})
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
	}

	resp, err := env.svc.List(ctx, domain.ListCustomerRequest{Name: "Paving"})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)

	first, err := env.svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	require.True(t, first.HasMore)

	second, err := env.svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.False(t, second.HasMore)

	_, err = env.svc.List(ctx, domain.ListCustomerRequest{PageToken: "???"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
