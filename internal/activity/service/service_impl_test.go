package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	activityrepo "github.com/kudamusaisiwa/royalprecast/internal/activity/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type activityEnv struct {
	db    *gorm.DB
	clock *clock.FakeClock
	svc   domain.Service
}

func newActivityEnv(t *testing.T) *activityEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Activity{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  activityrepo.Provide(),
	})

	return &activityEnv{db: db, clock: fake, svc: svc}
}

func TestRecordResolvesActor(t *testing.T) {
	env := newActivityEnv(t)

	ctx := identity.WithUser(context.Background(), identity.User{
		ID:   "finance-1",
		Name: "Tendai Banda",
		Role: identity.RoleFinance,
	})
	entry, err := env.svc.Record(ctx, nil, domain.Entry{
		Type:       domain.TypePayment,
		Message:    "  Payment recorded  ",
		EntityType: "order",
		EntityID:   "123",
		Metadata:   map[string]any{"amount": "40.00", "": "dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, "finance-1", entry.UserID)
	assert.Equal(t, "Tendai Banda", entry.UserName)
	assert.Equal(t, "Payment recorded", entry.Message)
	assert.Equal(t, "40.00", entry.Metadata["amount"])
	assert.NotContains(t, entry.Metadata, "")

	// Without an acting user the entry is attributed to the system.
	entry, err = env.svc.Record(context.Background(), nil, domain.Entry{
		Type:       domain.TypeStatusChange,
		Message:    "nightly sweep",
		EntityType: "order",
		EntityID:   "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "system", entry.UserID)
}

func TestRecordValidation(t *testing.T) {
	env := newActivityEnv(t)

	_, err := env.svc.Record(context.Background(), nil, domain.Entry{
		Message:    "no type",
		EntityType: "order",
		EntityID:   "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = env.svc.Record(context.Background(), nil, domain.Entry{
		Type:    domain.TypePayment,
		Message: "no entity",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEntity)
}

func TestListFiltersAndPaging(t *testing.T) {
	env := newActivityEnv(t)
	ctx := identity.WithUser(context.Background(), identity.User{ID: "staff-1", Name: "Tariro", Role: identity.RoleStaff})

	for i := 0; i < 3; i++ {
		_, err := env.svc.Record(ctx, nil, domain.Entry{
			Type:       domain.TypeOrderCreated,
			Message:    "order created",
			EntityType: "order",
			EntityID:   "order-a",
		})
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
	}
	_, err := env.svc.Record(ctx, nil, domain.Entry{
		Type:       domain.TypePayment,
		Message:    "payment recorded",
		EntityType: "order",
		EntityID:   "order-b",
	})
	require.NoError(t, err)

	byType, err := env.svc.List(ctx, domain.ListRequest{Type: string(domain.TypePayment)})
	require.NoError(t, err)
	require.Len(t, byType.Activities, 1)
	assert.Equal(t, "order-b", byType.Activities[0].EntityID)

	byEntity, err := env.svc.List(ctx, domain.ListRequest{EntityType: "order", EntityID: "order-a"})
	require.NoError(t, err)
	assert.Len(t, byEntity.Activities, 3)

	first, err := env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.Activities, 2)
	require.True(t, first.HasMore)
	// Newest first.
	assert.Equal(t, domain.TypePayment, first.Activities[0].Type)

	second, err := env.svc.List(ctx, domain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Activities, 2)
	assert.False(t, second.HasMore)

	_, err = env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageToken: "!!"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)

	start := env.clock.Now()
	end := start.Add(-time.Hour)
	_, err = env.svc.List(ctx, domain.ListRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
