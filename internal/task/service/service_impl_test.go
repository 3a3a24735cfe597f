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
	"github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	taskrepo "github.com/kudamusaisiwa/royalprecast/internal/task/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type taskEnv struct {
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	svc   domain.Service
}

func newTaskEnv(t *testing.T) *taskEnv {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Task{}, &activitydomain.Activity{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
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
		Scoring:     config.NewStaticScoringConfigHolder(config.DefaultScoringConfig()),
		Repo:        taskrepo.Provide(),
		ActivitySvc: activitySvc,
	})

	return &taskEnv{db: db, clock: fake, node: node, svc: svc}
}

func taskContext() context.Context {
	return identity.WithUser(context.Background(), identity.User{
		ID:   "staff-2",
		Name: "Kuda Chirwa",
		Role: identity.RoleStaff,
	})
}

func TestCreateFollowUp(t *testing.T) {
	env := newTaskEnv(t)
	orderID := env.node.Generate()

	task, err := env.svc.CreateFollowUp(taskContext(), nil, domain.OrderRef{ID: orderID, Number: "ORD-42"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, domain.MetaTypeFollowUp, task.Type)
	assert.Contains(t, task.Title, "ORD-42")
	assert.Equal(t, "staff-2", task.AssignedTo)
	assert.True(t, task.DueDate.Equal(env.clock.Now().AddDate(0, 0, 3)))
	assert.Equal(t, true, task.Metadata["auto_created"])

	var entries []activitydomain.Activity
	require.NoError(t, env.db.
		Where("type = ?", activitydomain.TypeTaskCreated).
		Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, task.ID.String(), entries[0].EntityID)

	_, err = env.svc.CreateFollowUp(taskContext(), nil, domain.OrderRef{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestCompleteForPaymentFirstWriterWins(t *testing.T) {
	env := newTaskEnv(t)
	orderID := env.node.Generate()
	ctx := taskContext()

	created, err := env.svc.CreateFollowUp(ctx, nil, domain.OrderRef{ID: orderID, Number: "ORD-43"})
	require.NoError(t, err)

	firstPayment := env.node.Generate()
	completed, err := env.svc.CompleteForPayment(ctx, nil, orderID, firstPayment)
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, created.ID, completed.ID)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	assert.Equal(t, domain.CompletionReasonPayment, completed.CompletionReason)
	require.NotNil(t, completed.CompletedByPaymentID)
	assert.Equal(t, firstPayment, *completed.CompletedByPaymentID)

	// A later payment finds no open follow-up and no-ops.
	again, err := env.svc.CompleteForPayment(ctx, nil, orderID, env.node.Generate())
	require.NoError(t, err)
	assert.Nil(t, again)

	var reloaded domain.Task
	require.NoError(t, env.db.First(&reloaded, "id = ?", created.ID).Error)
	assert.Equal(t, firstPayment, *reloaded.CompletedByPaymentID)
}

func TestCompleteForPaymentWithoutFollowUp(t *testing.T) {
	env := newTaskEnv(t)

	task, err := env.svc.CompleteForPayment(taskContext(), nil, env.node.Generate(), env.node.Generate())
	require.NoError(t, err)
	assert.Nil(t, task)

	_, err = env.svc.CompleteForPayment(taskContext(), nil, 0, env.node.Generate())
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestSweepOverdueFlagsEachTaskOnce(t *testing.T) {
	env := newTaskEnv(t)
	ctx := taskContext()

	pendingOrder := env.node.Generate()
	_, err := env.svc.CreateFollowUp(ctx, nil, domain.OrderRef{ID: pendingOrder, Number: "ORD-44"})
	require.NoError(t, err)

	paidOrder := env.node.Generate()
	_, err = env.svc.CreateFollowUp(ctx, nil, domain.OrderRef{ID: paidOrder, Number: "ORD-45"})
	require.NoError(t, err)
	_, err = env.svc.CompleteForPayment(ctx, nil, paidOrder, env.node.Generate())
	require.NoError(t, err)

	// Nothing is due yet.
	flagged, err := env.svc.SweepOverdue(ctx, env.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	env.clock.Advance(4 * 24 * time.Hour)

	flagged, err = env.svc.SweepOverdue(ctx, env.clock.Now(), 10)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, pendingOrder, flagged[0].OrderID)

	// The sweep is idempotent: already notified tasks stay silent.
	flagged, err = env.svc.SweepOverdue(ctx, env.clock.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, flagged)

	var reloaded domain.Task
	require.NoError(t, env.db.First(&reloaded, "order_id = ?", pendingOrder).Error)
	require.NotNil(t, reloaded.OverdueNotifiedAt)
}

func TestGetByIDAndList(t *testing.T) {
	env := newTaskEnv(t)
	ctx := taskContext()

	orderID := env.node.Generate()
	created, err := env.svc.CreateFollowUp(ctx, nil, domain.OrderRef{ID: orderID, Number: "ORD-46"})
	require.NoError(t, err)
	_, err = env.svc.CreateFollowUp(ctx, nil, domain.OrderRef{ID: env.node.Generate(), Number: "ORD-47"})
	require.NoError(t, err)

	task, err := env.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, task.ID)

	_, err = env.svc.GetByID(ctx, "junk")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = env.svc.GetByID(ctx, env.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp, err := env.svc.List(ctx, domain.ListRequest{OrderID: orderID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, created.ID, resp.Tasks[0].ID)

	resp, err = env.svc.List(ctx, domain.ListRequest{Status: string(domain.StatusPending)})
	require.NoError(t, err)
	assert.Len(t, resp.Tasks, 2)

	_, err = env.svc.List(ctx, domain.ListRequest{OrderID: "junk"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
