package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTaskService struct {
	taskdomain.Service

	sweeps  int
	lastAs  time.Time
	limit   int
	flagged []taskdomain.Task
	err     error
}

func (s *stubTaskService) SweepOverdue(ctx context.Context, asOf time.Time, limit int) ([]taskdomain.Task, error) {
	s.sweeps++
	s.lastAs = asOf
	s.limit = limit
	return s.flagged, s.err
}

func TestRunOnceSweepsWithConfiguredBatch(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC))
	stub := &stubTaskService{flagged: []taskdomain.Task{{Title: "Follow up on order ORD-1"}}}

	s, err := New(Params{
		Log:     zap.NewNop(),
		Clock:   fake,
		TaskSvc: stub,
		Config:  Config{BatchSize: 25},
	})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, stub.sweeps)
	assert.Equal(t, 25, stub.limit)
	assert.True(t, stub.lastAs.Equal(fake.Now()))

	// Defaults fill the unset knobs.
	assert.Equal(t, DefaultConfig().RunInterval, s.cfg.RunInterval)
	assert.Equal(t, DefaultConfig().JobTimeout, s.cfg.JobTimeout)
}

func TestRunOncePropagatesSweepError(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC))
	stub := &stubTaskService{err: errors.New("db gone")}

	s, err := New(Params{Log: zap.NewNop(), Clock: fake, TaskSvc: stub})
	require.NoError(t, err)

	assert.Error(t, s.RunOnce(context.Background()))
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop(), Clock: clock.NewSystemClock()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
