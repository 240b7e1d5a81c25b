package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"temperature-stats/pkg/logging"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestScheduler_DisabledWithoutInterval(t *testing.T) {
	refresher := &countingRefresher{}
	s := New(refresher, 0, logging.NewNopLogger())

	require.NoError(t, s.Start())
	assert.False(t, s.scheduler.IsRunning())
	s.Stop()
	assert.Zero(t, refresher.calls.Load())
}

func TestScheduler_RunsPeriodically(t *testing.T) {
	refresher := &countingRefresher{}
	s := New(refresher, 50*time.Millisecond, logging.NewNopLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return refresher.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunOnceToleratesErrors(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("file not found")}
	s := New(refresher, time.Hour, logging.NewNopLogger())

	s.runOnce()
	assert.Equal(t, int32(1), refresher.calls.Load())
}
