package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quakemap/internal/worker"
)

type blockingWorker struct {
	*worker.BaseWorker
	started atomic.Bool
	ignore  bool
}

func (w *blockingWorker) Start(ctx context.Context) error {
	w.started.Store(true)
	if w.ignore {
		select {}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.StopChan():
		return nil
	}
}

func newBlockingWorker(name string) *blockingWorker {
	return &blockingWorker{BaseWorker: worker.NewBaseWorker(name, zap.NewNop())}
}

func TestWorkerManager_StartAndStop(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), time.Second)
	a, b := newBlockingWorker("a"), newBlockingWorker("b")
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())

	assert.NoError(t, a.Stop(), "second stop is a no-op")
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), 0)
	assert.ErrorIs(t, m.Start(context.Background()), worker.ErrNoWorkers)
}

func TestWorkerManager_StopTimesOut(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), 20*time.Millisecond)
	stuck := newBlockingWorker("stuck")
	stuck.ignore = true
	m.Register(stuck)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, stuck.started.Load, time.Second, 5*time.Millisecond)

	assert.Error(t, m.Stop())
}
