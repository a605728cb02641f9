package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/taskdesk/taskdesk/pkg/service/worker"
)

var errBusy = errors.New("busy")

type mockRebuilder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRebuilder) RebuildAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return 42, nil
}

func (m *mockRebuilder) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockRebuilder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestEmbeddingRebuildWorker_ImmediateInitialRebuild(t *testing.T) {
	rebuilder := &mockRebuilder{}
	w := worker.NewEmbeddingRebuildWorker(rebuilder, time.Hour, errBusy)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	gt.Value(t, rebuilder.callCount()).Equal(1)
}

func TestEmbeddingRebuildWorker_PeriodicRebuild(t *testing.T) {
	rebuilder := &mockRebuilder{}
	w := worker.NewEmbeddingRebuildWorker(rebuilder, 50*time.Millisecond, errBusy)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(180 * time.Millisecond)
	gt.Number(t, rebuilder.callCount()).GreaterOrEqual(3)
}

func TestEmbeddingRebuildWorker_KeepsRunningAfterErrors(t *testing.T) {
	rebuilder := &mockRebuilder{err: errors.New("vector store unreachable")}
	w := worker.NewEmbeddingRebuildWorker(rebuilder, 40*time.Millisecond, errBusy)

	gt.NoError(t, w.Start(context.Background())).Required()
	defer w.Stop()

	time.Sleep(60 * time.Millisecond)
	rebuilder.setErr(errBusy)
	time.Sleep(60 * time.Millisecond)
	rebuilder.setErr(nil)
	time.Sleep(60 * time.Millisecond)

	gt.Number(t, rebuilder.callCount()).GreaterOrEqual(3)
}

func TestEmbeddingRebuildWorker_StopsCleanly(t *testing.T) {
	rebuilder := &mockRebuilder{}
	w := worker.NewEmbeddingRebuildWorker(rebuilder, 10*time.Millisecond, errBusy)

	gt.NoError(t, w.Start(context.Background())).Required()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	w.Stop()
	gt.Bool(t, time.Since(start) < time.Second).True()
}

func TestEmbeddingRebuildWorker_StopsOnContextCancel(t *testing.T) {
	rebuilder := &mockRebuilder{}
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewEmbeddingRebuildWorker(rebuilder, 10*time.Millisecond, errBusy)

	gt.NoError(t, w.Start(ctx)).Required()
	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	calls := rebuilder.callCount()
	time.Sleep(50 * time.Millisecond)
	gt.Value(t, rebuilder.callCount()).Equal(calls)

	w.Stop()
}
