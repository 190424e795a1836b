package cleanup

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
)

type fakeQueue struct {
	drains   atomic.Int32
	sweeps   atomic.Int32
	triggers chan faq.Trigger
}

func (f *fakeQueue) Drain(_ context.Context, limit int, trigger faq.Trigger) (*faq.QueueRun, error) {
	f.drains.Add(1)
	select {
	case f.triggers <- trigger:
	default:
	}
	return &faq.QueueRun{ID: "run", RanAt: time.Now(), Processed: 3, Trigger: trigger}, nil
}

func (f *fakeQueue) SweepExpired() int {
	f.sweeps.Add(1)
	return 0
}

func (f *fakeQueue) QueueLength(context.Context) (int, error) { return 7, nil }

func (f *fakeQueue) LastRun(context.Context) (*faq.QueueRun, error) {
	return &faq.QueueRun{RanAt: time.Unix(0, 0).UTC(), Processed: 3, Trigger: faq.TriggerScheduled}, nil
}

func (f *fakeQueue) CacheStats() stores.Stats { return stores.Stats{Entries: 4, Empty: 1, Generation: 9} }

func TestWorkerDrainsOnSchedule(t *testing.T) {
	q := &fakeQueue{triggers: make(chan faq.Trigger, 1)}
	w := NewWorker(q, q, &Config{DrainInterval: 5 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	w.reporter.out = &bytes.Buffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case trigger := <-q.triggers:
		assert.Equal(t, faq.TriggerScheduled, trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("worker never drained")
	}
	require.Eventually(t, func() bool { return q.sweeps.Load() > 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerZeroIntervalDisablesJob(t *testing.T) {
	q := &fakeQueue{triggers: make(chan faq.Trigger, 1)}
	w := NewWorker(q, q, &Config{SweepInterval: 5 * time.Millisecond})
	w.reporter.out = &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	assert.Zero(t, q.drains.Load())
	assert.Positive(t, q.sweeps.Load())
}

func TestReporterIncludesQueueAndCache(t *testing.T) {
	q := &fakeQueue{}
	report := NewReporter(q).GenerateReport(context.Background())
	assert.Contains(t, report, "7 pending")
	assert.Contains(t, report, "1970-01-01T00:00:00Z")
	assert.Contains(t, report, "generation:")
}
