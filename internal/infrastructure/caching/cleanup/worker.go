// Package cleanup provides the background worker that drains the
// invalidation queue and sweeps expired render entries.
package cleanup

import (
	"context"
	"log"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

// Drainer is the queue side of the worker.
type Drainer interface {
	Drain(ctx context.Context, limit int, trigger faq.Trigger) (*faq.QueueRun, error)
	SweepExpired() int
}

// Worker handles scheduled queue drains and cache sweeps
type Worker struct {
	drainer  Drainer
	source   HealthSource
	config   *Config
	reporter *Reporter
}

// NewWorker creates a new worker with injected configuration
func NewWorker(drainer Drainer, source HealthSource, config *Config) *Worker {
	return &Worker{
		drainer:  drainer,
		source:   source,
		config:   config,
		reporter: NewReporter(source),
	}
}

// Start runs until ctx is cancelled. A zero interval disables that job.
func (w *Worker) Start(ctx context.Context) {
	drainC, stopDrain := tick(w.config.DrainInterval)
	defer stopDrain()
	sweepC, stopSweep := tick(w.config.SweepInterval)
	defer stopSweep()

	log.Printf("Queue worker started (drain: %v, sweep: %v, verbose: %v)",
		w.config.DrainInterval, w.config.SweepInterval, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Queue worker stopping...")
			return
		case <-drainC:
			w.performDrain(ctx)
		case <-sweepC:
			w.performSweep()
		}
	}
}

func tick(interval time.Duration) (<-chan time.Time, func()) {
	if interval <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// performDrain runs one scheduled drain of a single batch
func (w *Worker) performDrain(ctx context.Context) {
	start := time.Now()
	if w.config.VerboseReporting {
		w.reporter.LogStage("SCHEDULED QUEUE DRAIN")
	}

	run, err := w.drainer.Drain(ctx, 0, faq.TriggerScheduled)
	if err != nil {
		w.reporter.LogError("Queue drain failed", err)
		return
	}

	duration := time.Since(start)
	if run.Processed > 0 {
		w.reporter.LogSuccess("Queue drain finished: %d pages invalidated, %d remaining in %v",
			run.Processed, run.Remaining, duration)
	} else if w.config.VerboseReporting {
		w.reporter.LogInfo("Queue drain completed - nothing pending (%v)", duration)
	}
	if w.config.VerboseReporting {
		w.reporter.PrintReport(ctx)
	}
}

func (w *Worker) performSweep() {
	swept := w.drainer.SweepExpired()
	if swept > 0 {
		w.reporter.LogSuccess("Render cache sweep removed %d expired entries", swept)
	} else if w.config.VerboseReporting {
		w.reporter.LogInfo("Render cache sweep completed - no expired entries found")
	}
}
