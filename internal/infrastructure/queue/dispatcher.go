package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wafflestudio/seminar-system/internal/api/metrics"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	recordTimeout  = 5 * time.Second
)

// Recorder persists one activity event. ports.ActivityService satisfies it.
type Recorder interface {
	Record(ctx context.Context, ev domain.ActivityEvent) error
}

// Dispatcher routes activity events to a fixed set of workers sharded by
// seminar id, so the history of one seminar is written in publish order.
type Dispatcher struct {
	workers  []chan domain.ActivityEvent
	recorder Recorder
	log      zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ ports.ActivitySink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder Recorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.ActivityEvent, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ActivityEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Values of ctx reach the recorder but
// its cancellation does not: workers run until Shutdown drains them.
func (d *Dispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(base, i, ch)
	}
}

// Publish hands ev to the worker responsible for its seminar. It never
// blocks: when that worker's buffer is full, or after Shutdown, the event is
// dropped and counted.
func (d *Dispatcher) Publish(ev domain.ActivityEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ev, "closed")
		return
	}
	idx := d.shardIndex(ev.SeminarID)
	select {
	case d.workers[idx] <- ev:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.drop(ev, "queue_full")
	}
}

// Shutdown stops accepting events and waits until every queued event has been
// recorded or ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a seminar id deterministically to a worker index.
func (d *Dispatcher) shardIndex(seminarID int64) int {
	n := int64(len(d.workers))
	return int(((seminarID % n) + n) % n)
}

func (d *Dispatcher) drop(ev domain.ActivityEvent, reason string) {
	metrics.ActivityErrorsTotal.WithLabelValues(reason).Inc()
	d.log.Warn().
		Int64("seminar_id", ev.SeminarID).
		Str("action", string(ev.Action)).
		Str("reason", reason).
		Msg("activity event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ActivityEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for ev := range ch {
		metrics.ActivityQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
		start := time.Now()

		recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
		err := d.recorder.Record(recordCtx, ev)
		cancel()

		if err != nil {
			metrics.ActivityErrorsTotal.WithLabelValues("insert_failed").Inc()
			metrics.ActivityProcessingDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
			d.log.Error().Err(err).
				Int64("seminar_id", ev.SeminarID).
				Int("worker_id", id).
				Msg("activity processing failed")
			continue
		}
		metrics.ActivityProcessedTotal.WithLabelValues(string(ev.Action)).Inc()
		metrics.ActivityProcessingDuration.WithLabelValues(string(ev.Action)).Observe(time.Since(start).Seconds())
	}
}
