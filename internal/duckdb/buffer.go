package duckdb

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFlushQueueSize is the number of batches that can be queued for async flushing.
const DefaultFlushQueueSize = 64

// pendingEvent is either an alert or a snapshot waiting to be written.
type pendingEvent struct {
	alert    *AlertRecord
	snapshot *SnapshotRecord
}

// EventBuffer batches history events and flushes them to the store
// asynchronously. Add never blocks on DuckDB writes.
type EventBuffer struct {
	writer        HistoryWriter
	mu            sync.Mutex
	pending       []pendingEvent
	flushChan     chan []pendingEvent
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup
	stopOnce      sync.Once

	// backpressureCount tracks inline flushes for throttled logging.
	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix timestamp of last backpressure log
}

// EventBufferConfig holds tunable parameters for the event buffer.
type EventBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
}

// NewEventBuffer creates a buffer that flushes to writer in the background.
func NewEventBuffer(writer HistoryWriter, conf ...EventBufferConfig) *EventBuffer {
	batchSize := 256
	flushInterval := 250 * time.Millisecond
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &EventBuffer{
		writer:        writer,
		pending:       make([]pendingEvent, 0, batchSize),
		flushChan:     make(chan []pendingEvent, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

// tickLoop periodically drains the pending buffer.
func (b *EventBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending() // final drain
			return
		}
	}
}

// logBackpressure emits a throttled warning (at most once per 10 seconds) when
// the flush channel is full and an inline flush is triggered.
func (b *EventBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("duckdb: backpressure, %d inline flushes (flush channel full)", count)
	}
}

func (b *EventBuffer) takePending() []pendingEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	b.pending = make([]pendingEvent, 0, b.maxBatch)
	return batch
}

// drainPending moves pending events to the flush channel without blocking on DuckDB.
func (b *EventBuffer) drainPending() {
	if batch := b.takePending(); batch != nil {
		b.enqueue(batch)
	}
}

// enqueue hands a batch to the flush worker, flushing inline when the queue is full.
func (b *EventBuffer) enqueue(batch []pendingEvent) {
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error (inline): %v", err)
		}
	}
}

// flushWorker processes batches from the flush channel.
func (b *EventBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error: %v", err)
		}
	}
}

// AddAlert queues an alert transition.
func (b *EventBuffer) AddAlert(r AlertRecord) {
	b.add(pendingEvent{alert: &r})
}

// AddSnapshot queues a metrics snapshot.
func (b *EventBuffer) AddSnapshot(r SnapshotRecord) {
	b.add(pendingEvent{snapshot: &r})
}

func (b *EventBuffer) add(ev pendingEvent) {
	b.mu.Lock()
	b.pending = append(b.pending, ev)
	var batch []pendingEvent
	if len(b.pending) >= b.maxBatch {
		batch = b.pending
		b.pending = make([]pendingEvent, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if batch != nil {
		b.enqueue(batch)
	}
}

// Stop flushes remaining events and waits for all writes to complete.
// It is safe to call more than once.
func (b *EventBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		// Wait for tickLoop to finish its final drain before closing flushChan,
		// ensuring all pending events are sent to the flush channel.
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
	})
}

func (b *EventBuffer) flushBatch(batch []pendingEvent) error {
	var alerts []AlertRecord
	var snapshots []SnapshotRecord
	for _, ev := range batch {
		switch {
		case ev.alert != nil:
			alerts = append(alerts, *ev.alert)
		case ev.snapshot != nil:
			snapshots = append(snapshots, *ev.snapshot)
		}
	}

	return errors.Join(
		b.writer.InsertAlertBatch(alerts),
		b.writer.InsertSnapshotBatch(snapshots),
	)
}
