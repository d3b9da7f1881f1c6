package db

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/npcmind/internal/ai"
)

// finalFlushTimeout bounds the flush performed after Run's context is canceled.
const finalFlushTimeout = 5 * time.Second

// EventWriter persists a batch of events.
type EventWriter interface {
	InsertEvents(ctx context.Context, runID uuid.UUID, events []ai.Event) error
}

// JournalOptions tunes buffering of the journal.
type JournalOptions struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Journal records behavior events asynchronously.
// Observe never blocks the tick: when the buffer is full the event is dropped
// and counted.
type Journal struct {
	writer EventWriter
	runID  uuid.UUID
	opts   JournalOptions
	events chan ai.Event

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewJournal creates a journal for one simulation run.
func NewJournal(w EventWriter, runID uuid.UUID, opts JournalOptions) *Journal {
	opts.BufferSize = max(opts.BufferSize, 1)
	opts.BatchSize = max(opts.BatchSize, 1)
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	return &Journal{
		writer: w,
		runID:  runID,
		opts:   opts,
		events: make(chan ai.Event, opts.BufferSize),
	}
}

// RunID returns the run identifier stored with every event.
func (j *Journal) RunID() uuid.UUID { return j.runID }

// Observe queues an event. Safe for concurrent use; implements ai.Observer.
func (j *Journal) Observe(e ai.Event) {
	select {
	case j.events <- e:
	default:
		if n := j.dropped.Add(1); n == 1 || n%1000 == 0 {
			slog.Warn("behavior journal full, dropping events", "dropped", n)
		}
	}
}

// Run flushes queued events in batches until ctx is canceled, then drains
// the buffer and flushes once more.
func (j *Journal) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]ai.Event, 0, j.opts.BatchSize)
	for {
		select {
		case <-ctx.Done():
			batch = j.drain(batch)
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalFlushTimeout)
			j.flush(flushCtx, batch)
			cancel()

			slog.Info("behavior journal stopped",
				"runID", j.runID,
				"written", j.written.Load(),
				"dropped", j.dropped.Load(),
				"failed", j.failed.Load())
			return nil

		case e := <-j.events:
			batch = append(batch, e)
			if len(batch) >= j.opts.BatchSize {
				batch = j.flush(ctx, batch)
			}

		case <-ticker.C:
			batch = j.flush(ctx, batch)
		}
	}
}

// drain moves everything buffered into batch without blocking.
func (j *Journal) drain(batch []ai.Event) []ai.Event {
	for {
		select {
		case e := <-j.events:
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

// flush writes batch and returns it emptied. Failed batches are logged and discarded.
func (j *Journal) flush(ctx context.Context, batch []ai.Event) []ai.Event {
	if len(batch) == 0 {
		return batch
	}

	for start := 0; start < len(batch); start += j.opts.BatchSize {
		chunk := batch[start:min(start+j.opts.BatchSize, len(batch))]
		if err := j.writer.InsertEvents(ctx, j.runID, chunk); err != nil {
			j.failed.Add(int64(len(chunk)))
			slog.Error("flushing behavior journal", "runID", j.runID, "events", len(chunk), "error", err)
			continue
		}
		j.written.Add(int64(len(chunk)))
	}
	return batch[:0]
}

// Written returns the number of persisted events.
func (j *Journal) Written() int64 { return j.written.Load() }

// Dropped returns the number of events lost to a full buffer.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Failed returns the number of events lost to write errors.
func (j *Journal) Failed() int64 { return j.failed.Load() }
