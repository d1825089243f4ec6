package log

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Queue sizing and backpressure bounds for the async logger.
const (
	DefaultQueueCapacity = 1000

	// defaultEnqueueWait bounds how long a non-critical write may wait on
	// a full queue before the entry is dropped.
	defaultEnqueueWait = 50 * time.Millisecond

	// defaultFlushTimeout bounds Flush when the caller's context carries
	// no deadline of its own.
	defaultFlushTimeout = 5 * time.Second
)

// asyncState tracks the lifecycle of the async logger. Transitions go
// running -> draining -> stopped and never return to running.
type asyncState int

const (
	stateRunning asyncState = iota
	stateDraining
	stateStopped
)

type asyncItem struct {
	entry *Entry

	// flushed is non-nil on flush sentinels; the consumer closes it once
	// every entry enqueued before the sentinel has been written.
	flushed chan struct{}
}

// AsyncLogger is the queued logger for one category. Callers only
// enqueue; a single background consumer performs all destination writes,
// fanning each entry out to every destination concurrently and waiting
// for the slowest before taking the next entry. That preserves
// per-destination ordering and caps in-flight work to one entry's worth
// of destinations.
//
// Backpressure on a full queue never blocks the caller indefinitely:
// entries below Error wait briefly and are then dropped, while Error and
// Critical entries fall back to an immediate direct write so high
// severities survive load. The direct write can land ahead of
// lower-severity entries the same caller queued earlier.
type AsyncLogger struct {
	base  *Logger
	queue chan asyncItem
	wait  time.Duration

	mu      sync.RWMutex
	state   asyncState
	done    chan struct{}
	dropped atomic.Uint64
}

// NewAsyncLogger creates a queued logger and starts its consumer. A
// non-positive capacity selects DefaultQueueCapacity.
func NewAsyncLogger(category string, minLevel Level, capacity int, destinations ...Destination) *AsyncLogger {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	a := &AsyncLogger{
		base:  NewLogger(category, minLevel, destinations...),
		queue: make(chan asyncItem, capacity),
		wait:  defaultEnqueueWait,
		done:  make(chan struct{}),
	}
	go a.consume()
	return a
}

// Category returns the logical source name of this logger.
func (a *AsyncLogger) Category() string {
	return a.base.Category()
}

// IsEnabled reports whether entries at the given level would be emitted.
func (a *AsyncLogger) IsEnabled(level Level) bool {
	return a.base.IsEnabled(level)
}

// Dropped returns the number of entries discarded under backpressure.
func (a *AsyncLogger) Dropped() uint64 {
	return a.dropped.Load()
}

// Log writes an entry at the given level. When the level is disabled the
// call returns before any template parsing happens.
func (a *AsyncLogger) Log(ctx context.Context, level Level, err error, template string, args ...interface{}) {
	a.LogEvent(ctx, level, EventID{}, err, template, args...)
}

// LogEvent writes an entry carrying an event identifier.
func (a *AsyncLogger) LogEvent(ctx context.Context, level Level, event EventID, err error, template string, args ...interface{}) {
	if !a.base.IsEnabled(level) {
		return
	}
	a.enqueue(ctx, a.base.newEntry(ctx, level, event, err, template, args))
}

// Trace logs a trace level message.
func (a *AsyncLogger) Trace(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelTrace, nil, template, args...)
}

// Debug logs a debug level message.
func (a *AsyncLogger) Debug(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelDebug, nil, template, args...)
}

// Information logs an informational message.
func (a *AsyncLogger) Information(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelInformation, nil, template, args...)
}

// Warning logs a warning level message.
func (a *AsyncLogger) Warning(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelWarning, nil, template, args...)
}

// Error logs an error level message.
func (a *AsyncLogger) Error(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelError, nil, template, args...)
}

// Critical logs a critical level message.
func (a *AsyncLogger) Critical(ctx context.Context, template string, args ...interface{}) {
	a.Log(ctx, LevelCritical, nil, template, args...)
}

// WarningWithErr logs a warning with an error object.
func (a *AsyncLogger) WarningWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	a.Log(ctx, LevelWarning, err, template, args...)
}

// ErrorWithErr logs an error level message with an error object.
func (a *AsyncLogger) ErrorWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	a.Log(ctx, LevelError, err, template, args...)
}

// CriticalWithErr logs a critical message with an error object.
func (a *AsyncLogger) CriticalWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	a.Log(ctx, LevelCritical, err, template, args...)
}

// enqueue applies the backpressure policy. The read lock excludes the
// close of the queue channel, never other writers.
func (a *AsyncLogger) enqueue(ctx context.Context, entry *Entry) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.state != stateRunning {
		// Writer side is closed; deliver on the caller's stack rather
		// than lose the entry.
		a.base.deliver(ctx, entry)
		return
	}

	select {
	case a.queue <- asyncItem{entry: entry}:
		return
	default:
	}

	// Queue is full. High severities bypass it with a direct write.
	if entry.Level >= LevelError {
		a.base.deliver(ctx, entry)
		return
	}

	timer := time.NewTimer(a.wait)
	defer timer.Stop()
	select {
	case a.queue <- asyncItem{entry: entry}:
	case <-timer.C:
		a.dropped.Add(1)
	case <-ctx.Done():
		a.dropped.Add(1)
	}
}

// consume drains the queue until it is closed, then signals done.
func (a *AsyncLogger) consume() {
	ctx := context.Background()
	for item := range a.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		a.fanOut(ctx, item.entry)
	}
	close(a.done)
}

// fanOut writes one entry to every destination concurrently and waits
// for all of them.
func (a *AsyncLogger) fanOut(ctx context.Context, entry *Entry) {
	var wg sync.WaitGroup
	for _, d := range a.base.destinations {
		wg.Add(1)
		go func(d Destination) {
			defer wg.Done()
			d.WriteLog(ctx, entry)
		}(d)
	}
	wg.Wait()
}

// Flush waits until the queue has drained past a sentinel, then flushes
// every destination. Cancellation is advisory: on timeout the method
// proceeds to a best-effort destination flush instead of failing.
func (a *AsyncLogger) Flush(ctx context.Context) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultFlushTimeout)
		defer cancel()
	}

	ack := make(chan struct{})
	a.mu.RLock()
	queued := false
	if a.state == stateRunning {
		select {
		case a.queue <- asyncItem{flushed: ack}:
			queued = true
		case <-ctx.Done():
		}
	}
	a.mu.RUnlock()

	if queued {
		select {
		case <-ack:
		case <-a.done:
		case <-ctx.Done():
		}
	}
	a.base.Flush(ctx)
}

// Close stops the writer side, waits for the consumer to finish the
// backlog and performs a final flush. Destinations stay open; they are
// owned and closed by the Factory. Close never returns to running.
func (a *AsyncLogger) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.state != stateRunning {
		a.mu.Unlock()
		select {
		case <-a.done:
		case <-ctx.Done():
		}
		return nil
	}
	a.state = stateDraining
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-ctx.Done():
		// Advisory cancellation: proceed to best-effort cleanup.
	}

	a.mu.Lock()
	a.state = stateStopped
	a.mu.Unlock()

	a.base.Flush(context.Background())
	return nil
}
