// Package sink provides the concrete log destinations of the logpipe
// pipeline and the buffering and locking machinery they share.
package sink

import (
	"context"
	"strings"
	"sync"

	"github.com/msto63/logpipe/core/log"
)

// WriteMode controls when a destination persists entries.
type WriteMode int

const (
	// Immediate persists every entry the moment it arrives.
	Immediate WriteMode = iota

	// Buffered accumulates entries and persists them in batches: when
	// the buffer reaches its threshold, on Flush, and on Close.
	Buffered
)

// String returns the string representation of the write mode.
func (m WriteMode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Buffered:
		return "buffered"
	default:
		return "unknown"
	}
}

// ParseWriteMode parses a string into a write mode.
func ParseWriteMode(mode string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "immediate":
		return Immediate, nil
	case "buffered":
		return Buffered, nil
	default:
		return Immediate, &log.ParseError{Input: mode, Type: "write mode"}
	}
}

// LockMode controls whether a destination guards itself against
// concurrent use.
type LockMode int

const (
	// ThreadSafe serializes writes and flushes internally.
	ThreadSafe LockMode = iota

	// NotThreadSafe skips all locking; the caller must guarantee
	// single-threaded use.
	NotThreadSafe
)

// DefaultBufferSize is the auto-flush threshold of Buffered mode.
const DefaultBufferSize = 100

// Options carries the buffering and locking configuration shared by
// every destination.
type Options struct {
	Mode       WriteMode
	Lock       LockMode
	BufferSize int // auto-flush threshold; zero selects DefaultBufferSize
}

// PersistFunc writes one entry to the destination's medium.
type PersistFunc func(ctx context.Context, entry *log.Entry) error

// Base implements the shared threshold buffering and locking logic. A
// concrete destination embeds *Base and supplies its single-entry
// persist primitive; Base guarantees that persist failures are swallowed
// and reported instead of reaching the logging call site.
type Base struct {
	name      string
	mode      WriteMode
	lock      LockMode
	threshold int

	mu    sync.Mutex
	queue []*log.Entry

	persist PersistFunc
}

func NewBase(name string, opts Options, persist PersistFunc) *Base {
	threshold := opts.BufferSize
	if threshold <= 0 {
		threshold = DefaultBufferSize
	}
	return &Base{
		name:      name,
		mode:      opts.Mode,
		lock:      opts.Lock,
		threshold: threshold,
		persist:   persist,
	}
}

// WriteLog records one entry. In Immediate mode it persists right away;
// in Buffered mode it queues the entry and, when the threshold is
// reached, drains the buffer inline on the writer that hit it.
func (b *Base) WriteLog(ctx context.Context, entry *log.Entry) {
	if b.lock == ThreadSafe {
		b.mu.Lock()
		defer b.mu.Unlock()
	}

	if b.mode == Immediate {
		b.persistOne(ctx, entry)
		return
	}
	b.queue = append(b.queue, entry)
	if len(b.queue) >= b.threshold {
		b.drain(ctx)
	}
}

// Flush persists every currently queued entry in enqueue order. It is a
// no-op in Immediate mode.
func (b *Base) Flush(ctx context.Context) {
	if b.lock == ThreadSafe {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	b.drain(ctx)
}

// drain swaps out the queue so later writers start on a fresh one, then
// persists the drained entries in their original order.
func (b *Base) drain(ctx context.Context) {
	if len(b.queue) == 0 {
		return
	}
	drained := b.queue
	b.queue = nil
	for _, entry := range drained {
		b.persistOne(ctx, entry)
	}
}

func (b *Base) persistOne(ctx context.Context, entry *log.Entry) {
	if err := b.persist(ctx, entry); err != nil {
		log.Reportf("%s destination: dropping entry: %v", b.name, err)
	}
}
