package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/msto63/logpipe/core/log"
	"github.com/msto63/logpipe/sink"
)

func newTestSink(t *testing.T, opts Options) *Sink {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "logs.db"), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", Options{}); err == nil {
		t.Error("New(\"\") should fail")
	}
	if _, err := New(filepath.Join(t.TempDir(), "logs.db"), Options{PoolSize: -1}); !errors.Is(err, ErrBadPoolSize) {
		t.Errorf("New() with negative pool size error = %v, want ErrBadPoolSize", err)
	}
}

func TestSinkRoundTrip(t *testing.T) {
	s := newTestSink(t, Options{})
	ctx := context.Background()

	entry := &log.Entry{
		TimestampUtc:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Level:           log.LevelWarning,
		Category:        "orders",
		EventID:         4001,
		EventName:       "PaymentRetried",
		Message:         "retrying payment 7",
		MessageTemplate: "retrying payment {Attempt}",
		Properties:      log.Fields{"Attempt": float64(7)},
		ScopeProperties: log.Fields{"RequestId": "r-42"},
		Exception:       &log.ExceptionInfo{Type: "*errors.errorString", Message: "card declined"},
	}
	s.WriteLog(ctx, entry)

	records, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}
	got := records[0]

	if got.ID == "" {
		t.Error("record ID should be assigned")
	}
	if !got.Entry.TimestampUtc.Equal(entry.TimestampUtc) {
		t.Errorf("TimestampUtc = %v, want %v", got.Entry.TimestampUtc, entry.TimestampUtc)
	}
	if got.Entry.Level != log.LevelWarning {
		t.Errorf("Level = %v, want %v", got.Entry.Level, log.LevelWarning)
	}
	if got.Entry.Category != "orders" || got.Entry.EventID != 4001 || got.Entry.EventName != "PaymentRetried" {
		t.Errorf("identity fields = %q/%d/%q, want orders/4001/PaymentRetried",
			got.Entry.Category, got.Entry.EventID, got.Entry.EventName)
	}
	if got.Entry.Message != entry.Message || got.Entry.MessageTemplate != entry.MessageTemplate {
		t.Errorf("message = %q/%q, want %q/%q",
			got.Entry.Message, got.Entry.MessageTemplate, entry.Message, entry.MessageTemplate)
	}
	if got.Entry.Properties["Attempt"] != float64(7) {
		t.Errorf("Properties[Attempt] = %v, want 7", got.Entry.Properties["Attempt"])
	}
	if got.Entry.ScopeProperties["RequestId"] != "r-42" {
		t.Errorf("ScopeProperties[RequestId] = %v, want r-42", got.Entry.ScopeProperties["RequestId"])
	}
	if got.Entry.Exception == nil || got.Entry.Exception.Message != "card declined" {
		t.Errorf("Exception = %+v, want the persisted cause", got.Entry.Exception)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}
}

func TestSinkQueryFilters(t *testing.T) {
	s := newTestSink(t, Options{})
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	seed := []struct {
		level    log.Level
		category string
		offset   time.Duration
	}{
		{log.LevelInformation, "orders", 0},
		{log.LevelError, "orders", time.Minute},
		{log.LevelError, "billing", 2 * time.Minute},
		{log.LevelDebug, "billing", 3 * time.Minute},
	}
	for i, e := range seed {
		s.WriteLog(ctx, &log.Entry{
			TimestampUtc: base.Add(e.offset),
			Level:        e.level,
			Category:     e.category,
			Message:      "entry",
			EventID:      i,
		})
	}

	records, err := s.Query(ctx, Filter{Level: log.LevelError, HasLevel: true})
	if err != nil {
		t.Fatalf("Query(level) error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("level filter returned %d records, want 2", len(records))
	}

	records, err = s.Query(ctx, Filter{Category: "billing"})
	if err != nil {
		t.Fatalf("Query(category) error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("category filter returned %d records, want 2", len(records))
	}

	records, err = s.Query(ctx, Filter{
		StartTime: base.Add(time.Minute),
		EndTime:   base.Add(2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Query(time range) error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("time range filter returned %d records, want 2", len(records))
	}

	records, err = s.Query(ctx, Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query(page) error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("page returned %d records, want 2", len(records))
	}
	// Newest first: offset 1 of 4 seeded entries skips the 3-minute one.
	if !records[0].Entry.TimestampUtc.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("page starts at %v, want %v", records[0].Entry.TimestampUtc, base.Add(2*time.Minute))
	}
}

func TestSinkQueryNewestFirst(t *testing.T) {
	s := newTestSink(t, Options{})
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.WriteLog(ctx, &log.Entry{
			TimestampUtc: base.Add(time.Duration(i) * time.Second),
			Level:        log.LevelInformation,
			Category:     "orders",
			Message:      "entry",
		})
	}

	records, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].Entry.TimestampUtc.After(records[i-1].Entry.TimestampUtc) {
			t.Fatalf("records out of order: %v before %v",
				records[i-1].Entry.TimestampUtc, records[i].Entry.TimestampUtc)
		}
	}
}

func TestSinkBufferedFlushOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	s, err := New(path, Options{Options: sink.Options{Mode: sink.Buffered, BufferSize: 50}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.WriteLog(ctx, &log.Entry{
			TimestampUtc: time.Now().UTC(),
			Level:        log.LevelInformation,
			Category:     "batch",
			Message:      "queued",
		})
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(path, Options{})
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close(ctx)

	records, err := reopened.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 5 {
		t.Errorf("persisted %d entries across close, want 5", len(records))
	}
}

func TestSinkPrune(t *testing.T) {
	s := newTestSink(t, Options{})
	ctx := context.Background()
	now := time.Now().UTC()

	s.WriteLog(ctx, &log.Entry{TimestampUtc: now.Add(-48 * time.Hour), Level: log.LevelInformation, Category: "old", Message: "stale"})
	s.WriteLog(ctx, &log.Entry{TimestampUtc: now, Level: log.LevelInformation, Category: "new", Message: "fresh"})

	removed, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed %d entries, want 1", removed)
	}

	records, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 || records[0].Entry.Category != "new" {
		t.Errorf("surviving records = %+v, want only the fresh entry", records)
	}
}
