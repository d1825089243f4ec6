package sink

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/msto63/logpipe/core/log"
)

func TestConsoleWritesFormattedLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleOptions{Writer: &buf, DisableColors: true})
	ctx := context.Background()

	entry := &log.Entry{
		TimestampUtc: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Level:        log.LevelWarning,
		Category:     "orders",
		Message:      "retrying payment",
	}
	c.WriteLog(ctx, entry)

	got := buf.String()
	want := "[2026-03-14T09:26:53Z] [WRN] orders: retrying payment\n"
	if got != want {
		t.Errorf("console output = %q, want %q", got, want)
	}
}

func TestConsoleColorsByLevel(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleOptions{Writer: &buf})
	ctx := context.Background()

	entry := &log.Entry{
		TimestampUtc: time.Now().UTC(),
		Level:        log.LevelError,
		Category:     "orders",
		Message:      "payment failed",
	}
	c.WriteLog(ctx, entry)

	got := buf.String()
	if !strings.HasPrefix(got, log.LevelError.Color()) {
		t.Errorf("colored output %q should start with the level color", got)
	}
	if !strings.Contains(got, colorReset) {
		t.Errorf("colored output %q should reset the color", got)
	}
}

func TestConsoleIncludesException(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleOptions{Writer: &buf, DisableColors: true})
	ctx := context.Background()

	entry := &log.Entry{
		TimestampUtc: time.Now().UTC(),
		Level:        log.LevelError,
		Category:     "orders",
		Message:      "payment failed",
		Exception:    &log.ExceptionInfo{Type: "*errors.errorString", Message: "card declined"},
	}
	c.WriteLog(ctx, entry)

	if !strings.Contains(buf.String(), "card declined") {
		t.Errorf("console output %q should include the exception", buf.String())
	}
}

func TestConsoleBufferedFlushOnClose(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(ConsoleOptions{
		Options:       Options{Mode: Buffered, BufferSize: 10},
		Writer:        &buf,
		DisableColors: true,
	})
	ctx := context.Background()

	c.WriteLog(ctx, &log.Entry{TimestampUtc: time.Now().UTC(), Level: log.LevelInformation, Category: "a", Message: "held"})
	if buf.Len() != 0 {
		t.Fatalf("buffered console wrote %q before flush", buf.String())
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !strings.Contains(buf.String(), "held") {
		t.Errorf("Close should flush buffered entries, got %q", buf.String())
	}
}
