package log

import (
	"context"
	"time"
)

// EventID identifies a class of recurring events so they can be
// correlated across entries. The zero value means "no event".
type EventID struct {
	ID   int
	Name string
}

// CategoryLogger is the per-category logging contract shared by the
// synchronous Logger and the queued AsyncLogger.
type CategoryLogger interface {
	Category() string
	IsEnabled(level Level) bool

	Log(ctx context.Context, level Level, err error, template string, args ...interface{})
	LogEvent(ctx context.Context, level Level, event EventID, err error, template string, args ...interface{})

	Trace(ctx context.Context, template string, args ...interface{})
	Debug(ctx context.Context, template string, args ...interface{})
	Information(ctx context.Context, template string, args ...interface{})
	Warning(ctx context.Context, template string, args ...interface{})
	Error(ctx context.Context, template string, args ...interface{})
	Critical(ctx context.Context, template string, args ...interface{})
	WarningWithErr(ctx context.Context, err error, template string, args ...interface{})
	ErrorWithErr(ctx context.Context, err error, template string, args ...interface{})
	CriticalWithErr(ctx context.Context, err error, template string, args ...interface{})

	// Flush drains buffered entries down to every destination. Close
	// performs a final flush and stops any background work; it does not
	// close the destinations, which stay owned by the Factory.
	Flush(ctx context.Context)
	Close(ctx context.Context) error
}

// Logger is the synchronous logger for one category: every call performs
// the level check, template parsing, scope merge and all destination
// writes on the caller's stack.
type Logger struct {
	category     string
	minLevel     Level
	destinations []Destination
}

// NewLogger creates a synchronous logger delivering to the given
// destinations in registration order.
func NewLogger(category string, minLevel Level, destinations ...Destination) *Logger {
	return &Logger{
		category:     category,
		minLevel:     minLevel,
		destinations: destinations,
	}
}

// Category returns the logical source name of this logger.
func (l *Logger) Category() string {
	return l.category
}

// IsEnabled reports whether entries at the given level would be emitted.
func (l *Logger) IsEnabled(level Level) bool {
	return level.Enabled(l.minLevel)
}

// Log writes an entry at the given level. When the level is disabled the
// call returns before any template parsing happens.
func (l *Logger) Log(ctx context.Context, level Level, err error, template string, args ...interface{}) {
	l.LogEvent(ctx, level, EventID{}, err, template, args...)
}

// LogEvent writes an entry carrying an event identifier.
func (l *Logger) LogEvent(ctx context.Context, level Level, event EventID, err error, template string, args ...interface{}) {
	if !l.IsEnabled(level) {
		return
	}
	l.deliver(ctx, l.newEntry(ctx, level, event, err, template, args))
}

// Trace logs a trace level message.
func (l *Logger) Trace(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelTrace, nil, template, args...)
}

// Debug logs a debug level message.
func (l *Logger) Debug(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelDebug, nil, template, args...)
}

// Information logs an informational message.
func (l *Logger) Information(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelInformation, nil, template, args...)
}

// Warning logs a warning level message.
func (l *Logger) Warning(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelWarning, nil, template, args...)
}

// Error logs an error level message.
func (l *Logger) Error(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelError, nil, template, args...)
}

// Critical logs a critical level message.
func (l *Logger) Critical(ctx context.Context, template string, args ...interface{}) {
	l.Log(ctx, LevelCritical, nil, template, args...)
}

// WarningWithErr logs a warning with an error object.
func (l *Logger) WarningWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	l.Log(ctx, LevelWarning, err, template, args...)
}

// ErrorWithErr logs an error level message with an error object.
func (l *Logger) ErrorWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	l.Log(ctx, LevelError, err, template, args...)
}

// CriticalWithErr logs a critical message with an error object.
func (l *Logger) CriticalWithErr(ctx context.Context, err error, template string, args ...interface{}) {
	l.Log(ctx, LevelCritical, err, template, args...)
}

// Flush drains buffered entries in every destination.
func (l *Logger) Flush(ctx context.Context) {
	for _, d := range l.destinations {
		d.Flush(ctx)
	}
}

// Close performs a final flush. Destinations stay open; they are owned
// and closed by the Factory.
func (l *Logger) Close(ctx context.Context) error {
	l.Flush(ctx)
	return nil
}

// newEntry builds the immutable entry for one log call.
func (l *Logger) newEntry(ctx context.Context, level Level, event EventID, err error, template string, args []interface{}) *Entry {
	message, properties := ParseTemplate(template, args)
	return &Entry{
		TimestampUtc:    time.Now().UTC(),
		Level:           level,
		Category:        l.category,
		EventID:         event.ID,
		EventName:       event.Name,
		Message:         message,
		MessageTemplate: template,
		Properties:      properties,
		ScopeProperties: ScopeFields(ctx),
		Exception:       NewException(err, 3),
	}
}

// deliver fans the entry out to every destination in registration order.
// Destination failures are contained behind the Destination contract, so
// delivery never branches on them.
func (l *Logger) deliver(ctx context.Context, entry *Entry) {
	for _, d := range l.destinations {
		d.WriteLog(ctx, entry)
	}
}
