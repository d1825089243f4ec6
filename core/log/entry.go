package log

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Fields represents named property values attached to a log entry.
type Fields map[string]interface{}

// Clone creates a copy of the Fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	result := make(Fields, len(f))
	for k, v := range f {
		result[k] = v
	}
	return result
}

// Merge combines the receiver with other into a new Fields; values in
// other win on duplicate names.
func (f Fields) Merge(other Fields) Fields {
	result := make(Fields, len(f)+len(other))
	for k, v := range f {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// ExceptionInfo captures an error and its cause chain for persistence.
type ExceptionInfo struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Stack   string         `json:"stack,omitempty"`
	Inner   *ExceptionInfo `json:"inner,omitempty"`
}

// String renders the exception and its cause chain as indented text, one
// cause per line, followed by the captured stack.
func (x *ExceptionInfo) String() string {
	if x == nil {
		return ""
	}
	var b strings.Builder
	for e, depth := x, 0; e != nil; e, depth = e.Inner, depth+1 {
		if depth > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("caused by: ")
		}
		b.WriteString(e.Type)
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if x.Stack != "" {
		b.WriteString("\n")
		b.WriteString(x.Stack)
	}
	return b.String()
}

// Entry represents a single log event. Entries are built once by a logger
// and never mutated afterwards; destinations may copy or serialize them
// but must not modify them.
type Entry struct {
	TimestampUtc    time.Time
	Level           Level
	Category        string
	EventID         int
	EventName       string
	Message         string
	MessageTemplate string
	Properties      Fields
	ScopeProperties Fields
	Exception       *ExceptionInfo
}

// EventTag returns a compact "id/name" marker for event correlation, or
// the empty string when the entry carries no event identifier.
func (e *Entry) EventTag() string {
	if e.EventID == 0 && e.EventName == "" {
		return ""
	}
	if e.EventName == "" {
		return fmt.Sprintf("%d", e.EventID)
	}
	return fmt.Sprintf("%d/%s", e.EventID, e.EventName)
}

// NewException converts an error and its unwrap chain into an
// ExceptionInfo. The outermost error carries a stack captured at the
// call site; callerSkip counts frames to drop above the logging call.
func NewException(err error, callerSkip int) *ExceptionInfo {
	if err == nil {
		return nil
	}
	info := exceptionChain(err)
	info.Stack = captureStack(callerSkip + 1)
	return info
}

func exceptionChain(err error) *ExceptionInfo {
	info := &ExceptionInfo{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
	if inner := errors.Unwrap(err); inner != nil {
		info.Inner = exceptionChain(inner)
	}
	return info
}

// captureStack renders the calling goroutine's stack as "func (file:line)"
// lines, skipping runtime internals and the given number of frames.
func captureStack(skip int) string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pc[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s (%s:%d)", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}
