package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Destination records log entries to one medium. Implementations own
// their buffering and locking; see the sink package for the concrete
// destinations and their shared base.
//
// WriteLog must never panic or surface delivery errors to the caller: a
// failing destination swallows the error, reports it through Reportf and
// returns normally. Flush drains any buffered entries in enqueue order;
// for unbuffered destinations it is a no-op. Close performs a final
// best-effort flush and then releases owned resources.
type Destination interface {
	WriteLog(ctx context.Context, entry *Entry)
	Flush(ctx context.Context)
	Close(ctx context.Context) error
}

// Fallback diagnostic channel. Delivery failures inside the pipeline are
// reported here instead of propagating to the logging call site, so that
// logging can never destabilize the application.
var (
	fallbackMu sync.Mutex
	fallback   io.Writer = os.Stdout
)

// Reportf writes a pipeline diagnostic to the fallback channel.
func Reportf(format string, args ...interface{}) {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	fmt.Fprintf(fallback, "logpipe: "+format+"\n", args...)
}

// SetFallbackWriter redirects the fallback diagnostic channel. It returns
// the previous writer so tests can restore it.
func SetFallbackWriter(w io.Writer) io.Writer {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	prev := fallback
	if w == nil {
		w = os.Stdout
	}
	fallback = w
	return prev
}
