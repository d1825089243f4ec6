package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/msto63/logpipe/core/log"
)

const colorReset = "\033[0m"

// Console writes entries to a terminal writer, optionally colored by
// level.
type Console struct {
	*Base
	w     io.Writer
	color bool
}

// ConsoleOptions configures a console destination.
type ConsoleOptions struct {
	Options

	// Writer defaults to os.Stdout.
	Writer io.Writer

	// DisableColors turns off the per-level ANSI coloring.
	DisableColors bool
}

// NewConsole creates a console destination.
func NewConsole(opts ConsoleOptions) *Console {
	c := &Console{
		w:     opts.Writer,
		color: !opts.DisableColors,
	}
	if c.w == nil {
		c.w = os.Stdout
	}
	c.Base = NewBase("console", opts.Options, c.persistEntry)
	return c
}

func (c *Console) persistEntry(_ context.Context, entry *log.Entry) error {
	line := FormatLine(entry)
	if c.color {
		line = entry.Level.Color() + line + colorReset
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}

// Close performs a final flush. The writer is not owned by the
// destination and stays open.
func (c *Console) Close(ctx context.Context) error {
	c.Flush(ctx)
	return nil
}
