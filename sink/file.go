package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msto63/logpipe/core/log"
)

// File appends rendered log lines to a plain-text file.
type File struct {
	*Base
	f *os.File
}

// FileOptions configures a file destination.
type FileOptions struct {
	Options

	// Append keeps the existing file content; by default the file is
	// truncated on construction.
	Append bool
}

// NewFile creates a plain-text file destination, creating the parent
// directory if needed. Open failures are fatal construction errors.
func NewFile(path string, opts FileOptions) (*File, error) {
	f, err := openLogFile(path, opts.Append)
	if err != nil {
		return nil, err
	}
	s := &File{f: f}
	s.Base = NewBase("file", opts.Options, s.persistEntry)
	return s, nil
}

// openLogFile prepares the parent directory and opens the file in append
// or truncate mode. Shared with the JSON-lines destination.
func openLogFile(path string, appendMode bool) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("sink: file path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sink: creating log directory: %w", err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: opening log file: %w", err)
	}
	return f, nil
}

func (s *File) persistEntry(_ context.Context, entry *log.Entry) error {
	_, err := fmt.Fprintln(s.f, FormatLine(entry))
	return err
}

// Close performs a final flush and releases the file handle.
func (s *File) Close(ctx context.Context) error {
	s.Flush(ctx)
	return s.f.Close()
}
