package sink

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/msto63/logpipe/core/log"
)

// ScopePrefix marks scope-derived properties in structured output so
// they cannot silently collide with message properties.
const ScopePrefix = "scope."

// JSONLines writes one compact, self-contained JSON object per line so
// the file stays streamable and greppable. The core fields timestamp,
// level, category, event_id and message appear on every line;
// event_name, template and exception appear only when set.
type JSONLines struct {
	*Base
	f *os.File
}

// NewJSONLines creates a JSON-lines file destination, creating the
// parent directory if needed. Open failures are fatal construction
// errors.
func NewJSONLines(path string, opts FileOptions) (*JSONLines, error) {
	f, err := openLogFile(path, opts.Append)
	if err != nil {
		return nil, err
	}
	s := &JSONLines{f: f}
	s.Base = NewBase("jsonl", opts.Options, s.persistEntry)
	return s, nil
}

// Core field names of the line object. Properties with these names are
// skipped rather than allowed to overwrite core fields.
var reservedJSONFields = map[string]struct{}{
	"timestamp":  {},
	"level":      {},
	"category":   {},
	"event_id":   {},
	"event_name": {},
	"message":    {},
	"template":   {},
	"exception":  {},
}

func (s *JSONLines) persistEntry(_ context.Context, entry *log.Entry) error {
	data := make(map[string]interface{}, 8+len(entry.Properties)+len(entry.ScopeProperties))
	data["timestamp"] = entry.TimestampUtc.Format(time.RFC3339Nano)
	data["level"] = entry.Level.String()
	data["category"] = entry.Category
	data["event_id"] = entry.EventID
	if entry.EventName != "" {
		data["event_name"] = entry.EventName
	}
	data["message"] = entry.Message
	if entry.MessageTemplate != "" && entry.MessageTemplate != entry.Message {
		data["template"] = entry.MessageTemplate
	}
	for k, v := range entry.Properties {
		if _, reserved := reservedJSONFields[k]; reserved {
			continue
		}
		data[k] = v
	}
	for k, v := range entry.ScopeProperties {
		data[ScopePrefix+k] = v
	}
	if entry.Exception != nil {
		data["exception"] = entry.Exception
	}

	line, err := json.Marshal(data)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = s.f.Write(line)
	return err
}

// Close performs a final flush and releases the file handle.
func (s *JSONLines) Close(ctx context.Context) error {
	s.Flush(ctx)
	return s.f.Close()
}
