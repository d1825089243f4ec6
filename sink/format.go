package sink

import (
	"fmt"
	"time"

	"github.com/msto63/logpipe/core/log"
)

// FormatLine renders the plain-text layout shared by the console and
// file destinations:
//
//	[2025-01-24T10:30:00Z] [INF] category: message
//
// followed by the exception text on subsequent lines when present.
func FormatLine(entry *log.Entry) string {
	line := fmt.Sprintf("[%s] [%s] %s: %s",
		entry.TimestampUtc.Format(time.RFC3339),
		entry.Level.ShortString(),
		entry.Category,
		entry.Message)
	if entry.Exception != nil {
		line += "\n" + entry.Exception.String()
	}
	return line
}
