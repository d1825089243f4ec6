package log

import (
	"strings"
)

// Level represents the severity of a log entry.
type Level int

const (
	// LevelTrace is the most verbose level, used for very detailed debugging.
	LevelTrace Level = iota

	// LevelDebug provides detailed information for debugging purposes.
	LevelDebug

	// LevelInformation represents general informational messages.
	LevelInformation

	// LevelWarning indicates potentially harmful situations.
	LevelWarning

	// LevelError represents error conditions that need attention.
	LevelError

	// LevelCritical represents failures that require immediate attention.
	LevelCritical

	// LevelNone disables logging entirely when used as a minimum level.
	// It is never attached to an entry.
	LevelNone
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInformation:
		return "information"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	case LevelNone:
		return "none"
	default:
		return "unknown"
	}
}

// ShortString returns the three-letter code used in rendered log lines.
func (l Level) ShortString() string {
	switch l {
	case LevelTrace:
		return "TRC"
	case LevelDebug:
		return "DBG"
	case LevelInformation:
		return "INF"
	case LevelWarning:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelCritical:
		return "CRT"
	default:
		return "???"
	}
}

// Color returns the ANSI color code for the log level (for console output).
func (l Level) Color() string {
	switch l {
	case LevelTrace:
		return "\033[37m" // White
	case LevelDebug:
		return "\033[36m" // Cyan
	case LevelInformation:
		return "\033[32m" // Green
	case LevelWarning:
		return "\033[33m" // Yellow
	case LevelError:
		return "\033[31m" // Red
	case LevelCritical:
		return "\033[35m" // Magenta
	default:
		return "\033[0m" // Reset
	}
}

// Enabled reports whether a message at this level passes the given minimum.
// LevelNone can never be emitted and a minimum of LevelNone disables everything.
func (l Level) Enabled(minLevel Level) bool {
	if l == LevelNone || minLevel == LevelNone {
		return false
	}
	return l >= minLevel
}

// ParseLevel parses a string into a log level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "trc":
		return LevelTrace, nil
	case "debug", "dbg":
		return LevelDebug, nil
	case "info", "inf", "information":
		return LevelInformation, nil
	case "warn", "wrn", "warning":
		return LevelWarning, nil
	case "error", "err":
		return LevelError, nil
	case "critical", "crt", "crit":
		return LevelCritical, nil
	case "none", "off":
		return LevelNone, nil
	default:
		return LevelInformation, &ParseError{
			Input: level,
			Type:  "level",
		}
	}
}

// ParseError represents an error parsing a log configuration value.
type ParseError struct {
	Input string
	Type  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// AllLevels returns every level that can appear on an entry.
func AllLevels() []Level {
	return []Level{
		LevelTrace,
		LevelDebug,
		LevelInformation,
		LevelWarning,
		LevelError,
		LevelCritical,
	}
}

// DefaultLevel returns the default minimum level for production.
func DefaultLevel() Level {
	return LevelInformation
}
