package loglens

import "strings"

// Level is the severity assigned to a log line. The zero value means
// "no explicit level supplied"; classification heuristics decide then.
type Level int

const (
	LevelUnset Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// MarshalText makes Level render as its lowercase name in JSON payloads.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the wire names plus common aliases. Unknown
// values map to LevelUnset rather than erroring; malformed input must
// never make a log line undeliverable.
func (l *Level) UnmarshalText(b []byte) error {
	*l = ParseLevel(string(b))
	return nil
}

// ParseLevel maps a level string to a Level. Unrecognized values yield
// LevelUnset so the classifier heuristics take over.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error", "err", "fatal":
		return LevelError
	default:
		return LevelUnset
	}
}
