package logs

import (
	"encoding/json"
	"strings"

	"mangashelf/internal/logging"
)

// Filter selects log lines. Zero fields match everything.
type Filter struct {
	Component     string
	EventType     string
	CorrelationID string
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
}

func (f Filter) empty() bool {
	return f.Component == "" && f.EventType == "" && f.CorrelationID == "" && f.MinLevel == ""
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "warning": 2, "error": 3}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
			return f.matchFields(fields)
		}
	}
	return f.matchText(line)
}

func (f Filter) matchFields(fields map[string]any) bool {
	str := func(key string) string {
		v, _ := fields[key].(string)
		return v
	}
	if f.Component != "" && str(logging.FieldComponent) != f.Component {
		return false
	}
	if f.EventType != "" && str(logging.FieldEventType) != f.EventType {
		return false
	}
	if f.CorrelationID != "" && str(logging.FieldCorrelationID) != f.CorrelationID {
		return false
	}
	if f.MinLevel != "" {
		min, ok := levelRank[strings.ToLower(f.MinLevel)]
		got, known := levelRank[strings.ToLower(str("level"))]
		if ok && known && got < min {
			return false
		}
	}
	return true
}

func (f Filter) matchText(line string) bool {
	if f.Component != "" && !strings.Contains(line, " "+f.Component+": ") {
		return false
	}
	checks := []struct{ key, value string }{
		{logging.FieldEventType, f.EventType},
		{logging.FieldCorrelationID, f.CorrelationID},
	}
	for _, c := range checks {
		if c.value != "" && !strings.Contains(line, c.key+"="+c.value) {
			return false
		}
	}
	if f.MinLevel != "" {
		min, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok {
			upper := strings.ToUpper(line)
			for level, rank := range levelRank {
				if rank < min && strings.Contains(upper, " "+strings.ToUpper(level)+" ") {
					return false
				}
			}
		}
	}
	return true
}
