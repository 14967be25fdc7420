// Package logs reads the mangashelf log file for the CLI "logs" command.
//
// It prints the last N matching lines with bounded memory and can follow the
// file for new lines. Structured JSON lines can be filtered by component,
// event type, correlation id, or minimum level; console-format lines are
// matched on their "component: " prefix and key=value pairs.
package logs
