// Package notifications pushes library and recognition milestones to ntfy.
//
// NewService returns a no-op Service when no topic is configured, so callers
// never branch on whether notifications are enabled. Observer adapts a
// Service to workflow events and delivers them off the dispatch path.
package notifications
