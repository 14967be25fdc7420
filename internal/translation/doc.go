// Package translation prepares and caches translators.
//
// A translator is prepared once per (source, target) language pair and kept
// for the life of the process; the Cache is the only long-lived shared mutable
// state in the recognition pipeline. Concurrent first requests for the same
// pair share a single preparation, and a preparation in flight is never
// abandoned because one waiter went away. Failed preparations are not cached,
// so a later run retries them.
package translation
