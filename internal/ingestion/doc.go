// Package ingestion turns image batches and paginated documents into library
// records.
//
// Every operation validates its input on the caller's goroutine, then runs on
// the shared worker pool. Once a worker starts an operation it is no longer
// cancellable: the item or unit and all of its pages are written in one
// transaction, or nothing is. Appends to the same item are serialized by an
// in-process mutex plus a lock file under the data directory, so sequence
// numbers stay gapless across goroutines and processes; appends to different
// items proceed independently.
package ingestion
