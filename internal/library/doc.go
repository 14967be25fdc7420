// Package library persists the Item → Unit → Page tree, the recognition
// history log, and albums in SQLite, and exposes live queries over them.
//
// The Store owns the database connection, schema initialization, and busy
// retry. All mutations run through Update, which executes a callback inside a
// single immediate transaction: either every row the callback writes becomes
// visible or none does. Cascading deletes walk owned rows inside that same
// transaction rather than relying on ON DELETE CASCADE, so an item, its units,
// their pages, and their album memberships disappear together.
//
// Watch* methods return channels that deliver a fresh ordered snapshot after
// every committed change to the watched rows. Slow readers see the latest
// snapshot, never an intermediate one.
//
// Schema changes bump schemaVersion in schema.go; the library database is
// durable, so a mismatch is reported instead of silently recreating tables.
package library
