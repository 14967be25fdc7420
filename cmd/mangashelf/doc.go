// Package main hosts the mangashelf CLI.
//
// Commands manage the library (items, units, albums), run page images through
// recognition and translation, and read or export the translation history.
// Each invocation opens the library database directly; there is no daemon.
// The heavy lifting lives in the internal packages and this package only
// wires them to flags and output.
package main
