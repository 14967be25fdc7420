// Package textutil provides text processing helpers shared by the pipelines.
//
// The primary use cases are:
//   - Normalizing recognized text (NFKC, whitespace cleanup) before detection
//     and translation
//   - Sanitizing identifiers into filesystem-safe tokens for lock files and
//     export names
package textutil
