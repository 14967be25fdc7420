// Package services defines shared utilities consumed by both pipelines and
// the external integrations behind them.
//
// Key responsibilities:
//   - Context helpers that stamp item/unit IDs, run generations, stage names,
//     and correlation identifiers for logging.
//   - The error taxonomy (batch size, permission, storage, recognition,
//     detection, translation, model availability) plus the Wrap helper that
//     keeps markers matchable with errors.Is.
//
// Provider clients live in subpackages (llm, gemini).
package services
