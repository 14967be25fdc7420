// Package workflow runs the recognition-translation pipeline.
//
// Each Submit starts a run that moves through recognizing, language
// detecting, and translating before reaching completed or failed, then the
// manager returns to idle. Every submission gets a strictly increasing
// generation. A newer submission cancels the older run's outstanding work,
// and events tagged with an older generation are dropped before they reach
// subscribers or observers, so only the latest run's output is surfaced.
//
// A run that finishes translating always persists its history record, even
// if it was superseded in the meantime; supersession only discards work that
// has not completed yet. Recognized text that is blank completes immediately
// with an empty translation. Undetectable or unsupported languages fall back
// to the configured default source language.
//
// Runs execute on a workpool; Submit never blocks on recognition, detection,
// or translation. The translation cache is shared by every run.
package workflow
