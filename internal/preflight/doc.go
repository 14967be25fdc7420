// Package preflight provides readiness checks for the directories, database,
// and model endpoints mangashelf depends on.
//
// The CLI "mangashelf doctor" command runs RunAll and prints one row per
// check. Checks that need a provider the config does not select are skipped.
package preflight
