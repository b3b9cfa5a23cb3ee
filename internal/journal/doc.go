// Package journal keeps an append-only log of conversion runs in SQLite.
//
// Every pipeline run gets a run ID (a UUID) and appends typed events as it progresses:
// run_started, hop_completed, validation_passed, validation_skipped, run_completed and
// run_failed. Summarize folds those events back into one RunSummary per run for the
// history command.
package journal
