// Package tasks orchestrates the list update pipeline with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Update] : Full refresh of every enabled list
//     - Checks that every service credential is present and the model key is accepted
//     - Takes the run lock so only one update proceeds at a time
//     - Mirrors new tracker rows into the local store
//     - For each enabled list: builds a prompt, asks the model, clears the
//     remote list, publishes the resolved titles, and renames it
//
//  2. [SyncEngine.SyncTracker] : Mirror tracker rows only
//     - Reads the newest stored timestamp per table and fetches anything newer
//     - Inserts rows with first-write-wins semantics
//
// # Progress Reporting
//
// Operations accept a send-only [ProgressUpdate] channel. Updates use select
// with default so a slow reader never stalls a run.
//
// # Failure Scope
//
// A failure while processing one list is recorded in its [ListOutcome] and the
// run moves on. Local store errors, cancellation, and precondition failures
// abort the run. The lock is released on every exit path.
//
// # Scheduling
//
// [Timer] runs [SyncEngine.Update] whenever the configured interval has passed
// since the timestamp in the last-run file.
package tasks
