// Package ledger tracks committed payment spending per account.
//
// # Overview
//
// The decision core treats running daily and weekly totals as read-only
// inputs; ownership of the ledger belongs to the caller. This package is
// that caller-side ledger: it accumulates approved payment amounts into
// per-account day buckets and answers the two totals a policy evaluation
// needs, spending committed today and spending committed this ISO week.
//
// # Determinism
//
// Buckets are derived from caller-supplied intent timestamps, never from the
// wall clock, so replaying a sequence of commits always reproduces the same
// totals. The day index is timestamp/86400; the ISO week of a day starts on
// Monday under the same epoch weekday convention the decision core uses.
//
// # Backends
//
// Two backends are provided: an in-memory store for tests and ephemeral
// deployments, and a SQLite store for single-instance deployments that need
// totals to survive restarts. Both are safe for concurrent use.
//
// Retention is an operational concern, not a correctness one: old buckets
// can be pruned on a cron schedule with Pruner and Scheduler.
package ledger
