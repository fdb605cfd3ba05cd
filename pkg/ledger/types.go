package ledger

import (
	"context"
	"errors"
)

// Sentinel errors shared by all backends.
var (
	// ErrEmptyAccount indicates an operation with no account identifier.
	ErrEmptyAccount = errors.New("ledger: account cannot be empty")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("ledger: store is closed")
)

// Totals are the running spending sums as of just before an intent.
type Totals struct {
	// Today is spending committed in the intent's day bucket.
	Today uint64

	// Week is spending committed in the intent's ISO week, the day bucket
	// included.
	Week uint64
}

// Store persists committed spending per account. Implementations must be
// safe for concurrent use.
type Store interface {
	// Totals returns the daily and weekly sums for the bucket containing
	// timestamp. Accounts with no history return zero totals.
	Totals(ctx context.Context, account string, timestamp uint64) (Totals, error)

	// Commit adds an approved payment amount to the bucket containing
	// timestamp.
	Commit(ctx context.Context, account string, amount uint64, timestamp uint64) error

	// Prune removes every bucket with a day index below beforeDay and
	// returns the number of buckets removed.
	Prune(ctx context.Context, beforeDay uint64) (int, error)

	// Close releases backend resources. The store must not be used after
	// Close.
	Close() error
}

// DayIndex returns the day bucket for a Unix timestamp.
func DayIndex(timestamp uint64) uint64 {
	return timestamp / 86400
}

// WeekStart returns the day index of the Monday opening the ISO week that
// contains day. The epoch (day 0) is a Thursday, three days after its
// Monday.
func WeekStart(day uint64) uint64 {
	offset := (day + 3) % 7
	if offset > day {
		// Days before the epoch's Monday clamp to day 0.
		return 0
	}
	return day - offset
}
