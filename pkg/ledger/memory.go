package ledger

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-memory day buckets. All totals are
// lost when the process exits; use SQLiteStore when persistence across
// restarts is required.
type MemoryStore struct {
	// buckets maps account to day index to committed amount.
	buckets map[string]map[uint64]uint64

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[uint64]uint64),
	}
}

// Totals returns the daily and weekly sums for the bucket containing timestamp.
func (m *MemoryStore) Totals(ctx context.Context, account string, timestamp uint64) (Totals, error) {
	if account == "" {
		return Totals{}, ErrEmptyAccount
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Totals{}, ErrClosed
	}

	days, ok := m.buckets[account]
	if !ok {
		return Totals{}, nil
	}

	day := DayIndex(timestamp)
	totals := Totals{Today: days[day]}
	for d := WeekStart(day); d <= day; d++ {
		totals.Week += days[d]
	}
	return totals, nil
}

// Commit adds amount to the bucket containing timestamp.
func (m *MemoryStore) Commit(ctx context.Context, account string, amount uint64, timestamp uint64) error {
	if account == "" {
		return ErrEmptyAccount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	days, ok := m.buckets[account]
	if !ok {
		days = make(map[uint64]uint64)
		m.buckets[account] = days
	}
	days[DayIndex(timestamp)] += amount
	return nil
}

// Prune removes buckets with a day index below beforeDay.
func (m *MemoryStore) Prune(ctx context.Context, beforeDay uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	removed := 0
	for account, days := range m.buckets {
		for day := range days {
			if day < beforeDay {
				delete(days, day)
				removed++
			}
		}
		if len(days) == 0 {
			delete(m.buckets, account)
		}
	}
	return removed, nil
}

// Close marks the store closed. Idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
