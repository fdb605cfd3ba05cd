package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence. It is suitable
// for single-instance deployments where totals must survive restarts.
//
// The store uses a write-ahead log for concurrent read performance and runs
// periodic passive checkpoints to bound WAL growth.
type SQLiteStore struct {
	db              *sql.DB
	dbPath          string
	checkpointEvery time.Duration
	done            chan struct{}
	closeOnce       sync.Once

	totalsDayStmt  *sql.Stmt
	totalsWeekStmt *sql.Stmt
	commitStmt     *sql.Stmt
	pruneStmt      *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite ledger store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite ledger store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite ledger store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:              db,
		dbPath:          cfg.DBPath,
		checkpointEvery: cfg.CheckpointInterval,
		done:            make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the ledger schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spending_buckets (
		account TEXT NOT NULL,
		day INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		PRIMARY KEY (account, day)
	);

	CREATE INDEX IF NOT EXISTS idx_spending_day ON spending_buckets(day);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.totalsDayStmt, err = s.db.Prepare(`
		SELECT COALESCE(SUM(amount), 0) FROM spending_buckets
		WHERE account = ? AND day = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare daily totals statement: %w", err)
	}

	s.totalsWeekStmt, err = s.db.Prepare(`
		SELECT COALESCE(SUM(amount), 0) FROM spending_buckets
		WHERE account = ? AND day BETWEEN ? AND ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare weekly totals statement: %w", err)
	}

	s.commitStmt, err = s.db.Prepare(`
		INSERT INTO spending_buckets (account, day, amount)
		VALUES (?, ?, ?)
		ON CONFLICT (account, day) DO UPDATE SET
			amount = amount + excluded.amount
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare commit statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM spending_buckets WHERE day < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Totals returns the daily and weekly sums for the bucket containing timestamp.
func (s *SQLiteStore) Totals(ctx context.Context, account string, timestamp uint64) (Totals, error) {
	if account == "" {
		return Totals{}, ErrEmptyAccount
	}

	day := DayIndex(timestamp)

	var totals Totals
	if err := s.totalsDayStmt.QueryRowContext(ctx, account, day).Scan(&totals.Today); err != nil {
		return Totals{}, fmt.Errorf("failed to query daily total: %w", err)
	}
	if err := s.totalsWeekStmt.QueryRowContext(ctx, account, WeekStart(day), day).Scan(&totals.Week); err != nil {
		return Totals{}, fmt.Errorf("failed to query weekly total: %w", err)
	}
	return totals, nil
}

// Commit adds amount to the bucket containing timestamp.
func (s *SQLiteStore) Commit(ctx context.Context, account string, amount uint64, timestamp uint64) error {
	if account == "" {
		return ErrEmptyAccount
	}

	if _, err := s.commitStmt.ExecContext(ctx, account, DayIndex(timestamp), amount); err != nil {
		return fmt.Errorf("failed to commit spending: %w", err)
	}
	return nil
}

// Prune removes buckets with a day index below beforeDay.
func (s *SQLiteStore) Prune(ctx context.Context, beforeDay uint64) (int, error) {
	result, err := s.pruneStmt.ExecContext(ctx, beforeDay)
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases the database. Idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{s.totalsDayStmt, s.totalsWeekStmt, s.commitStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
