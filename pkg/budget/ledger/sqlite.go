package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteLedger implements Ledger on a SQLite database. The version check
// and the write happen in a single UPDATE statement, so separate processes
// sharing the database file cannot lose updates.
type SQLiteLedger struct {
	db               *sql.DB
	dbPath           string
	checkpointPeriod time.Duration
	done             chan struct{}
	closeOnce        sync.Once

	getStmt    *sql.Stmt
	insertStmt *sql.Stmt
	updateStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// SQLiteConfig configures the SQLite ledger.
type SQLiteConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteLedger opens (or creates) a ledger database at dbPath.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	return NewSQLiteLedgerWithConfig(SQLiteConfig{DBPath: dbPath})
}

// NewSQLiteLedgerWithConfig opens a ledger database with custom settings.
func NewSQLiteLedgerWithConfig(cfg SQLiteConfig) (*SQLiteLedger, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &SQLiteLedger{
		db:               db,
		dbPath:           cfg.DBPath,
		checkpointPeriod: cfg.CheckpointInterval,
		done:             make(chan struct{}),
	}

	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := l.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go l.checkpointLoop()

	return l, nil
}

func (l *SQLiteLedger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budget_ledger (
		department_id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		spent TEXT NOT NULL,
		version INTEGER NOT NULL,
		last_commit_id TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLiteLedger) prepareStatements() error {
	var err error

	l.getStmt, err = l.db.Prepare(`
		SELECT department_id, period, spent, version, last_commit_id, updated_at
		FROM budget_ledger
		WHERE department_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	l.insertStmt, err = l.db.Prepare(`
		INSERT INTO budget_ledger (department_id, period, spent, version, last_commit_id, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT (department_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	l.updateStmt, err = l.db.Prepare(`
		UPDATE budget_ledger
		SET period = ?, spent = ?, version = version + 1, last_commit_id = ?, updated_at = ?
		WHERE department_id = ? AND version = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}

	l.listStmt, err = l.db.Prepare(`
		SELECT department_id, period, spent, version, last_commit_id, updated_at
		FROM budget_ledger
		ORDER BY department_id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Get returns the entry for a department, or nil if none exists.
func (l *SQLiteLedger) Get(ctx context.Context, departmentID string) (*Entry, error) {
	if departmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}

	e, err := scanEntry(l.getStmt.QueryRowContext(ctx, departmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry: %w", err)
	}
	return e, nil
}

// CompareAndSwap stores next if the stored version equals expected.
func (l *SQLiteLedger) CompareAndSwap(ctx context.Context, expected int64, next Entry) (*Entry, error) {
	if next.DepartmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}

	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = l.insertStmt.ExecContext(ctx,
			next.DepartmentID, next.Period, next.Spent.String(), next.LastCommitID, next.UpdatedAt.UnixNano())
	} else {
		res, err = l.updateStmt.ExecContext(ctx,
			next.Period, next.Spent.String(), next.LastCommitID, next.UpdatedAt.UnixNano(),
			next.DepartmentID, expected)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write ledger entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: department %s, expected version %d", ErrVersionMismatch, next.DepartmentID, expected)
	}

	next.Version = expected + 1
	return &next, nil
}

// List returns all entries ordered by department id.
func (l *SQLiteLedger) List(ctx context.Context) ([]*Entry, error) {
	rows, err := l.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

// Close releases the database. It is safe to call more than once.
func (l *SQLiteLedger) Close() error {
	var closeErr error

	l.closeOnce.Do(func() {
		close(l.done)

		for _, stmt := range []*sql.Stmt{l.getStmt, l.insertStmt, l.updateStmt, l.listStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if l.db != nil {
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = l.db.Close()
		}
	})

	return closeErr
}

func (l *SQLiteLedger) checkpointLoop() {
	ticker := time.NewTicker(l.checkpointPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = l.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-l.done:
			return
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e         Entry
		spent     string
		updatedAt int64
	)
	if err := row.Scan(&e.DepartmentID, &e.Period, &spent, &e.Version, &e.LastCommitID, &updatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(spent)
	if err != nil {
		return nil, fmt.Errorf("invalid spent value %q: %w", spent, err)
	}
	e.Spent = amount
	e.UpdatedAt = time.Unix(0, updatedAt)
	return &e, nil
}
