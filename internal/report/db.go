package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	worker_count INTEGER NOT NULL,
	pool_size INTEGER NOT NULL,
	executed INTEGER NOT NULL,
	backoff INTEGER NOT NULL,
	suppressed INTEGER NOT NULL,
	fallback INTEGER NOT NULL,
	successful_retries INTEGER NOT NULL,
	exhausted_retries INTEGER NOT NULL,
	issued INTEGER NOT NULL,
	warnings INTEGER NOT NULL DEFAULT 0
);
`

// History persists run summaries to a local SQLite database so runs can be
// compared after the fact.
type History struct {
	db *sql.DB
}

// OpenHistory creates or opens dataDir/gridlock.db in WAL mode.
func OpenHistory(dataDir string) (*History, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, "gridlock.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// Record inserts one run and returns its row id.
func (h *History) Record(r *Report) (int64, error) {
	res, err := h.db.Exec(`
		INSERT INTO runs (started_at, elapsed_ms, worker_count, pool_size,
			executed, backoff, suppressed, fallback,
			successful_retries, exhausted_retries, issued, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Elapsed.Milliseconds(),
		r.WorkerCount,
		r.PoolSize,
		r.Totals.Executed,
		r.Totals.Backoff,
		r.Totals.Suppressed,
		r.Totals.Fallback,
		r.Totals.SuccessfulRetries,
		r.Totals.ExhaustedRetries,
		r.Totals.Issued,
		len(r.Warnings),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// RunRecord is one stored run summary.
type RunRecord struct {
	ID          int64
	StartedAt   time.Time
	Elapsed     time.Duration
	WorkerCount int
	PoolSize    int
	Executed    int64
	Backoff     int64
	Suppressed  int64
	Fallback    int64
	SuccessfulRetries int64
	ExhaustedRetries  int64
	Issued      int64
	Warnings    int
}

// List returns the most recent runs, newest first.
func (h *History) List(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(`
		SELECT id, started_at, elapsed_ms, worker_count, pool_size,
			executed, backoff, suppressed, fallback,
			successful_retries, exhausted_retries, issued, warnings
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var elapsedMs int64
		if err := rows.Scan(&rec.ID, &started, &elapsedMs, &rec.WorkerCount, &rec.PoolSize,
			&rec.Executed, &rec.Backoff, &rec.Suppressed, &rec.Fallback,
			&rec.SuccessfulRetries, &rec.ExhaustedRetries, &rec.Issued, &rec.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
