package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"car-archive/internal/logging"
)

const defaultTimeout = 5 * time.Second

// TransformJobStatus is the lifecycle state of a transform job row.
type TransformJobStatus string

const (
	JobRunning TransformJobStatus = "running"
	JobDone    TransformJobStatus = "done"
	JobFailed  TransformJobStatus = "failed"
)

// TransformJob is one recorded native-tool invocation.
type TransformJob struct {
	ID         int64              `json:"id"`
	Tool       string             `json:"tool"`
	InputPath  string             `json:"inputPath"`
	OutputPath string             `json:"outputPath"`
	Status     TransformJobStatus `json:"status"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
}

// Stats summarizes the store for the health endpoint.
type Stats struct {
	WarmEntries   int `json:"warmEntries"`
	TransformJobs int `json:"transformJobs"`
}

// Store persists warm history (observability only; the in-memory
// ledger stays authoritative within a session) and the transform job
// log in a local SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database file at dbPath. The parent
// directory must exist and be writable.
func New(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode and a busy timeout keep concurrent readers from
	// tripping over the writer
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close store after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	logging.Info("Store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS warm_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gallery_id TEXT NOT NULL,
		key TEXT NOT NULL,
		warmed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_warm_gallery ON warm_history(gallery_id);

	CREATE TABLE IF NOT EXISTS transform_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tool TEXT NOT NULL,
		input_path TEXT NOT NULL,
		output_path TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWarm appends one warm-history entry.
func (s *Store) RecordWarm(galleryID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO warm_history (gallery_id, key) VALUES (?, ?)`,
		galleryID, key,
	)
	if err != nil {
		return fmt.Errorf("record warm: %w", err)
	}
	return nil
}

// WarmHistory returns the ledger keys recorded for one gallery, oldest
// first.
func (s *Store) WarmHistory(galleryID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT key FROM warm_history WHERE gallery_id = ? ORDER BY id`,
		galleryID,
	)
	if err != nil {
		return nil, fmt.Errorf("warm history: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("warm history scan: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CreateTransformJob records the start of one tool invocation and
// returns the job id.
func (s *Store) CreateTransformJob(tool, inputPath, outputPath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO transform_jobs (tool, input_path, output_path, status) VALUES (?, ?, ?, ?)`,
		tool, inputPath, outputPath, JobRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("create transform job: %w", err)
	}
	return res.LastInsertId()
}

// FinishTransformJob marks a job done, or failed when errMsg is
// non-empty.
func (s *Store) FinishTransformJob(id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := JobDone
	if errMsg != "" {
		status = JobFailed
	}
	_, err := s.db.Exec(
		`UPDATE transform_jobs SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("finish transform job: %w", err)
	}
	return nil
}

// GetTransformJob returns one job, or sql.ErrNoRows.
func (s *Store) GetTransformJob(id int64) (*TransformJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var job TransformJob
	var finished sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, tool, input_path, output_path, status, error, created_at, finished_at
		 FROM transform_jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.Tool, &job.InputPath, &job.OutputPath, &job.Status, &job.Error, &job.CreatedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		job.FinishedAt = &finished.Time
	}
	return &job, nil
}

// GetStats returns store row counts for the health endpoint.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM warm_history`).Scan(&stats.WarmEntries); err != nil {
		return stats, fmt.Errorf("store stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transform_jobs`).Scan(&stats.TransformJobs); err != nil {
		return stats, fmt.Errorf("store stats: %w", err)
	}
	return stats, nil
}
