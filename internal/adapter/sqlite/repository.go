package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cwygoda/playlistbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL,
    channel    TEXT NOT NULL,
    url        TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'running',
    total      INTEGER NOT NULL DEFAULT 0,
    uploaded   INTEGER NOT NULL DEFAULT 0,
    skipped    INTEGER NOT NULL DEFAULT 0,
    failed     INTEGER NOT NULL DEFAULT 0,
    error      TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_user ON jobs(user_id, created_at);
`

// maxErrorLen bounds the stored error text.
const maxErrorLen = 2000

// Repository implements domain.JobRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Jobs of different users finish concurrently; serialise writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new job record.
func (r *Repository) Create(ctx context.Context, rec *domain.JobRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = domain.StatusRunning
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, user_id, channel, url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Channel, rec.URL, rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// Finish stores the outcome of a job.
func (r *Repository) Finish(ctx context.Context, id string, rep *domain.Report) error {
	var errText string
	if rep.Err != nil {
		errText = domain.Truncate(rep.Err.Error(), maxErrorLen)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, total = ?, uploaded = ?, skipped = ?, failed = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		rep.Status(), rep.Total, rep.Uploaded, len(rep.Skipped), len(rep.Failed), errText, time.Now(), id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Get retrieves a job by ID.
func (r *Repository) Get(ctx context.Context, id string) (*domain.JobRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, channel, url, status, total, uploaded, skipped, failed,
		        COALESCE(error, ''), created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	)
	return scanJob(row)
}

// ListByUser returns a user's most recent jobs, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.JobRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, channel, url, status, total, uploaded, skipped, failed,
		        COALESCE(error, ''), created_at, updated_at
		 FROM jobs WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// RecoverStale marks jobs left running by a previous process as interrupted.
func (r *Repository) RecoverStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = 'interrupted by restart', updated_at = ?
		 WHERE status = ?`,
		domain.StatusInterrupted, time.Now(), domain.StatusRunning,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.JobRecord, error) {
	var job domain.JobRecord
	var status string
	err := row.Scan(&job.ID, &job.UserID, &job.Channel, &job.URL, &status,
		&job.Total, &job.Uploaded, &job.Skipped, &job.Failed,
		&job.Error, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}
