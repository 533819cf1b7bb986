package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwygoda/playlistbot/internal/domain"
)

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cleanup := func() {
		repo.Close()
		os.Remove(dbPath)
	}
	return repo, cleanup
}

func newRecord(id string, userID int64) *domain.JobRecord {
	return &domain.JobRecord{
		ID:      id,
		UserID:  userID,
		Channel: "@channel",
		URL:     "https://www.youtube.com/playlist?list=" + id,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	if err := repo.Create(ctx, newRecord("job-1", 7)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	job, err := repo.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.UserID != 7 {
		t.Errorf("UserID = %d, want 7", job.UserID)
	}
	if job.Channel != "@channel" {
		t.Errorf("Channel = %q, want %q", job.Channel, "@channel")
	}
	if job.Status != domain.StatusRunning {
		t.Errorf("Status = %q, want %q", job.Status, domain.StatusRunning)
	}
	if job.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	_, err = repo.Get(ctx, "missing")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	repo.Create(ctx, newRecord("job-1", 7))

	if err := repo.Create(ctx, newRecord("job-1", 7)); err == nil {
		t.Error("Create() with duplicate ID succeeded")
	}
}

func TestRepository_Finish(t *testing.T) {
	tests := []struct {
		name       string
		report     *domain.Report
		wantStatus domain.JobStatus
		wantError  string
	}{
		{
			name: "completed",
			report: &domain.Report{
				Total:    3,
				Uploaded: 2,
				Skipped:  []string{"2 - huge.mp4"},
			},
			wantStatus: domain.StatusCompleted,
		},
		{
			name: "partial failure",
			report: &domain.Report{
				Total:    3,
				Uploaded: 2,
				Failed:   []error{&domain.TransferError{File: "2 - b.mp4", Err: errors.New("timeout")}},
			},
			wantStatus: domain.StatusCompleted,
		},
		{
			name:       "empty",
			report:     &domain.Report{Err: domain.ErrNoDownloads},
			wantStatus: domain.StatusEmpty,
			wantError:  domain.ErrNoDownloads.Error(),
		},
		{
			name: "failed",
			report: &domain.Report{
				Err: &domain.ExtractionError{Op: "download playlist", Err: errors.New("private")},
			},
			wantStatus: domain.StatusFailed,
			wantError:  "download playlist: private",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cleanup := setupTestRepo(t)
			defer cleanup()

			ctx := context.Background()
			repo.Create(ctx, newRecord("job-1", 7))

			if err := repo.Finish(ctx, "job-1", tt.report); err != nil {
				t.Fatalf("Finish() error = %v", err)
			}

			job, _ := repo.Get(ctx, "job-1")
			if job.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", job.Status, tt.wantStatus)
			}
			if job.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", job.Error, tt.wantError)
			}
			if job.Uploaded != tt.report.Uploaded || job.Total != tt.report.Total {
				t.Errorf("counts = %d/%d, want %d/%d", job.Uploaded, job.Total, tt.report.Uploaded, tt.report.Total)
			}
			if job.Skipped != len(tt.report.Skipped) || job.Failed != len(tt.report.Failed) {
				t.Errorf("skipped/failed = %d/%d", job.Skipped, job.Failed)
			}
			if !job.Finished() {
				t.Error("job not finished")
			}
		})
	}
}

func TestRepository_FinishMissing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.Finish(context.Background(), "missing", &domain.Report{})
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Finish() error = %v, want %v", err, domain.ErrJobNotFound)
	}
}

func TestRepository_ListByUser(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := range 4 {
		rec := newRecord(fmt.Sprintf("job-%d", i), 7)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		repo.Create(ctx, rec)
	}
	repo.Create(ctx, newRecord("other", 8))

	jobs, err := repo.ListByUser(ctx, 7, 3)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("ListByUser() returned %d jobs, want 3", len(jobs))
	}
	if jobs[0].ID != "job-3" {
		t.Errorf("jobs[0].ID = %q, want newest job-3", jobs[0].ID)
	}
	for _, job := range jobs {
		if job.UserID != 7 {
			t.Errorf("job %s belongs to user %d", job.ID, job.UserID)
		}
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "nested", "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("New() did not create parent directory")
	}
}

func TestRepository_RecoverStale(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	repo.Create(ctx, newRecord("job-1", 1))
	repo.Create(ctx, newRecord("job-2", 2))
	repo.Create(ctx, newRecord("job-3", 3))
	repo.Finish(ctx, "job-3", &domain.Report{Uploaded: 1})

	count, err := repo.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if count != 2 {
		t.Errorf("RecoverStale() count = %d, want 2", count)
	}

	j1, _ := repo.Get(ctx, "job-1")
	j3, _ := repo.Get(ctx, "job-3")

	if j1.Status != domain.StatusInterrupted {
		t.Errorf("job-1 status = %q, want %q", j1.Status, domain.StatusInterrupted)
	}
	if j1.Error != "interrupted by restart" {
		t.Errorf("job-1 error = %q, want %q", j1.Error, "interrupted by restart")
	}
	if j3.Status != domain.StatusCompleted {
		t.Errorf("job-3 status = %q, want %q", j3.Status, domain.StatusCompleted)
	}
}
