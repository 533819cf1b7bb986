package domain

import (
	"errors"
	"time"
)

// JobStatus represents the lifecycle state of a playlist job.
type JobStatus string

const (
	StatusRunning     JobStatus = "running"
	StatusCompleted   JobStatus = "completed"
	StatusEmpty       JobStatus = "empty"
	StatusFailed      JobStatus = "failed"
	StatusInterrupted JobStatus = "interrupted"
)

// JobRequest is an accepted playlist submission waiting to be run.
type JobRequest struct {
	ID      string
	UserID  int64
	ChatID  int64
	Channel ChannelRef
	URL     string
}

// Entry is one item of a flat playlist listing.
type Entry struct {
	Index int
	Title string
}

// Playlist is the metadata-only view of a playlist. Entries is nil when the
// extractor response carried no entries at all.
type Playlist struct {
	Title   string
	Entries []Entry
}

// Report summarises one finished job.
type Report struct {
	JobID    string
	Total    int
	Uploaded int
	Skipped  []string
	Failed   []error
	// Err is the job-level error that aborted the run, if any.
	Err error
}

// Status derives the terminal job status from the report.
func (r *Report) Status() JobStatus {
	switch {
	case r.Err == nil:
		return StatusCompleted
	case errors.Is(r.Err, ErrNoEntries), errors.Is(r.Err, ErrNoDownloads):
		return StatusEmpty
	default:
		return StatusFailed
	}
}

// JobRecord is the persisted history entry for a job.
type JobRecord struct {
	ID        string
	UserID    int64
	Channel   string
	URL       string
	Status    JobStatus
	Total     int
	Uploaded  int
	Skipped   int
	Failed    int
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Finished returns true once the job reached a terminal state.
func (j *JobRecord) Finished() bool {
	return j.Status != StatusRunning
}
