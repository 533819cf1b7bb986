package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/cwygoda/playlistbot/internal/domain"
)

// JobRunner executes one accepted playlist job to completion.
type JobRunner interface {
	Run(ctx context.Context, req domain.JobRequest) *domain.Report
}

// Runner runs playlist jobs in background goroutines so the update loop
// keeps answering other users while a job is in progress.
type Runner struct {
	jobs    JobRunner
	release func(userID int64)
	logger  *log.Logger

	wg     sync.WaitGroup
	active atomic.Int64
}

// NewRunner creates a runner. release is called with the user ID after every
// job, however it ended.
func NewRunner(jobs JobRunner, release func(userID int64), logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if release == nil {
		release = func(int64) {}
	}
	return &Runner{
		jobs:    jobs,
		release: release,
		logger:  logger,
	}
}

// Submit starts req in the background and returns immediately. The job is
// cancelled together with ctx.
func (r *Runner) Submit(ctx context.Context, req domain.JobRequest) {
	r.wg.Add(1)
	r.active.Add(1)
	go r.run(ctx, req)
}

func (r *Runner) run(ctx context.Context, req domain.JobRequest) {
	logger := r.logger.With("job", req.ID, "user", req.UserID)
	defer r.wg.Done()
	defer r.active.Add(-1)
	defer r.release(req.UserID)
	defer func() {
		if v := recover(); v != nil {
			logger.Error("job panicked", "panic", fmt.Sprint(v))
		}
	}()

	rep := r.jobs.Run(ctx, req)
	if rep == nil {
		return
	}
	logger.Debug("job finished", "status", rep.Status(), "uploaded", rep.Uploaded, "total", rep.Total)
}

// Active returns the number of jobs currently running.
func (r *Runner) Active() int {
	return int(r.active.Load())
}

// Wait blocks until every submitted job has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
