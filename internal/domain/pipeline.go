package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// DefaultMaxFileSize is the largest file the destination accepts (2 GiB).
const DefaultMaxFileSize int64 = 2 << 30

// PipelineConfig wires the collaborators of a Pipeline.
type PipelineConfig struct {
	Extractors  ExtractorRegistry
	Transfer    Transfer
	Notifier    Notifier
	Jobs        JobRepository
	Workspace   Workspace
	MaxFileSize int64
	Logger      *log.Logger
}

// Pipeline drives one playlist job: list, download, upload, clean up.
type Pipeline struct {
	extractors  ExtractorRegistry
	transfer    Transfer
	notifier    Notifier
	jobs        JobRepository
	workspace   Workspace
	maxFileSize int64
	logger      *log.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Pipeline{
		extractors:  cfg.Extractors,
		transfer:    cfg.Transfer,
		notifier:    cfg.Notifier,
		jobs:        cfg.Jobs,
		workspace:   cfg.Workspace,
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger,
	}
}

// Run executes the job and reports progress to the requesting chat. Item
// failures are collected in the report; a job-level failure ends up in
// Report.Err. The scratch directory is gone when Run returns.
func (p *Pipeline) Run(ctx context.Context, req JobRequest) *Report {
	rep := &Report{JobID: req.ID}
	logger := p.logger.With("job", req.ID, "user", req.UserID)

	ext := p.extractors.Match(req.URL)
	if ext == nil {
		rep.Err = ErrInvalidURL
		p.say(ctx, req.ChatID, msgInvalidURL)
		return rep
	}

	now := time.Now()
	rec := &JobRecord{
		ID:        req.ID,
		UserID:    req.UserID,
		Channel:   req.Channel.String(),
		URL:       req.URL,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.jobs.Create(ctx, rec); err != nil {
		logger.Warn("record job", "err", err)
	}

	logger.Info("job started", "extractor", ext.Name(), "url", req.URL, "channel", req.Channel)
	rep.Err = p.run(ctx, req, ext, rep, logger)

	switch {
	case rep.Err == nil:
		p.say(ctx, req.ChatID, fmt.Sprintf(msgCompleted, rep.Uploaded, summarySuffix(rep)))
		logger.Info("job completed", "uploaded", rep.Uploaded, "skipped", len(rep.Skipped), "failed", len(rep.Failed))
	case errors.Is(rep.Err, ErrNoEntries):
		p.say(ctx, req.ChatID, msgNoEntries)
		logger.Info("job ended", "reason", rep.Err)
	case errors.Is(rep.Err, ErrNoDownloads):
		p.say(ctx, req.ChatID, msgNoDownloads)
		logger.Info("job ended", "reason", rep.Err)
	default:
		p.say(ctx, req.ChatID, fmt.Sprintf(msgFatal, Truncate(rep.Err.Error(), fatalErrLen)))
		logger.Error("job failed", "err", rep.Err)
	}

	if err := p.jobs.Finish(context.WithoutCancel(ctx), req.ID, rep); err != nil {
		logger.Warn("record job result", "err", err)
	}
	return rep
}

func (p *Pipeline) run(ctx context.Context, req JobRequest, ext Extractor, rep *Report, logger *log.Logger) error {
	p.say(ctx, req.ChatID, msgFetching)

	pl, err := ext.ListFlat(ctx, req.URL)
	if err != nil {
		return &ExtractionError{Op: "list playlist", Err: err}
	}
	if pl.Entries == nil {
		return ErrNoEntries
	}
	rep.Total = len(pl.Entries)
	title := pl.Title
	if title == "" {
		title = unknownPlaylist
	}
	p.say(ctx, req.ChatID, fmt.Sprintf(msgFound, title, rep.Total))

	dir, err := p.workspace.Acquire(req.UserID)
	if err != nil {
		return fmt.Errorf("prepare work dir: %w", err)
	}
	defer func() {
		if err := dir.Release(); err != nil {
			logger.Warn("remove work dir", "dir", dir.Path(), "err", err)
		}
	}()

	if err := ext.Download(ctx, req.URL, dir.Path()); err != nil {
		return &ExtractionError{Op: "download playlist", Err: err}
	}

	files, err := dir.Files(ext.Ext())
	if err != nil {
		return fmt.Errorf("list downloads: %w", err)
	}
	if len(files) == 0 {
		return ErrNoDownloads
	}
	logger.Info("downloaded", "files", len(files), "entries", rep.Total)

	for i, path := range files {
		p.upload(ctx, req, i+1, len(files), path, rep, logger)
	}
	return nil
}

// upload transfers one file. Failures are reported and recorded, never
// returned.
func (p *Pipeline) upload(ctx context.Context, req JobRequest, idx, total int, path string, rep *Report, logger *log.Logger) {
	name := filepath.Base(path)
	logger = logger.With("file", name)

	info, err := os.Stat(path)
	if err != nil {
		p.itemFailed(ctx, req, rep, logger, &TransferError{File: name, Err: err})
		return
	}
	if info.Size() > p.maxFileSize {
		size := humanize.IBytes(uint64(info.Size()))
		logger.Warn("skipping oversized file", "size", size)
		rep.Skipped = append(rep.Skipped, name)
		p.say(ctx, req.ChatID, fmt.Sprintf(msgSkipping, name, size))
		return
	}

	p.say(ctx, req.ChatID, fmt.Sprintf(msgUploading, idx, total, Truncate(name, fileNameLen)))

	caption := Truncate(fmt.Sprintf("#%d - %s", idx, strings.TrimSuffix(name, filepath.Ext(name))), captionLen)
	if err := p.transfer.SendVideo(ctx, req.Channel, path, caption); err != nil {
		p.itemFailed(ctx, req, rep, logger, &TransferError{File: name, Err: err})
		return
	}
	rep.Uploaded++
	logger.Info("uploaded", "index", idx, "total", total)

	if err := os.Remove(path); err != nil {
		logger.Warn("delete uploaded file", "err", err)
		p.say(ctx, req.ChatID, fmt.Sprintf(msgKeptCopy, name, Truncate(err.Error(), itemErrLen)))
	}
}

func (p *Pipeline) itemFailed(ctx context.Context, req JobRequest, rep *Report, logger *log.Logger, err *TransferError) {
	logger.Error("upload failed", "err", err.Err)
	rep.Failed = append(rep.Failed, err)
	p.say(ctx, req.ChatID, fmt.Sprintf(msgUploadFailed, err.File, Truncate(err.Err.Error(), itemErrLen)))
}

// say sends a status message. Delivery failures are logged only.
func (p *Pipeline) say(ctx context.Context, chatID int64, text string) {
	if err := p.notifier.Notify(ctx, chatID, text); err != nil {
		p.logger.Warn("send status", "chat", chatID, "err", err)
	}
}

func summarySuffix(rep *Report) string {
	var parts []string
	if n := len(rep.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	if n := len(rep.Failed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
