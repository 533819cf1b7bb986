package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidChannel = errors.New("invalid channel reference")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrNoSession      = errors.New("no session")
	ErrChannelNotSet  = errors.New("channel not set")
	ErrJobRunning     = errors.New("job already running")
	ErrJobNotFound    = errors.New("job not found")

	ErrNoEntries   = errors.New("no videos found in playlist")
	ErrNoDownloads = errors.New("no videos were downloaded")
)

// ExtractionError wraps a listing or download failure of the extractor.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TransferError wraps a failed upload of a single file.
type TransferError struct {
	File string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.File, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
