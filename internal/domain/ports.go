package domain

import "context"

// SessionStore is the driven port for per-user session state. Implementations
// must serialise access per user key.
type SessionStore interface {
	Get(userID int64) (Session, bool)
	Set(userID int64, s Session)
	Delete(userID int64)
	// Update runs fn against the user's session under the key lock. exists is
	// false when no session was stored; the session is stored only if fn
	// returns nil.
	Update(userID int64, fn func(s *Session, exists bool) error) error
}

// Extractor is the driven port for the external media extraction tool.
type Extractor interface {
	Name() string
	Match(url string) bool
	// Ext is the container extension of downloaded files, including the dot.
	Ext() string
	ListFlat(ctx context.Context, url string) (*Playlist, error)
	Download(ctx context.Context, url, destDir string) error
}

// ExtractorRegistry selects the extractor responsible for a URL.
type ExtractorRegistry interface {
	Match(url string) Extractor
}

// Transfer is the driven port for uploading media to a destination channel.
type Transfer interface {
	SendVideo(ctx context.Context, channel ChannelRef, path, caption string) error
}

// Notifier sends plain status text to a user's chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// JobRepository is the driven port for job history.
type JobRepository interface {
	Create(ctx context.Context, rec *JobRecord) error
	Finish(ctx context.Context, id string, rep *Report) error
	Get(ctx context.Context, id string) (*JobRecord, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]JobRecord, error)
	RecoverStale(ctx context.Context) (int64, error)
}

// Workspace hands out per-user scratch directories.
type Workspace interface {
	Acquire(userID int64) (WorkDir, error)
}

// WorkDir is an acquired scratch directory. Release removes it with all
// contents and must be called exactly once.
type WorkDir interface {
	Path() string
	// Files lists regular files with the given extension, sorted by name.
	Files(ext string) ([]string, error)
	Release() error
}
