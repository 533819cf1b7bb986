package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// mockStore implements SessionStore for testing.
type mockStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func newMockStore() *mockStore {
	return &mockStore{sessions: make(map[int64]Session)}
}

func (m *mockStore) Get(userID int64) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *mockStore) Set(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *mockStore) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *mockStore) Update(userID int64, fn func(s *Session, exists bool) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if err := fn(&s, ok); err != nil {
		return err
	}
	m.sessions[userID] = s
	return nil
}

// mockExtractor implements Extractor for testing.
type mockExtractor struct {
	playlist *Playlist
	listErr  error
	// files are created in destDir by Download, name -> size.
	files       map[string]int64
	downloadErr error
	downloaded  bool
}

func (m *mockExtractor) Name() string          { return "mock" }
func (m *mockExtractor) Ext() string           { return ".mp4" }
func (m *mockExtractor) Match(url string) bool { return strings.Contains(url, "youtube.com") }

func (m *mockExtractor) ListFlat(ctx context.Context, url string) (*Playlist, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.playlist, nil
}

func (m *mockExtractor) Download(ctx context.Context, url, destDir string) error {
	m.downloaded = true
	for name, size := range m.files {
		f, err := os.Create(filepath.Join(destDir, name))
		if err != nil {
			return err
		}
		if err := f.Truncate(size); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}
	return m.downloadErr
}

// mockRegistry implements ExtractorRegistry for testing.
type mockRegistry struct {
	ext Extractor
}

func (m *mockRegistry) Match(url string) Extractor {
	if m.ext != nil && m.ext.Match(url) {
		return m.ext
	}
	return nil
}

// mockTransfer implements Transfer for testing.
type mockTransfer struct {
	mu       sync.Mutex
	sent     []string
	captions []string
	// failOn maps a file name to the error returned for it.
	failOn map[string]error
	// onSend is called before every upload attempt.
	onSend func(path string)
}

func (m *mockTransfer) SendVideo(ctx context.Context, channel ChannelRef, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onSend != nil {
		m.onSend(path)
	}
	if err := m.failOn[filepath.Base(path)]; err != nil {
		return err
	}
	m.sent = append(m.sent, filepath.Base(path))
	m.captions = append(m.captions, caption)
	return nil
}

// mockNotifier implements Notifier for testing.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *mockNotifier) contains(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if strings.Contains(msg, substr) {
			n++
		}
	}
	return n
}

// mockJobs implements JobRepository for testing.
type mockJobs struct {
	mu      sync.Mutex
	records map[string]*JobRecord
}

func newMockJobs() *mockJobs {
	return &mockJobs{records: make(map[string]*JobRecord)}
}

func (m *mockJobs) Create(ctx context.Context, rec *JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockJobs) Finish(ctx context.Context, id string, rep *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrJobNotFound
	}
	rec.Status = rep.Status()
	rec.Uploaded = rep.Uploaded
	rec.Total = rep.Total
	return nil
}

func (m *mockJobs) Get(ctx context.Context, id string) (*JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockJobs) ListByUser(ctx context.Context, userID int64, limit int) ([]JobRecord, error) {
	return nil, nil
}

func (m *mockJobs) RecoverStale(ctx context.Context) (int64, error) { return 0, nil }

// mockWorkspace implements Workspace on top of a real temp directory.
type mockWorkspace struct {
	root     string
	acquired []string
}

func (m *mockWorkspace) Acquire(userID int64) (WorkDir, error) {
	path := filepath.Join(m.root, fmt.Sprintf("downloads_%d", userID))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	m.acquired = append(m.acquired, path)
	return &mockDir{path: path}, nil
}

type mockDir struct {
	path string
}

func (d *mockDir) Path() string { return d.path }

func (d *mockDir) Files(ext string) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			files = append(files, filepath.Join(d.path, e.Name()))
		}
	}
	return files, nil
}

func (d *mockDir) Release() error { return os.RemoveAll(d.path) }
