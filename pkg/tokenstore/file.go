package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadFailed is returned when the session file cannot be read or parsed.
var ErrReadFailed = errors.New("tokenstore: failed to read session file")

// ErrWriteFailed is returned when the session file cannot be written.
var ErrWriteFailed = errors.New("tokenstore: failed to write session file")

// File persists the session as a JSON file on disk, the local-storage
// equivalent for CLI and desktop use. The file is written with 0600
// permissions since it holds a bearer token.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store at path. Parent directories are
// created on first Save, not here.
func NewFile(path string) *File {
	return &File{path: path}
}

// Save writes the session to disk, replacing any previous record.
func (f *File) Save(_ context.Context, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrWriteFailed, fmt.Errorf("marshal session: %w", err))
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Join(ErrWriteFailed, fmt.Errorf("create session dir: %w", err))
		}
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return errors.Join(ErrWriteFailed, fmt.Errorf("write session file: %w", err))
	}
	return nil
}

// Load reads the session from disk. A missing file is ErrNotFound; a
// corrupt file is ErrReadFailed.
func (f *File) Load(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrReadFailed, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrReadFailed, fmt.Errorf("parse session file: %w", err))
	}
	if s.AccessToken == "" {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Clear removes the session file. A missing file is not an error.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}
