package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps a single AuthorizedUser record at a fixed path.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(logger *slog.Logger, path string) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the cache file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the cached record, or nil if there is no usable one.
// A missing, unreadable, malformed or incomplete file is reported as a cache miss, never as an error.
func (s *FileStore) Load() *AuthorizedUser {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("No cached credential found.", "file", s.path)
		} else {
			s.logger.Warn("Cached credential is unreadable, ignoring it.", "file", s.path, "error", err)
		}
		return nil
	}

	var rec AuthorizedUser
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("Cached credential is malformed, ignoring it.", "file", s.path, "error", err)
		return nil
	}
	if !rec.Complete() {
		s.logger.Warn("Cached credential is incomplete, ignoring it.", "file", s.path)
		return nil
	}
	return &rec
}

// Save writes rec to the cache file, replacing any previous content.
func (s *FileStore) Save(rec *AuthorizedUser) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: unable to encode record: %w", ErrCacheWriteFailed, err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("%w: unable to create cache directory: %w", ErrCacheWriteFailed, err)
		}
	}

	// The record is written to a fresh 0600 file and renamed into place, so a
	// pre-existing cache with looser permissions is replaced rather than reused.
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}
	tmpPath := tmp.Name()
	if err := writeAndClose(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrCacheWriteFailed, err)
	}
	s.logger.Debug("Saved credential to cache.", "file", s.path)
	return nil
}

func writeAndClose(f *os.File, data []byte) error {
	if err := f.Chmod(0600); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
