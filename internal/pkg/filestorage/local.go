package filestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yigit/schoolmanager/internal/pkg/logger"
)

// ErrNotExist is returned by ReadFile when the named file is absent
var ErrNotExist = fs.ErrNotExist

// LocalStorage reads and atomically replaces files under a base directory.
type LocalStorage struct {
	basePath string // The root directory where files are stored
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// GetFullPath returns the filesystem path for a file name.
// Names must be plain file names; anything containing a separator is rejected.
func (ls *LocalStorage) GetFullPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(ls.basePath, name), nil
}

// ReadFile returns the content of name. Missing files yield an error matching ErrNotExist.
func (ls *LocalStorage) ReadFile(name string) ([]byte, error) {
	path, err := ls.GetFullPath(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteFileAtomic replaces name with data: the bytes go to a temp file in the
// same directory which is synced and then renamed over the target, so readers
// see either the old or the new content.
func (ls *LocalStorage) WriteFileAtomic(name string, data []byte) (err error) {
	dstPath, err := ls.GetFullPath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(ls.basePath, "."+name+".*.tmp")
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create temp file")
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = os.Rename(tmpPath, dstPath); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to replace file")
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// DeleteFile removes name. Deleting a missing file is not an error.
func (ls *LocalStorage) DeleteFile(name string) error {
	path, err := ls.GetFullPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error().Err(err).Str("path", path).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
