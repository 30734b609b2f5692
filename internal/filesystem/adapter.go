package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// FileStats holds basic statistics about a file.
type FileStats struct {
	Size    int64
	IsDir   bool
	ModTime time.Time
	Mode    os.FileMode
}

// Adapter is the boundary between the engine and the operating system: read
// bytes, write bytes atomically, stat. Everything above it operates on
// in-memory strings, which keeps the service testable against a fake.
type Adapter interface {
	ReadFileBytes(filePath string) ([]byte, error)
	WriteFileBytesAtomic(filePath string, content []byte, perm os.FileMode) error
	FileExists(filePath string) (bool, error)
	GetFileStats(filePath string) (*FileStats, error)
	IsValidUTF8(content []byte) bool
}

// OSAdapter implements Adapter with the os package.
type OSAdapter struct{}

// NewOSAdapter creates a new OSAdapter.
func NewOSAdapter() *OSAdapter {
	return &OSAdapter{}
}

var _ Adapter = (*OSAdapter)(nil)

// ReadFileBytes reads the entire file into memory.
func (fs *OSAdapter) ReadFileBytes(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s: %w", filePath, err)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading file: %s: %w", filePath, err)
		}
		return nil, fmt.Errorf("failed to read file: %s: %w", filePath, err)
	}
	return content, nil
}

// WriteFileBytesAtomic writes content to a temporary file in the target's
// directory, renames it over the target, then applies the final permissions.
// A reader never observes a half-written file.
func (fs *OSAdapter) WriteFileBytesAtomic(filePath string, content []byte, finalPerm os.FileMode) error {
	dir := filepath.Dir(filePath)

	tempFile, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	// Harmless after a successful rename; cleans up on every error path.
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temporary file %s: %w", tempFile.Name(), err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tempFile.Name(), err)
	}

	if err := os.Rename(tempFile.Name(), filePath); err != nil {
		return fmt.Errorf("failed to rename temporary file %s to %s: %w", tempFile.Name(), filePath, err)
	}

	// Rename keeps the temp file's 0600; restore the intended mode.
	if err := os.Chmod(filePath, finalPerm); err != nil {
		return fmt.Errorf("file written to %s, but failed to set permissions to %o: %w", filePath, finalPerm, err)
	}
	return nil
}

// FileExists checks whether a file exists.
func (fs *OSAdapter) FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("error checking if file exists %s: %w", filePath, err)
}

// GetFileStats retrieves size, mode and type information for a path.
func (fs *OSAdapter) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found for stats: %s: %w", filePath, err)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied getting stats for file: %s: %w", filePath, err)
		}
		return nil, fmt.Errorf("failed to get file stats for %s: %w", filePath, err)
	}
	return &FileStats{
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Mode:    info.Mode().Perm(),
	}, nil
}

// IsValidUTF8 checks whether the content is valid UTF-8 text.
func (fs *OSAdapter) IsValidUTF8(content []byte) bool {
	return utf8.Valid(content)
}
