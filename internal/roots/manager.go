package roots

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager holds the session's permitted root directories. The set is seeded
// from configuration at startup and replaced wholesale when the caller's
// declared scope changes. An empty set admits nothing.
//
// The core engine never consults this; path admission happens at the service
// boundary before any file is touched.
type Manager struct {
	mu    sync.RWMutex
	roots []string
}

// NewManager creates a Manager with the given initial roots.
func NewManager(initial []string) (*Manager, error) {
	m := &Manager{}
	if err := m.SetRoots(initial); err != nil {
		return nil, err
	}
	return m, nil
}

// SetRoots replaces the permitted root set. Entries may be absolute paths or
// file:// URIs; anything else is rejected.
func (m *Manager) SetRoots(roots []string) error {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		path := r
		if strings.HasPrefix(r, "file://") {
			u, err := url.Parse(r)
			if err != nil {
				return fmt.Errorf("invalid root URI %q: %w", r, err)
			}
			path = u.Path
		}
		if !filepath.IsAbs(path) {
			return fmt.Errorf("root must be an absolute path: %s", r)
		}
		cleaned = append(cleaned, filepath.Clean(path))
	}

	m.mu.Lock()
	m.roots = cleaned
	m.mu.Unlock()
	return nil
}

// Roots returns a copy of the current root set.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.roots))
	copy(out, m.roots)
	return out
}

// IsAllowed reports whether path falls under one of the permitted roots.
//
// The path must be absolute. Symlinks and ".." components are resolved before
// the prefix check so a link pointing outside a root cannot smuggle access in;
// when the target does not exist yet (a file about to be created), the nearest
// existing ancestor is resolved instead and the remainder rejoined.
func (m *Manager) IsAllowed(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		return false, fmt.Errorf("path must be absolute: %s", path)
	}

	resolved, err := canonicalize(path)
	if err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, root := range m.roots {
		resolvedRoot, err := canonicalize(root)
		if err != nil {
			resolvedRoot = root
		}
		if isUnder(resolved, resolvedRoot) {
			return true, nil
		}
	}
	return false, nil
}

// canonicalize resolves symlinks and dot components. For a nonexistent path
// it resolves the deepest existing ancestor and rejoins the missing suffix.
func canonicalize(path string) (string, error) {
	cleaned := filepath.Clean(path)

	resolved, err := filepath.EvalSymlinks(cleaned)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	var rest []string
	dir := cleaned
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Walked all the way to the filesystem root.
			return cleaned, nil
		}
		rest = append([]string{filepath.Base(dir)}, rest...)
		dir = parent

		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to resolve ancestor %s of %s: %w", dir, path, err)
		}
	}
}

func isUnder(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
