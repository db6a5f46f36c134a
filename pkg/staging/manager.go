// Package staging manages the local scratch area holding resized
// listing photos between processing and upload. Each listing owns one
// tm-{id} directory; the strict name pattern is what lets cleanup use
// the name in filesystem and remote-shell operations safely.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var dirNamePattern = regexp.MustCompile(`^tm-\d+$`)

// DirName derives the staging directory name for a listing ID.
func DirName(listingID string) string {
	return "tm-" + listingID
}

// ValidateDirName rejects anything that is not a tm-{digits} name.
// This guards every path and remote command the name is spliced into.
func ValidateDirName(name string) error {
	if !dirNamePattern.MatchString(name) {
		return fmt.Errorf("invalid listing dir %q", name)
	}
	return nil
}

// Manager owns one staging base directory.
type Manager struct {
	baseDir string
}

// NewManager ensures the base directory exists and returns a Manager
// rooted there.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging base directory: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the staging root.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// ListingDir returns the absolute path for a validated staging dir
// name.
func (m *Manager) ListingDir(name string) (string, error) {
	if err := ValidateDirName(name); err != nil {
		return "", err
	}
	return filepath.Join(m.baseDir, name), nil
}

// CleanupListing removes one listing's staging directory. A missing
// directory is not an error.
func (m *Manager) CleanupListing(name string) error {
	dir, err := m.ListingDir(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove staging dir %s: %w", dir, err)
	}
	return nil
}

// CleanupAll removes every tm-* directory under the base. Used at web
// server start so stale staging from a previous run never accumulates.
func (m *Manager) CleanupAll() error {
	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read staging base directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "tm-") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.baseDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove staging dir %s: %w", entry.Name(), err)
		}
	}
	return nil
}
