package staging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirName(t *testing.T) {
	if got := DirName("4567890123"); got != "tm-4567890123" {
		t.Errorf("DirName() = %q, want tm-4567890123", got)
	}
}

func TestValidateDirName(t *testing.T) {
	valid := []string{"tm-1", "tm-4567890123"}
	for _, name := range valid {
		if err := ValidateDirName(name); err != nil {
			t.Errorf("ValidateDirName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "tm-", "tm-12x", "tm-12 ", "listing-12", "../tm-12", "tm-12/../etc", "tm-12; rm -rf /"}
	for _, name := range invalid {
		if err := ValidateDirName(name); err == nil {
			t.Errorf("ValidateDirName(%q) = nil, want error", name)
		}
	}
}

func TestListingDirRejectsInvalidName(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	if _, err := m.ListingDir("../escape"); err == nil {
		t.Error("expected error for traversal name")
	}
}

func TestCleanupListing(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	dir, err := m.ListingDir("tm-123")
	if err != nil {
		t.Fatalf("ListingDir() failed: %v", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "photo_1.jpg"), []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := m.CleanupListing("tm-123"); err != nil {
		t.Fatalf("CleanupListing() failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("staging dir still exists after cleanup")
	}

	// Removing it again is not an error.
	if err := m.CleanupListing("tm-123"); err != nil {
		t.Errorf("second CleanupListing() = %v, want nil", err)
	}
}

func TestCleanupAllOnlyTouchesStagingDirs(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	for _, name := range []string{"tm-1", "tm-2", "keepme"} {
		if err := os.MkdirAll(filepath.Join(base, name), 0750); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(base, "tm-notes.txt"), []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := m.CleanupAll(); err != nil {
		t.Fatalf("CleanupAll() failed: %v", err)
	}

	for _, gone := range []string{"tm-1", "tm-2"} {
		if _, err := os.Stat(filepath.Join(base, gone)); !os.IsNotExist(err) {
			t.Errorf("%s survived CleanupAll", gone)
		}
	}
	for _, kept := range []string{"keepme", "tm-notes.txt"} {
		if _, err := os.Stat(filepath.Join(base, kept)); err != nil {
			t.Errorf("%s was removed by CleanupAll", kept)
		}
	}
}

func TestCleanupAllMissingBase(t *testing.T) {
	m := &Manager{baseDir: filepath.Join(t.TempDir(), "never-created")}
	if err := m.CleanupAll(); err != nil {
		t.Errorf("CleanupAll() on missing base = %v, want nil", err)
	}
}
