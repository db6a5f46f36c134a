package render

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageCache stores rendered page markup on disk keyed by URL, so a
// scrape followed shortly by a full pipeline run does not pay for two
// headless-browser renders of the same listing.
type PageCache struct {
	dir string
	ttl time.Duration
}

// NewPageCache creates the cache directory if needed. A zero or
// negative ttl means entries never expire.
func NewPageCache(dir string, ttl time.Duration) (*PageCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create render cache directory: %w", err)
	}
	return &PageCache{dir: dir, ttl: ttl}, nil
}

func (c *PageCache) entryPath(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return filepath.Join(c.dir, fmt.Sprintf("%x.html", sum))
}

// Get returns the cached markup for a URL, or false on a miss. Expired
// entries count as misses.
func (c *PageCache) Get(pageURL string) (string, bool) {
	path := c.entryPath(pageURL)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put stores rendered markup for a URL.
func (c *PageCache) Put(pageURL, html string) error {
	if err := os.WriteFile(c.entryPath(pageURL), []byte(html), 0640); err != nil {
		return fmt.Errorf("failed to write render cache entry: %w", err)
	}
	return nil
}
