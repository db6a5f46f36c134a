package render

import (
	"os"
	"testing"
	"time"
)

func TestPageCacheRoundTrip(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewPageCache() failed: %v", err)
	}

	const url = "https://www.trademe.co.nz/listing/123"
	if _, ok := cache.Get(url); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	if err := cache.Put(url, "<html>rendered</html>"); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	html, ok := cache.Get(url)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if html != "<html>rendered</html>" {
		t.Errorf("cached html = %q", html)
	}

	if _, ok := cache.Get("https://www.trademe.co.nz/listing/456"); ok {
		t.Error("different URL must not hit the same entry")
	}
}

func TestPageCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewPageCache(dir, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPageCache() failed: %v", err)
	}

	const url = "https://www.trademe.co.nz/listing/123"
	if err := cache.Put(url, "x"); err != nil {
		t.Fatal(err)
	}

	// Age the entry past the TTL instead of sleeping.
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(cache.entryPath(url), old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get(url); ok {
		t.Error("expired entry must miss")
	}
}

func TestPageCacheZeroTTLNeverExpires(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewPageCache() failed: %v", err)
	}
	const url = "https://example.com"
	if err := cache.Put(url, "x"); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-24 * time.Hour)
	if err := os.Chtimes(cache.entryPath(url), old, old); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(url); !ok {
		t.Error("zero TTL entry must still hit")
	}
}
