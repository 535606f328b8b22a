package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// PageCache stores rendered blog post pages as files under dir/blog.
type PageCache struct {
	dir    string
	maxAge time.Duration
}

func New(dir string, maxAge time.Duration) *PageCache {
	return &PageCache{dir: filepath.Join(dir, "blog"), maxAge: maxAge}
}

// Path returns the cache file path for a post slug.
func (p *PageCache) Path(slug string) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s_%s.html", slug, generateHash(slug)[:16]))
}

func generateHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func (p *PageCache) Write(slug, html string) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(p.Path(slug), []byte(html), 0644)
}

// Read returns the cached page if present and younger than maxAge.
func (p *PageCache) Read(slug string) (string, bool) {
	path := p.Path(slug)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if time.Since(info.ModTime()) > p.maxAge {
		return "", false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}

// Clear removes the cached pages of the given slugs. Missing files are fine.
func (p *PageCache) Clear(slugs ...string) error {
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		if err := os.Remove(p.Path(slug)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (p *PageCache) ClearAll() error {
	return os.RemoveAll(p.dir)
}

// ClearOld removes cached pages older than maxAge and reports how many.
func (p *PageCache) ClearOld() (int, error) {
	removed := 0
	err := filepath.Walk(p.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		if time.Since(info.ModTime()) > p.maxAge {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
