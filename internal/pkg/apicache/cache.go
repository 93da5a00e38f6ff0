package apicache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Cache is a file-backed memoization store for external API responses.
// One file per key, named by the key hash; the file mtime is the
// freshness timestamp. Entries are advisory: deleting the directory at
// any time only costs extra upstream fetches.
type Cache struct {
	dir string
}

// New creates the cache directory if needed and returns a Cache rooted there.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key builds a deterministic cache key from an API method name and its
// parameters. Params are serialized in sorted key order so equivalent
// maps hash identically regardless of iteration order.
func Key(method string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(':')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Load returns the stored payload for key if its age is strictly less
// than ttl. Missing, expired, or corrupt entries all report a miss;
// cache problems are never surfaced as errors.
func (c *Cache) Load(key string, ttl time.Duration) (json.RawMessage, bool) {
	path := c.filePath(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if !json.Valid(data) {
		return nil, false
	}
	return json.RawMessage(data), true
}

// Save persists the payload for key, overwriting any prior entry.
func (c *Cache) Save(key string, data json.RawMessage) error {
	if err := os.WriteFile(c.filePath(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
