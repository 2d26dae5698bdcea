package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/oxhq/rspecfx/cop"
)

// resultCacheSchema is bumped whenever cachedResult changes shape.
const resultCacheSchema uint16 = 1

// ResultCache stores the offenses of files inspected in check mode, keyed
// by file content, configuration and cop set. Safe for concurrent use.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

type cachedResult struct {
	Schema   uint16
	Offenses []cop.Offense
}

// OpenResultCache opens or creates a cache rooted at dir.
func OpenResultCache(dir string) (*ResultCache, error) {
	dir = filepath.Join(dir, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

// ResultKey derives the cache key of a file.
func ResultKey(path string, src []byte, configDigest string, cops []string) string {
	h := sha256.New()
	h.Write([]byte(filepath.ToSlash(path)))
	h.Write([]byte{0})
	h.Write(src)
	h.Write([]byte{0})
	h.Write([]byte(configDigest))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(cops, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) pathFor(key string) string {
	return filepath.Join(c.dir, key[:2], key+".mp")
}

// Get returns the cached offenses for key. A missing, unreadable or
// outdated entry is a miss.
func (c *ResultCache) Get(key string) ([]cop.Offense, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var res cachedResult
	if err := msgpack.Unmarshal(data, &res); err != nil || res.Schema != resultCacheSchema {
		return nil, false
	}
	return res.Offenses, true
}

// Put stores offenses under key through a temp file and rename.
func (c *ResultCache) Put(key string, offenses []cop.Offense) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(&cachedResult{Schema: resultCacheSchema, Offenses: offenses})
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), p); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}

// Clear drops every entry.
func (c *ResultCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
