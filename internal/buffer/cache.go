package buffer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/roach88/synthplane/internal/stream"
)

// FileCache memoizes decoded files. Entries are keyed by absolute path,
// size and modification time, so an edited file is decoded again.
//
// Thread-safety: FileCache is safe for concurrent use.
type FileCache struct {
	c *cache.Cache
}

// NewFileCache creates a cache whose entries expire after ttl.
func NewFileCache(ttl time.Duration) *FileCache {
	return &FileCache{c: cache.New(ttl, ttl*2)}
}

// Load returns the decoded contents of path. hit reports a cache hit.
func (fc *FileCache) Load(path string) (b *Buffer, hit bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, false, &stream.Error{Op: "open", Message: err.Error(), Err: err}
	}
	key := fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())

	if v, ok := fc.c.Get(key); ok {
		return v.(*Buffer), true, nil
	}

	b, err = LoadFile(abs)
	if err != nil {
		return nil, false, err
	}
	fc.c.Set(key, b, cache.DefaultExpiration)
	return b, false, nil
}

// Len returns the number of cached buffers.
func (fc *FileCache) Len() int {
	return fc.c.ItemCount()
}

// Flush drops every entry.
func (fc *FileCache) Flush() {
	fc.c.Flush()
}

// LoadFile decodes a file without caching.
func LoadFile(path string) (*Buffer, error) {
	s, err := stream.FromFile(path)
	if err != nil {
		return nil, err
	}
	defer s.Destroy()
	defer s.Close()
	return DecodeStream(s)
}
