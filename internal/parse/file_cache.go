package parse

import (
	"crypto/sha256"
	"sync"

	"github.com/inoxlang/phpcheck/internal/ast"
)

// FileCache caches parsed files by the hash of their content, it is used by the watch mode
// to avoid reparsing files that did not change.
type FileCache struct {
	entries map[[32]byte]*ast.File
	lock    sync.Mutex
}

func NewFileCache() *FileCache {
	return &FileCache{
		entries: make(map[[32]byte]*ast.File, 0),
	}
}

func (c *FileCache) InvalidateAllEntries() {
	c.lock.Lock()
	defer c.lock.Unlock()
	clear(c.entries)
}

func (c *FileCache) Get(src []byte) (*ast.File, bool) {
	hash := sha256.Sum256(src)
	c.lock.Lock()
	defer c.lock.Unlock()
	file, ok := c.entries[hash]
	return file, ok
}

func (c *FileCache) Put(src []byte, file *ast.File) {
	hash := sha256.Sum256(src)
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries[hash] = file
}

func (c *FileCache) DeleteEntryByValue(file *ast.File) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for key, cached := range c.entries {
		if cached == file {
			delete(c.entries, key)
		}
	}
}

// ParseCached returns the cached file for src if present, otherwise it parses src and caches the result.
// The path of a cached file is the path it was first parsed with.
func (c *FileCache) ParseCached(path string, src []byte) (*ast.File, error) {
	if file, ok := c.Get(src); ok && file.Path == path {
		return file, nil
	}
	file, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	c.Put(src, file)
	return file, nil
}
