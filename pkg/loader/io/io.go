package io

import (
	"context"
	"os"
	"sync"

	"github.com/OFFIS-RIT/ned/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// IODocumentLoader loads files directly from the local filesystem with
// caching.
type IODocumentLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIODocumentLoader creates a new filesystem-based loader.
func NewIODocumentLoader() *IODocumentLoader {
	return &IODocumentLoader{
		cache: make(map[string][]byte),
	}
}

func (l *IODocumentLoader) cached(key string) ([]byte, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	b, ok := l.cache[key]
	return b, ok
}

// GetFileBytes reads the file from disk. Results are cached per file.
func (l *IODocumentLoader) GetFileBytes(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	key := loader.CacheKey(file)
	if b, ok := l.cached(key); ok {
		return b, nil
	}

	result, err, _ := l.group.Do(key, func() (any, error) {
		if b, ok := l.cached(key); ok {
			return b, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b, err := os.ReadFile(file.FilePath)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = b
		l.cacheMu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
