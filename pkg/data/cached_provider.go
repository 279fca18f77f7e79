package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// MemoryCache is a DataCache that stores and hands out private copies
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]types.OHLCV
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]types.OHLCV)}
}

func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mu.RLock()
	bars, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneBars(bars), true
}

func (c *MemoryCache) Set(key string, bars []types.OHLCV) {
	c.mu.Lock()
	c.entries[key] = cloneBars(bars)
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneBars(bars []types.OHLCV) []types.OHLCV {
	return append(make([]types.OHLCV, 0, len(bars)), bars...)
}

// CachedProvider memoizes a provider per file version. A file whose size or
// modification time changed since the last load is read again, and the
// stale series is evicted.
type CachedProvider struct {
	provider DataProvider
	cache    DataCache
	logger   *logger.Logger

	mu       sync.Mutex
	versions map[string]string
	hits     int
	misses   int
}

func NewCachedProvider(provider DataProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(),
		logger:   logger.Nop(),
		versions: make(map[string]string),
	}
}

func (p *CachedProvider) SetLogger(l *logger.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *CachedProvider) GetName() string {
	return p.provider.GetName() + " (cached)"
}

// LoadData returns the cached series for the file's current version, loading
// it on a miss. Unreadable paths go straight to the wrapped provider so its
// error is reported.
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	key, err := versionKey(source)
	if err != nil {
		return p.provider.LoadData(source)
	}

	if bars, ok := p.cache.Get(key); ok {
		p.mu.Lock()
		p.hits++
		p.mu.Unlock()
		return bars, nil
	}

	bars, err := p.provider.LoadData(source)
	if err != nil {
		p.logger.Error("Failed to load %s: %v", filepath.Base(source), err)
		return nil, err
	}

	p.mu.Lock()
	if old, ok := p.versions[source]; ok && old != key {
		p.cache.Delete(old)
	}
	p.versions[source] = key
	p.misses++
	p.mu.Unlock()

	p.cache.Set(key, bars)
	p.logger.Debug("Cached %d bars from %s", len(bars), filepath.Base(source))
	return bars, nil
}

// Invalidate forgets any cached version of path
func (p *CachedProvider) Invalidate(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key, ok := p.versions[path]; ok {
		p.cache.Delete(key)
		delete(p.versions, path)
	}
}

func (p *CachedProvider) ValidateData(data []types.OHLCV) error {
	return p.provider.ValidateData(data)
}

// Stats reports cache hits and misses
func (p *CachedProvider) Stats() (hits, misses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

// versionKey identifies one version of a file by path, size and mtime
func versionKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d", filepath.Clean(path), info.Size(), info.ModTime().UnixNano()), nil
}
