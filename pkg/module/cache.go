package module

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

type cacheEntry struct {
	mod  Module
	refs int
}

// Cache shares opened modules between instances. Referenced modules stay
// open; a module whose last reference is released moves to an LRU of idle
// modules and is closed when evicted.
type Cache struct {
	loader Loader
	log    *logrus.Logger

	mu       sync.Mutex
	open     map[string]*cacheEntry
	idle     *lru.Cache[string, Module]
	reviving string
}

// NewCache creates a cache keeping up to idleSize unreferenced modules
// open. With idleSize 0 modules close as soon as they are released.
func NewCache(loader Loader, idleSize int, log *logrus.Logger) (*Cache, error) {
	if log == nil {
		log = logrus.New()
	}
	c := &Cache{
		loader: loader,
		log:    log,
		open:   make(map[string]*cacheEntry),
	}
	if idleSize > 0 {
		idle, err := lru.NewWithEvict[string, Module](idleSize, c.evicted)
		if err != nil {
			return nil, fmt.Errorf("create module cache: %w", err)
		}
		c.idle = idle
	}
	return c, nil
}

// evicted runs with c.mu held, from inside an lru call.
func (c *Cache) evicted(key string, m Module) {
	if key == c.reviving {
		return
	}
	c.closeModule(key, m)
}

func (c *Cache) closeModule(key string, m Module) {
	if err := m.Close(); err != nil {
		c.log.WithError(err).WithField("path", key).Warn("Failed to close module")
		return
	}
	c.log.WithField("path", key).Debug("Closed module")
}

// Acquire returns the module for path, opening it if needed, and takes a
// reference that must be dropped with Release.
func (c *Cache) Acquire(ctx context.Context, path string) (Module, error) {
	key := Key(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.open[key]; ok {
		e.refs++
		return e.mod, nil
	}
	if c.idle != nil {
		if m, ok := c.idle.Peek(key); ok {
			c.reviving = key
			c.idle.Remove(key)
			c.reviving = ""
			c.open[key] = &cacheEntry{mod: m, refs: 1}
			return m, nil
		}
	}

	file, _ := SplitClass(path)
	m, err := c.loader.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	c.open[key] = &cacheEntry{mod: m, refs: 1}
	c.log.WithField("path", key).Debug("Opened module")
	return m, nil
}

// Release drops one reference to path.
func (c *Cache) Release(path string) {
	key := Key(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.open[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(c.open, key)
	if c.idle == nil {
		c.closeModule(key, e.mod)
		return
	}
	c.idle.Add(key, e.mod)
}

// Purge closes every idle module.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idle != nil {
		c.idle.Purge()
	}
}

// Stats returns the number of referenced and idle modules.
func (c *Cache) Stats() (open, idle int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	open = len(c.open)
	if c.idle != nil {
		idle = c.idle.Len()
	}
	return open, idle
}
