package docfill

import (
	"container/list"
	"os"
	"sync"
	"time"
)

// Stamp identifies one version of a template file. A cached template whose
// stamp no longer matches the file on disk is parsed again.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

// StampOf reads the stamp of a file.
func StampOf(info os.FileInfo) Stamp {
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}
}

// TemplateCache holds parsed template files by path. The least recently
// used path is evicted first and entries older than the TTL are parsed
// again. A zero capacity caches nothing.
type TemplateCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	byKey map[string]*list.Element
	order *list.List // of *cached, most recent in front
}

type cached struct {
	path     string
	stamp    Stamp
	tmpl     *Template
	storedAt time.Time
}

// NewTemplateCache creates a cache for up to capacity templates.
func NewTemplateCache(capacity int, ttl time.Duration) *TemplateCache {
	return &TemplateCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		byKey:    map[string]*list.Element{},
		order:    list.New(),
	}
}

// Load returns the template cached for path at stamp. On a miss it calls
// parse and keeps the result. Parse errors are not cached.
func (c *TemplateCache) Load(path string, stamp Stamp, parse func() (*Template, error)) (*Template, error) {
	if tmpl, ok := c.Lookup(path, stamp); ok {
		return tmpl, nil
	}
	tmpl, err := parse()
	if err != nil {
		return nil, err
	}
	c.Store(path, stamp, tmpl)
	return tmpl, nil
}

// Lookup finds the template cached for path. Entries with another stamp
// or past their TTL are dropped.
func (c *TemplateCache) Lookup(path string, stamp Stamp) (*Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[path]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cached)
	if !entry.stamp.ModTime.Equal(stamp.ModTime) || entry.stamp.Size != stamp.Size || c.stale(entry) {
		c.drop(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.tmpl, true
}

// Store caches tmpl for path, replacing any older version.
func (c *TemplateCache) Store(path string, stamp Stamp, tmpl *Template) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cached{path: path, stamp: stamp, tmpl: tmpl, storedAt: c.now()}
	if el, ok := c.byKey[path]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.capacity {
		c.drop(c.order.Back())
	}
	c.byKey[path] = c.order.PushFront(entry)
}

// Forget drops the template cached for path.
func (c *TemplateCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[path]; ok {
		c.drop(el)
	}
}

// Purge empties the cache.
func (c *TemplateCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byKey)
	c.order.Init()
}

func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Paths lists the cached paths, most recently used first.
func (c *TemplateCache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		paths = append(paths, el.Value.(*cached).path)
	}
	return paths
}

func (c *TemplateCache) stale(entry *cached) bool {
	return c.ttl > 0 && c.now().Sub(entry.storedAt) >= c.ttl
}

// drop needs mu.
func (c *TemplateCache) drop(el *list.Element) {
	delete(c.byKey, el.Value.(*cached).path)
	c.order.Remove(el)
}
