package cache

// cache/cache.go

import (
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Entry is a snapshot of one cached key. Order is the recency stamp: larger
// means more recently used.
type Entry struct {
	Key   string
	Value string
	Order uint64
}

// node is an intrusive link in the recency list. head is the least recently
// used entry, tail the most recently used.
type node struct {
	entry Entry
	prev  *node
	next  *node
}

type Cache struct {
	mu       sync.Mutex
	index    map[string]*node
	head     *node
	tail     *node
	capacity int
	clock    uint64
	logger   *zap.SugaredLogger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New returns an empty cache holding at most capacity entries. A capacity
// below 1 is treated as 1. A nil logger discards output.
func New(capacity int, logger *zap.SugaredLogger) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Cache{
		index:    make(map[string]*node, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Get returns the value for key and marks it most recently used. A miss
// leaves the recency order untouched.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		c.misses.Inc()
		c.logger.Debugw("Cache miss", "key", key)
		return "", false
	}

	c.unlink(n)
	c.append(n)
	c.hits.Inc()

	c.logger.Debugw("Moved entry to most recent position",
		"key", key,
		"order", n.entry.Order,
	)
	return n.entry.Value, true
}

// Set stores value under key at the most recent position. Updating a key
// that is already present never evicts. Inserting a new key into a full
// cache evicts the least recently used entry, whose key is returned.
func (c *Cache) Set(key, value string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.index[key]; ok {
		// prior position is discarded
		c.unlink(n)
		n.entry.Value = value
		c.append(n)

		c.logger.Debugw("Updated entry",
			"key", key,
			"order", n.entry.Order,
		)
		return "", false
	}

	var evicted string
	var didEvict bool
	if len(c.index) >= c.capacity {
		evicted, didEvict = c.evictOldest()
	}

	n := &node{entry: Entry{Key: key, Value: value}}
	c.index[key] = n
	c.append(n)

	c.logger.Debugw("Inserted entry",
		"key", key,
		"order", n.entry.Order,
	)
	return evicted, didEvict
}

// Peek returns the value for key without changing recency or stats.
func (c *Cache) Peek(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.index[key]; ok {
		return n.entry.Value, true
	}
	return "", false
}

// Delete removes key. It is not counted as an eviction.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.index[key]
	if !ok {
		return false
	}
	c.unlink(n)
	delete(c.index, key)

	c.logger.Debugw("Deleted entry from cache", "key", key)
	return true
}

// Reset drops every entry, zeroes the stats and restarts the order counter.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[string]*node, c.capacity)
	c.head, c.tail = nil, nil
	c.clock = 0
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)

	c.logger.Debugw("Cache reset")
}

// Oldest returns the entry that the next capacity eviction would remove.
func (c *Cache) Oldest() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.head == nil {
		return Entry{}, false
	}
	return c.head.entry, true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.index)
}

func (c *Cache) Capacity() int {
	return c.capacity
}

// Entries returns a copy of the store ordered from least to most recently used.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.index))
	for n := c.head; n != nil; n = n.next {
		out = append(out, n.entry)
	}
	return out
}

// Keys returns the cached keys ordered from least to most recently used.
func (c *Cache) Keys() []string {
	entries := c.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// evictOldest removes the head of the recency list. Caller holds mu.
func (c *Cache) evictOldest() (string, bool) {
	oldest := c.head
	if oldest == nil {
		return "", false
	}
	c.unlink(oldest)
	delete(c.index, oldest.entry.Key)
	c.evictions.Inc()

	c.logger.Debugw("Deleted entry due to capacity",
		"key", oldest.entry.Key,
		"order", oldest.entry.Order,
	)
	return oldest.entry.Key, true
}

// append links n at the tail and stamps it with the next order value.
func (c *Cache) append(n *node) {
	c.clock++
	n.entry.Order = c.clock

	n.prev = c.tail
	n.next = nil
	if c.tail != nil {
		c.tail.next = n
	} else {
		c.head = n
	}
	c.tail = n
}

func (c *Cache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
