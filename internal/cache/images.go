// Package cache holds completed renders so identical requests are served
// without rendering again.
//
// Renders are deterministic, so an encoded image keyed by its canonical
// request stays valid forever; the only policy needed is a memory bound.
// Entries are spread over shards by FNV-1a hash of the key, and each shard
// evicts least recently used entries once its share of the byte budget is
// exhausted.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// ShardCount is the number of independently locked shards.
	// Must be a power of 2.
	ShardCount = 16

	shardMask = ShardCount - 1

	// DefaultMaxBytes is the total byte budget used when New gets zero.
	DefaultMaxBytes = 64 << 20
)

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Bytes     int64
	MaxBytes  int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits / (Hits + Misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Images is a sharded LRU of encoded images with a byte budget.
//
// Thread safety: Images is safe for concurrent use. Stored slices are shared
// with callers and must not be modified.
type Images struct {
	shards      [ShardCount]*shard
	shardBudget int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front = most recently used
	bytes   int64
}

type entry struct {
	key  string
	data []byte
}

// New creates a cache holding at most maxBytes of image data in total.
// If maxBytes is 0 or negative, DefaultMaxBytes is used.
func New(maxBytes int64) *Images {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	c := &Images{shardBudget: max(maxBytes/ShardCount, 1)}
	for i := range c.shards {
		c.shards[i] = &shard{
			entries: make(map[string]*list.Element),
			lru:     list.New(),
		}
	}
	return c
}

func (c *Images) shardFor(key string) *shard {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key)) // fnv.Write never returns an error
	return c.shards[h.Sum64()&shardMask]
}

// Get returns the image stored under key and marks it recently used.
func (c *Images) Get(key string) ([]byte, bool) {
	s := c.shardFor(key)

	s.mu.Lock()
	el, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	s.lru.MoveToFront(el)
	data := el.Value.(*entry).data
	s.mu.Unlock()

	c.hits.Add(1)
	return data, true
}

// Set stores data under key, evicting least recently used entries of the
// same shard until it fits. Images larger than a shard's budget are not
// stored and Set reports false.
func (c *Images) Set(key string, data []byte) bool {
	size := int64(len(data))
	if size > c.shardBudget {
		return false
	}
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		s.bytes += size - int64(len(e.data))
		e.data = data
		s.lru.MoveToFront(el)
	} else {
		s.entries[key] = s.lru.PushFront(&entry{key: key, data: data})
		s.bytes += size
	}

	for s.bytes > c.shardBudget {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		e := s.lru.Remove(oldest).(*entry)
		delete(s.entries, e.key)
		s.bytes -= int64(len(e.data))
		c.evictions.Add(1)
	}
	return true
}

// Len returns the number of stored images.
func (c *Images) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Bytes returns the total size of stored images.
func (c *Images) Bytes() int64 {
	var n int64
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.bytes
		s.mu.Unlock()
	}
	return n
}

// Clear removes every entry. Counters are kept.
func (c *Images) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[string]*list.Element)
		s.lru.Init()
		s.bytes = 0
		s.mu.Unlock()
	}
}

// Stats returns current counters.
func (c *Images) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Bytes:     c.Bytes(),
		MaxBytes:  c.shardBudget * ShardCount,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
