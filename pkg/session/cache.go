package session

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Cache remembers lookup results by preedit. Dictionaries are read-only,
// so an entry stays valid until the session opens another dictionary.
// Typing and deleting walk the same prefixes, which is what makes this pay.
// A nil *Cache is a valid, always-missing cache.
type Cache struct {
	trie       *patricia.Trie
	accessTime map[string]int64
	clock      int64
	maxEntries int
	hits       int
	misses     int
}

// NewCache returns a cache holding at most maxEntries results, or nil when
// maxEntries is not positive.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		return nil
	}
	return &Cache{
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached candidates for preedit.
func (c *Cache) Get(preedit string) ([]string, bool) {
	if c == nil || preedit == "" {
		return nil, false
	}
	item := c.trie.Get(patricia.Prefix(preedit))
	if item == nil {
		c.misses++
		return nil, false
	}
	c.hits++
	c.accessTime[preedit] = c.tick()
	return item.([]string), true
}

// Put stores the candidates for preedit, evicting the least recently used
// entry when full.
func (c *Cache) Put(preedit string, candidates []string) {
	if c == nil || preedit == "" {
		return
	}
	if candidates == nil {
		candidates = []string{}
	}
	if _, exists := c.accessTime[preedit]; !exists && len(c.accessTime) >= c.maxEntries {
		c.evictLRU()
	}
	c.trie.Set(patricia.Prefix(preedit), candidates)
	c.accessTime[preedit] = c.tick()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.trie = patricia.NewTrie()
	c.accessTime = make(map[string]int64, c.maxEntries)
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.accessTime)
}

// Stats reports cache size and hit counters.
func (c *Cache) Stats() map[string]int {
	if c == nil {
		return map[string]int{"cacheEntries": 0, "maxCacheEntries": 0}
	}
	return map[string]int{
		"cacheEntries":    len(c.accessTime),
		"maxCacheEntries": c.maxEntries,
		"cacheHits":       c.hits,
		"cacheMisses":     c.misses,
	}
}

func (c *Cache) tick() int64 {
	c.clock++
	return c.clock
}

func (c *Cache) evictLRU() {
	var oldest string
	var oldestTime int64 = math.MaxInt64
	for preedit, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldest = preedit
		}
	}
	if oldest != "" {
		c.trie.Delete(patricia.Prefix(oldest))
		delete(c.accessTime, oldest)
		log.Debugf("Evicted %q from lookup cache", oldest)
	}
}
