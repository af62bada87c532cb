package qcache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lyradb/lyradb/exec"
)

// DefaultTTL, DefaultMaxBytes and DefaultMaxEntries are the cache's
// out-of-the-box bounds; WithTTL, WithMaxBytes and WithMaxEntries each
// override one of them.
const (
	DefaultTTL       = 5 * time.Minute
	DefaultMaxBytes  = 64 * 1024 * 1024
	DefaultMaxEntries = 10_000
)

type entry struct {
	fp        Fingerprint
	result    *exec.QueryResult
	tables    []string
	bytes     int64
	createdAt time.Time
	elem      *list.Element
}

// Stats tracks cumulative cache statistics (§4.14's "hits, misses,
// evictions").
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Option configures a Cache at construction, in the pack's functional-
// options idiom (§7a).
type Option func(*Cache)

// WithTTL overrides the per-entry time-to-live.
func WithTTL(ttl time.Duration) Option { return func(c *Cache) { c.ttl = ttl } }

// WithMaxBytes overrides the total-byte-footprint capacity bound.
func WithMaxBytes(n int64) Option { return func(c *Cache) { c.maxBytes = n } }

// WithMaxEntries overrides the entry-count capacity bound.
func WithMaxEntries(n int) Option { return func(c *Cache) { c.maxEntries = n } }

// WithLogger sets the structured logger used for degrade-to-miss and
// eviction diagnostics (§7a).
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.log = l } }

// Cache is the query result cache described in §4.14: capacity-bounded,
// TTL-expiring, table-tagged for invalidation on write. Lookup promotes an
// entry to MRU; engine.Database drives Invalidate on every successful
// write.
type Cache struct {
	mu sync.Mutex

	ttl        time.Duration
	maxBytes   int64
	maxEntries int
	usedBytes  int64

	order   *list.List // MRU-front
	entries map[Fingerprint]*entry
	byTable map[string]map[Fingerprint]bool

	stats Stats
	log   *slog.Logger

	group singleflight.Group
}

// New returns an empty Cache with the given options applied over the
// defaults.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:        DefaultTTL,
		maxBytes:   DefaultMaxBytes,
		maxEntries: DefaultMaxEntries,
		order:      list.New(),
		entries:    make(map[Fingerprint]*entry),
		byTable:    make(map[string]map[Fingerprint]bool),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get looks up sql's normalized fingerprint. A hit promotes the entry to
// MRU; an entry past its TTL is treated as (and removed like) a miss, per
// §4.14's "on TTL expiry, the entry is discarded." A cache failure never
// propagates to the caller (§7: "Result-cache errors are never fatal: a
// cache failure degrades to a miss") — Get simply has no error return.
func (c *Cache) Get(sql string) (*exec.QueryResult, bool) {
	fp := FingerprintOf(sql)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		c.stats.Misses++

		return nil, false
	}

	if time.Since(e.createdAt) > c.ttl {
		c.log.Debug("qcache: entry expired", "fingerprint", fp)
		c.removeLocked(e)
		c.stats.Misses++

		return nil, false
	}

	c.order.MoveToFront(e.elem)
	c.stats.Hits++

	return e.result, true
}

// Put inserts result under sql's fingerprint, tagged with tables, evicting
// LRU entries as needed to respect both capacity bounds.
func (c *Cache) Put(sql string, result *exec.QueryResult, tables []string) {
	fp := FingerprintOf(sql)
	footprint := result.ByteFootprint()

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[fp]; ok {
		c.removeLocked(old)
	}

	e := &entry{fp: fp, result: result, tables: tables, bytes: footprint, createdAt: time.Now()}
	e.elem = c.order.PushFront(e)
	c.entries[fp] = e
	c.usedBytes += footprint

	for _, t := range tables {
		if c.byTable[t] == nil {
			c.byTable[t] = make(map[Fingerprint]bool)
		}
		c.byTable[t][fp] = true
	}

	c.evictLocked()
}

// Singleflight collapses concurrent identical-fingerprint cache misses
// into one underlying execution, returning the same result (and error) to
// every caller waiting on sql's fingerprint (§9's singleflight wiring).
// The caller is responsible for calling Put with the returned result on
// success; Singleflight itself only de-duplicates the execute call.
func (c *Cache) Singleflight(sql string, execute func() (*exec.QueryResult, error)) (*exec.QueryResult, error, bool) {
	fp := FingerprintOf(sql)

	v, err, shared := c.group.Do(fp.String(), func() (any, error) {
		return execute()
	})
	if err != nil {
		return nil, err, shared
	}

	return v.(*exec.QueryResult), nil, shared
}

// Invalidate deletes every entry tagged with table (§4.14: "invalidate(table)
// deletes every entry tagged with that table"), the mechanism behind §8's
// "after any successful write to table T, no subsequent read returns a
// cached entry tagged with T."
func (c *Cache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fps := c.byTable[table]
	for fp := range fps {
		if e, ok := c.entries[fp]; ok {
			c.removeLocked(e)
		}
	}
	delete(c.byTable, table)
}

// Clear empties the cache entirely.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = list.New()
	c.entries = make(map[Fingerprint]*entry)
	c.byTable = make(map[string]map[Fingerprint]bool)
	c.usedBytes = 0
}

// Stats returns a snapshot of cumulative hit/miss/eviction counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) removeLocked(e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.fp)
	c.usedBytes -= e.bytes

	for _, t := range e.tables {
		delete(c.byTable[t], e.fp)
		if len(c.byTable[t]) == 0 {
			delete(c.byTable, t)
		}
	}
}

func (c *Cache) evictLocked() {
	for (c.maxEntries > 0 && len(c.entries) > c.maxEntries) || (c.maxBytes > 0 && c.usedBytes > c.maxBytes) {
		back := c.order.Back()
		if back == nil {
			return
		}
		victim := back.Value.(*entry)
		c.log.Debug("qcache: evicting entry", "fingerprint", victim.fp, "bytes", victim.bytes)
		c.removeLocked(victim)
		c.stats.Evictions++
	}
}
