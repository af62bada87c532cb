// Package buffer implements the fixed-byte-capacity page pool with 2Q
// eviction described in §4.4, grounded on the two-level LRU design in
// original_source's lru2.h: a probation list for once-seen pages and a
// protected list for pages promoted on a second access.
package buffer

import (
	"container/list"
	"log/slog"
	"sync"

	"github.com/lyradb/lyradb/errs"
)

// PageID identifies a cached page; callers typically derive it from
// (table id, column id, page id).
type PageID uint64

// Loader fetches a page's bytes from durable storage on a cache miss.
type Loader func(id PageID) ([]byte, error)

// Flusher persists a dirty page's bytes to durable storage.
type Flusher func(id PageID, data []byte) error

type level uint8

const (
	levelProbation level = iota
	levelProtected
)

type entry struct {
	id     PageID
	data   []byte
	pinned int
	dirty  bool
	lvl    level
	elem   *list.Element
}

// Cache is a fixed-byte-capacity, pinnable page pool with 2Q replacement.
//
// Not safe for concurrent use across goroutines beyond the internal mutex
// that serializes its own bookkeeping; per §5 a database handle is not
// meant to be driven concurrently, but the cache still guards its internal
// lists since pin/unpin can legitimately interleave with eviction from a
// background flush.
type Cache struct {
	mu sync.Mutex

	capacityBytes int64
	usedBytes     int64
	pageBytes     int64 // uniform page size, default 64 KiB

	probation *list.List // MRU-front list of *entry
	protected *list.List

	entries map[PageID]*entry

	load  Loader
	flush Flusher
	log   *slog.Logger
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithLoader sets the function used to fetch a page on a cache miss.
func WithLoader(l Loader) Option { return func(c *Cache) { c.load = l } }

// WithFlusher sets the function used to persist a dirty page on eviction
// or FlushAll.
func WithFlusher(f Flusher) Option { return func(c *Cache) { c.flush = f } }

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.log = l } }

// WithPageSize overrides the uniform page size used for capacity
// accounting (default 64 KiB, §4.4).
func WithPageSize(n int64) Option { return func(c *Cache) { c.pageBytes = n } }

// DefaultPageBytes is the default uniform page size (§4.4).
const DefaultPageBytes = 64 * 1024

// New creates a Cache with the given byte capacity.
func New(capacityBytes int64, opts ...Option) *Cache {
	c := &Cache{
		capacityBytes: capacityBytes,
		pageBytes:     DefaultPageBytes,
		probation:     list.New(),
		protected:     list.New(),
		entries:       make(map[PageID]*entry),
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns a page's bytes, loading it via the configured Loader on a
// miss and admitting it into the cache.
func (c *Cache) Get(id PageID) ([]byte, error) {
	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		c.touch(e)
		data := e.data
		c.mu.Unlock()

		return data, nil
	}
	c.mu.Unlock()

	if c.load == nil {
		return nil, &errs.NameError{Kind: "page", Name: "unloadable"}
	}

	data, err := c.load(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.admit(id, data)
	c.mu.Unlock()

	return data, nil
}

// Pin marks a page as pinned, making it ineligible for eviction until a
// matching Unpin. Pin counts nest.
func (c *Cache) Pin(id PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		e.pinned++
	}
}

// Unpin decrements a page's pin count.
func (c *Cache) Unpin(id PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.pinned > 0 {
		e.pinned--
	}
}

// MarkDirty flags a resident page as needing write-through before eviction.
func (c *Cache) MarkDirty(id PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		e.dirty = true
	}
}

// FlushAll writes every dirty page through the configured Flusher.
func (c *Cache) FlushAll() error {
	c.mu.Lock()
	dirty := make([]*entry, 0)
	for _, e := range c.entries {
		if e.dirty {
			dirty = append(dirty, e)
		}
	}
	c.mu.Unlock()

	for _, e := range dirty {
		if c.flush != nil {
			if err := c.flush(e.id, e.data); err != nil {
				return err
			}
		}
		c.mu.Lock()
		e.dirty = false
		c.mu.Unlock()
	}

	return nil
}

// UsedBytes reports resident bytes, maintained as an invariant <= capacity
// at every operation's completion (§8 "Buffer cache capacity invariant").
func (c *Cache) UsedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.usedBytes
}

// admit inserts a new page into the probation list at MRU and evicts until
// the cache is back under capacity. Caller holds c.mu.
func (c *Cache) admit(id PageID, data []byte) {
	if _, ok := c.entries[id]; ok {
		return
	}

	e := &entry{id: id, data: data, lvl: levelProbation}
	e.elem = c.probation.PushFront(e)
	c.entries[id] = e
	c.usedBytes += c.pageBytes

	c.evictUntilFits()
}

// touch implements the 2Q promotion law (§8): first access -> probation at
// MRU; a second access promotes to protected at MRU; any access within
// protected moves it back to MRU of protected.
func (c *Cache) touch(e *entry) {
	switch e.lvl {
	case levelProbation:
		c.probation.Remove(e.elem)
		e.lvl = levelProtected
		e.elem = c.protected.PushFront(e)
	case levelProtected:
		c.protected.MoveToFront(e.elem)
	}
}

// evictUntilFits evicts LRU-of-probation first, then LRU-of-protected,
// skipping pinned pages, until usedBytes <= capacityBytes (§4.4). Caller
// holds c.mu.
func (c *Cache) evictUntilFits() {
	for c.usedBytes > c.capacityBytes {
		victim := c.pickVictim()
		if victim == nil {
			// every resident page is pinned; nothing more can be evicted.
			return
		}

		if victim.dirty && c.flush != nil {
			// write-through is synchronous: callers rely on the next Get
			// observing durable data.
			if err := c.flush(victim.id, victim.data); err != nil {
				c.log.Warn("buffer cache: write-through failed on eviction", "page", victim.id, "err", err)

				return
			}
		}

		c.removeEntry(victim)
	}
}

func (c *Cache) pickVictim() *entry {
	for el := c.probation.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.pinned == 0 {
			return e
		}
	}
	for el := c.protected.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.pinned == 0 {
			return e
		}
	}

	return nil
}

func (c *Cache) removeEntry(e *entry) {
	switch e.lvl {
	case levelProbation:
		c.probation.Remove(e.elem)
	case levelProtected:
		c.protected.Remove(e.elem)
	}
	delete(c.entries, e.id)
	c.usedBytes -= c.pageBytes
}

// InProbation reports whether id currently lives in the probation list —
// exposed for the 2Q promotion-law test (§8).
func (c *Cache) InProbation(id PageID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]

	return ok && e.lvl == levelProbation
}

// InProtected reports whether id currently lives in the protected list.
func (c *Cache) InProtected(id PageID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]

	return ok && e.lvl == levelProtected
}
