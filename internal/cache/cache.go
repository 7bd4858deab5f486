// Package cache implements the object cache of spec §4.B: a
// thread-safe, refcounted LRU over Nodes, Ways and Relations that
// backs the tile assembler.
//
// Grounded on the teacher's services/mvt_storage_memory.go (a
// sync.RWMutex-guarded map cache keyed by "z-x-y" strings) generalized
// from a flat tile cache to a refcounted object cache, and wired to
// github.com/hashicorp/golang-lru/v2 (already present, transitively,
// in the teacher's go.mod) for the hash-map+intrusive-list half of the
// structure. golang-lru's own capacity-based eviction is disabled (the
// cache is sized effectively unbounded); Trim implements spec §3's
// byte-budget, refcount-aware eviction policy on top of it.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeffboody/osmdb-sub002/internal/model"
)

// DefaultCacheBytes is CACHE_BYTES from spec §3: 4 GiB.
const DefaultCacheBytes int64 = 4 << 30

// unbounded is the golang-lru capacity used so the library never
// evicts on its own; Trim is the only eviction path.
const unbounded = int(^uint(0) >> 1)

type kind byte

const (
	kindNode kind = 'n'
	kindWay  kind = 'w'
	kindRel  kind = 'r'
)

func taggedID(k kind, id int64) string {
	return fmt.Sprintf("%c%d", k, id)
}

// entry is the cache-resident record: the canonical immutable value
// (a *model.Node, *model.Way or *model.Relation) plus its refcount and
// an approximate byte size used against CACHE_BYTES.
type entry struct {
	kind     kind
	value    interface{}
	size     int64
	refCount int32
}

// Cache is the process-wide object cache. One cache mutex guards the
// MRU list, the hash map, and the refcount field of every object, per
// spec §5.
type Cache struct {
	mu         sync.Mutex
	lru        *lru.Cache[string, *entry]
	bytes      int64
	cacheBytes int64
}

// New creates a cache with the given byte budget (0 selects
// DefaultCacheBytes).
func New(cacheBytes int64) (*Cache, error) {
	if cacheBytes <= 0 {
		cacheBytes = DefaultCacheBytes
	}
	l, err := lru.New[string, *entry](unbounded)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to create LRU: %w", err)
	}
	return &Cache{lru: l, cacheBytes: cacheBytes}, nil
}

// Handle pins a cached object; Release must be called exactly once,
// on every exit branch, per spec §5's liveness rule.
type Handle struct {
	c     *Cache
	key   string
	value interface{}
}

func (h *Handle) Release() {
	h.c.release(h.key)
}

func (c *Cache) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Peek(key)
	if !ok {
		return
	}
	if e.refCount > 0 {
		e.refCount--
	}
}

// getOrLoad is the shared hit/miss path: on hit, move to MRU tail and
// increment refcount under the lock; on miss, decode outside the lock
// and insert under the lock (spec §4.B: "the loader executes outside
// the lock only for blob decoding, but list/map mutations happen under
// the lock").
func (c *Cache) getOrLoad(k kind, id int64, size int64, load func() (interface{}, error)) (*Handle, error) {
	key := taggedID(k, id)

	c.mu.Lock()
	if e, ok := c.lru.Get(key); ok {
		e.refCount++
		c.mu.Unlock()
		return &Handle{c: c, key: key, value: e.value}, nil
	}
	c.mu.Unlock()

	value, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Get(key); ok {
		// Lost a race with a concurrent loader; keep the winner's value.
		e.refCount++
		return &Handle{c: c, key: key, value: e.value}, nil
	}
	e := &entry{kind: k, value: value, size: size, refCount: 1}
	c.lru.Add(key, e)
	c.bytes += size
	return &Handle{c: c, key: key, value: value}, nil
}

// GetNode returns a pinned handle to a Node, loading it via load on a
// cache miss.
func (c *Cache) GetNode(id int64, load func() (*model.Node, error)) (*model.Node, *Handle, error) {
	h, err := c.getOrLoad(kindNode, id, nodeSize, func() (interface{}, error) { return load() })
	if err != nil {
		return nil, nil, err
	}
	return h.value.(*model.Node), h, nil
}

// GetRelation returns a pinned handle to a Relation (shared, immutable).
func (c *Cache) GetRelation(id int64, load func() (*model.Relation, error)) (*model.Relation, *Handle, error) {
	h, err := c.getOrLoad(kindRel, id, relSize, func() (interface{}, error) { return load() })
	if err != nil {
		return nil, nil, err
	}
	return h.value.(*model.Relation), h, nil
}

// GetWay returns a pinned handle to the canonical Way plus an
// independent mutable copy of it: join/sample/clip mutate the copy
// while the cache retains the immutable original, per spec §4.B.
func (c *Cache) GetWay(id int64, load func() (*model.Way, error)) (*model.Way, *Handle, error) {
	h, err := c.getOrLoad(kindWay, id, waySize, func() (interface{}, error) { return load() })
	if err != nil {
		return nil, nil, err
	}
	canonical := h.value.(*model.Way)
	return canonical.Clone(), h, nil
}

// approximate per-object byte costs used against CACHE_BYTES; real
// sizes vary with name length and nd-list length, but a fixed estimate
// keeps the trim walk O(1) per entry instead of re-measuring structs.
const (
	nodeSize = 64
	waySize  = 256
	relSize  = 192
)

// Trim walks the LRU from its head (least-recently-used) forward,
// dropping any entry with refcount==0, until residency is at or below
// the cache's byte budget. Entries that are pinned are skipped and
// left in place; other threads may still hold handles on them.
func (c *Cache) Trim() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bytes <= c.cacheBytes {
		return
	}
	for _, key := range c.lru.Keys() {
		if c.bytes <= c.cacheBytes {
			break
		}
		e, ok := c.lru.Peek(key)
		if !ok || e.refCount > 0 {
			continue
		}
		c.lru.Remove(key)
		c.bytes -= e.size
	}
}

// Len reports the number of resident entries (map.size == list.size
// invariant from spec §8, trivially true here since both views come
// from the same golang-lru instance).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Bytes reports current approximate residency.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}
