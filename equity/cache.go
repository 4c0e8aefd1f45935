package equity

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tenfall/board"
)

// Size of an entry on 64-bit platforms, padding included.
const entrySize = 80

const (
	minSizePowerOf2 = 16
	maxSizePowerOf2 = 26
)

type entry struct {
	key   uint64
	valid bool
	res   Result
}

// Cache memoizes EraseOne results by board hash. It is a direct-mapped
// table: a new entry simply overwrites whatever lived in its bucket. Search
// workers share a single Cache.
type Cache struct {
	mu           sync.RWMutex
	table        []entry
	sizePowerOf2 int
	sizeMask     uint64

	lookups    atomic.Uint64
	hits       atomic.Uint64
	collisions atomic.Uint64
}

// NewCache allocates a cache using the given fraction of system memory.
func NewCache(fractionOfMemory float64) *Cache {
	c := &Cache{}
	c.Reset(fractionOfMemory)
	return c
}

// Reset sizes the table to the largest power of two that fits in
// fractionOfMemory of the machine's memory, and empties it.
func (c *Cache) Reset(fractionOfMemory float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	totalMem := memory.TotalMemory()
	desired := fractionOfMemory * float64(totalMem) / entrySize
	c.sizePowerOf2 = minSizePowerOf2
	if desired > 1 {
		c.sizePowerOf2 = int(math.Log2(desired))
	}
	c.sizePowerOf2 = max(minSizePowerOf2, min(maxSizePowerOf2, c.sizePowerOf2))
	n := 1 << c.sizePowerOf2
	c.sizeMask = uint64(n - 1)
	if len(c.table) == n {
		clear(c.table)
	} else {
		c.table = make([]entry, n)
	}
	log.Debug().Int("num-elems", n).
		Int("estimated-total-memory-bytes", n*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("erase-cache-size")
	c.lookups.Store(0)
	c.hits.Store(0)
	c.collisions.Store(0)
}

func cacheKey(b *board.Board, opts Options) uint64 {
	code := uint64(opts.Column + 2)
	if opts.IgnoreBottom {
		code |= 1 << 5
	}
	return b.Hash() ^ code*0x9E3779B97F4A7C15
}

// EraseOne returns the cached evaluation of b, computing and storing it on
// a miss. A nil Cache evaluates directly.
func (c *Cache) EraseOne(b *board.Board, opts Options) Result {
	if c == nil {
		return EraseOne(b, opts)
	}
	key := cacheKey(b, opts)
	if res, ok := c.lookup(key); ok {
		return res
	}
	res := EraseOne(b, opts)
	c.store(key, res)
	return res
}

func (c *Cache) lookup(key uint64) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.lookups.Add(1)
	e := c.table[key&c.sizeMask]
	if !e.valid {
		return Result{}, false
	}
	if e.key != key {
		c.collisions.Add(1)
		return Result{}, false
	}
	c.hits.Add(1)
	return e.res, true
}

func (c *Cache) store(key uint64, res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table[key&c.sizeMask] = entry{key: key, valid: true, res: res}
}

// Stats reports lookups, hits and bucket collisions since the last Reset.
func (c *Cache) Stats() (lookups, hits, collisions uint64) {
	return c.lookups.Load(), c.hits.Load(), c.collisions.Load()
}

// Len is the number of buckets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}
