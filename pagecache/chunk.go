package pagecache

import "github.com/lazyreclaim/pagecache/internal/bitset"

// ───────────────────────────────────────────────────────────────────────────
// Chunk
// ───────────────────────────────────────────────────────────────────────────
//
// A chunk is one mmap region holding pagesPerChunk fixed-size pages.
// Pages within a chunk are handed out by a bump allocator (len is the
// high-water mark of pages ever touched) backed by a free-page stack
// for reuse after a drop. Eviction always discards a whole chunk: the
// free stack is refilled wholesale with every index below len (len
// itself is kept), rather than the engine tracking per-page recency.

// chunk is one mmap-backed region of PagesPerChunk pages.
type chunk struct {
	mem      []byte // pagesPerChunk * PageSize bytes
	keys     []uint64
	occupied *bitset.Bitset // which indices in [0, len) are live
	shadow   *bitset.Bitset // shadow low-bit for each page's sentinel byte
	freeList []uint32       // indices available for reuse, LIFO
	len      int            // bump-allocator high-water mark
	capacity int            // pagesPerChunk
}

func newChunk(mem []byte, pagesPerChunk int) *chunk {
	return &chunk{
		mem:      mem,
		keys:     make([]uint64, pagesPerChunk),
		occupied: bitset.New(pagesPerChunk),
		shadow:   bitset.New(pagesPerChunk),
		capacity: pagesPerChunk,
	}
}

// page returns the page-sized slice for index idx.
func (c *chunk) page(idx uint32) []byte {
	off := int(idx) * PageSize
	return c.mem[off : off+PageSize]
}

// full reports whether the chunk has no reusable or fresh pages left.
func (c *chunk) full() bool {
	return len(c.freeList) == 0 && c.len >= c.capacity
}

// alloc hands out a page index, preferring a reused (freed) one over
// extending the bump-allocator high-water mark. Reports false if the
// chunk has no room at all.
func (c *chunk) alloc() (uint32, bool) {
	if n := len(c.freeList); n > 0 {
		idx := c.freeList[n-1]
		c.freeList = c.freeList[:n-1]
		c.occupied.Set(int(idx), true)
		return idx, true
	}
	if c.full() {
		return 0, false
	}
	idx := uint32(c.len)
	c.len++
	c.occupied.Set(int(idx), true)
	return idx, true
}

// release marks idx free for reuse and clears its key.
func (c *chunk) release(idx uint32) {
	c.occupied.Set(int(idx), false)
	c.keys[idx] = 0
	c.freeList = append(c.freeList, idx)
}

// evict resets the whole chunk to empty, returning the keys that were
// occupied so the caller can remove them from the location index.
func (c *chunk) evict() []uint64 {
	var dropped []uint64
	for i := 0; i < c.len; i++ {
		if c.occupied.Get(i) {
			dropped = append(dropped, c.keys[i])
			c.keys[i] = 0
		}
	}
	c.occupied.Clear()
	c.freeList = c.freeList[:0]
	for i := 0; i < c.len; i++ {
		c.freeList = append(c.freeList, uint32(i))
	}
	return dropped
}
