// Package ftcache implements a fall-through key→value cache on top of
// pagecache: a Get that misses refills from an upstream source and
// writes the result back, so repeated lookups of the same key are
// served from memory until the kernel reclaims that key's page.
//
// Each entry occupies the last entrySize bytes of its page, so the
// page's reclaim sentinel (pagecache's last payload byte) is always
// part of the value the caller gets back, reconstructed transparently
// by pagecache.RLock.CopyOut.
package ftcache

import (
	"fmt"

	"github.com/lazyreclaim/pagecache/pagecache"
)

// RefillFunc fetches key's current value from whatever upstream
// source the cache is fronting and writes it into out (len(out) ==
// entrySize). Refill is assumed infallible: an upstream "not found"
// is encoded by the caller as a sentinel value written into out,
// exactly like any other result.
type RefillFunc func(key uint64, out []byte)

// Cache is a fall-through adapter around a pagecache.PageCache.
type Cache struct {
	pc        *pagecache.PageCache
	entrySize int
	offset    int // entrySize bytes occupy page[offset:PageSize]
	refill    RefillFunc
}

// New returns a Cache storing entrySize-byte values in pc. It panics
// if entrySize is not in [1, pagecache.PageSize], matching pagecache's
// own convention of asserting on programmer-error configuration.
func New(pc *pagecache.PageCache, entrySize int, refill RefillFunc) *Cache {
	if entrySize <= 0 || entrySize > pagecache.PageSize {
		panic(fmt.Sprintf("ftcache: entrySize %d out of range (1..%d)", entrySize, pagecache.PageSize))
	}
	return &Cache{
		pc:        pc,
		entrySize: entrySize,
		offset:    pagecache.PageSize - entrySize,
		refill:    refill,
	}
}

// Get writes key's value into out (len(out) must equal entrySize),
// refilling from upstream on a miss or a kernel-reclaimed entry. The
// refill always runs exactly once per miss; if the page is lost to a
// reclaim racing the write_upgrade that follows, pagecache logs it and
// transparently falls back to a fresh page, onto which the value
// refill already produced is written — there is nothing to retry.
func (c *Cache) Get(key uint64, out []byte) {
	rl := c.pc.ReadLock(key)
	if rl.Valid() && rl.CopyOut(out, c.offset) {
		c.pc.ReadUnlock(rl, false)
		return
	}

	c.refill(key, out)

	page := c.pc.WriteUpgrade(&rl)
	copy(page[c.offset:], out)
	c.pc.WriteUnlock(false)
}

// Drop evicts key's entry, if any, reporting whether it was present.
func (c *Cache) Drop(key uint64) bool {
	rl := c.pc.ReadLock(key)
	if !rl.Valid() {
		return false
	}
	c.pc.ReadUnlock(rl, true)
	return true
}
