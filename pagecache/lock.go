package pagecache

// RLock is a snapshot handle returned by ReadLock. It is a value type
// deliberately small enough to pass and return by copy. A page may be
// reclaimed by the kernel at any point after ReadLock returns, so
// every use of the underlying data must be followed by Valid (or rely
// on CopyOut's built-in re-check) before the caller trusts it.
type RLock struct {
	absent    bool
	key       Key
	isZero    bool
	page      []byte
	loc       pageLoc
	shadowBit bool
}

// Valid reports whether the page is still live. It corresponds to
// LOCK_CHECK in the original design: re-reading the reclaim sentinel.
func (l RLock) Valid() bool {
	if l.absent || l.page == nil {
		return false
	}
	return l.page[len(l.page)-1] != 0
}

// CopyOut copies len(dst) bytes starting at offset into dst, patching
// in the reconstructed true value of the sentinel byte if it falls
// within the copied range, then re-validates. A false return means
// the page was reclaimed during (or before) the copy and dst should
// not be trusted.
func (l RLock) CopyOut(dst []byte, offset int) bool {
	if l.absent || l.page == nil {
		return false
	}
	n := copy(dst, l.page[offset:])
	lastIdx := len(l.page) - 1
	if lastIdx >= offset && lastIdx < offset+n {
		dst[lastIdx-offset] = reconstructSentinel(l.page[lastIdx], l.shadowBit)
	}
	return l.Valid()
}

// ReadLock returns a snapshot handle for key. The handle is absent
// (Valid() == false) if the key was never written, or if the kernel
// reclaimed its page since the last write — in the reclaimed case the
// key→location entry is deliberately left in place; it is cleaned up
// by the next WriteAlloc or WriteUpgrade of that key, or when its chunk
// is evicted. ReadUnlock on the absent handle leaves it in place.
func (pc *PageCache) ReadLock(key Key) RLock {
	if pc.wLocked {
		panic("pagecache: read_lock called while a write lock is held")
	}
	if key == 0 {
		if !pc.zeroSet {
			return RLock{absent: true, key: 0, isZero: true}
		}
		if pc.zeroPage[PageSize-1] == 0 {
			pc.logger().StaleDuringCopy(0)
			return RLock{absent: true, key: 0, isZero: true}
		}
		return RLock{key: 0, isZero: true, page: pc.zeroPage, shadowBit: pc.zeroShadow}
	}
	loc, ok := pc.loc.Get(key)
	if !ok {
		return RLock{absent: true, key: key}
	}
	c := pc.chunks[loc.Chunk]
	if !c.occupied.Get(int(loc.Index)) || c.keys[loc.Index] != key {
		return RLock{absent: true, key: key}
	}
	page := c.page(loc.Index)
	if page[PageSize-1] == 0 {
		pc.logger().StaleDuringCopy(key)
		return RLock{absent: true, key: key}
	}
	return RLock{key: key, page: page, loc: loc, shadowBit: c.shadow.Get(int(loc.Index))}
}

// ReadUnlock releases a read lock. When drop is true and the lock is
// still valid for the slot it was taken against, the entry is removed
// from the cache entirely.
func (pc *PageCache) ReadUnlock(l RLock, drop bool) {
	if l.absent || !drop {
		return
	}
	if l.isZero {
		if pc.zeroSet {
			pc.zeroSet = false
			pc.zeroShadow = false
		}
		return
	}
	c := pc.chunks[l.loc.Chunk]
	if c.occupied.Get(int(l.loc.Index)) && c.keys[l.loc.Index] == l.key {
		pc.dropLocked(l.loc)
	}
}

// WriteAlloc takes the write lock for key and returns its page,
// uninitialized (it may carry a previous occupant's bytes). A key
// whose slot is still live panics — callers must use WriteUpgrade for
// that — but a key whose page the kernel has since reclaimed (still
// present in the location map per ReadLock's "stays in the map until
// cleaned up" contract) is silently dropped and reused here rather
// than treated as a misuse: spec §1's whole point is re-materializing
// a reclaimed value, and ReadLock deliberately defers that cleanup to
// the next write. It also panics if a write lock is already held.
func (pc *PageCache) WriteAlloc(key Key) []byte {
	if pc.wLocked {
		panic("pagecache: write_alloc called while a write lock is already held")
	}
	if key == 0 {
		if pc.zeroSet {
			if pc.zeroPage[PageSize-1] != 0 {
				panic("pagecache: write_alloc called for key 0 which already exists; use WriteUpgrade")
			}
			pc.zeroShadow = false
		}
		pc.wLocked, pc.wIsZero, pc.wKey = true, true, 0
		pc.zeroSet = true
		return pc.zeroPage
	}
	if loc, ok := pc.loc.Get(key); ok {
		c := pc.chunks[loc.Chunk]
		live := c.occupied.Get(int(loc.Index)) && c.keys[loc.Index] == key && c.page(loc.Index)[PageSize-1] != 0
		if live {
			panic("pagecache: write_alloc called for an existing key; use WriteUpgrade")
		}
		if c.occupied.Get(int(loc.Index)) && c.keys[loc.Index] == key {
			pc.dropLocked(loc)
		} else {
			pc.loc.Delete(key)
		}
	}
	loc := pc.allocNewPage()
	c := pc.chunks[loc.Chunk]
	c.keys[loc.Index] = key
	pc.loc.Put(key, loc)
	pc.wLocked, pc.wIsZero, pc.wKey, pc.wLoc = true, false, key, loc
	return c.page(loc.Index)
}

// WriteUpgrade promotes a read lock to a write lock in place, without
// a fresh allocation, by probing the sentinel: it writes a throwaway
// value into the page's first byte and re-checks the sentinel. If the
// sentinel is still live the probe is undone and the write lock is
// granted on the same page; if the kernel reclaimed the page in that
// narrow window, the stale entry is dropped and a fresh, blank page is
// allocated instead. Either way *l is invalidated — it must not be
// used again after the call.
func (pc *PageCache) WriteUpgrade(l *RLock) []byte {
	if pc.wLocked {
		panic("pagecache: write_upgrade called while a write lock is already held")
	}
	key := l.key
	defer func() { *l = RLock{} }()

	if l.absent {
		return pc.WriteAlloc(key)
	}
	if l.isZero {
		if !pc.zeroSet {
			return pc.WriteAlloc(0)
		}
		probe := pc.zeroPage[0]
		pc.zeroPage[0] = 1
		if pc.zeroPage[PageSize-1] != 0 {
			pc.zeroPage[0] = probe
			pc.zeroPage[PageSize-1] = reconstructSentinel(pc.zeroPage[PageSize-1], pc.zeroShadow)
			pc.wLocked, pc.wIsZero, pc.wKey = true, true, 0
			return pc.zeroPage
		}
		pc.logger().UpgradeLostPage(0)
		pc.zeroSet = false
		fresh := pc.WriteAlloc(0)
		clear(fresh)
		return fresh
	}

	loc := l.loc
	c := pc.chunks[loc.Chunk]
	if !c.occupied.Get(int(loc.Index)) || c.keys[loc.Index] != key {
		return pc.WriteAlloc(key)
	}
	page := c.page(loc.Index)
	probe := page[0]
	page[0] = 1
	if page[PageSize-1] != 0 {
		page[0] = probe
		page[PageSize-1] = reconstructSentinel(page[PageSize-1], c.shadow.Get(int(loc.Index)))
		pc.wLocked, pc.wIsZero, pc.wKey, pc.wLoc = true, false, key, loc
		return page
	}
	pc.logger().UpgradeLostPage(key)
	pc.dropLocked(loc)
	fresh := pc.WriteAlloc(key)
	clear(fresh)
	return fresh
}

// WriteUnlock releases the held write lock, committing the page's
// sentinel (and shadow bit) unless drop is true, in which case the
// entry is removed instead. It panics if no write lock is held.
func (pc *PageCache) WriteUnlock(drop bool) {
	if !pc.wLocked {
		panic("pagecache: write_unlock called without a held write lock")
	}
	switch {
	case pc.wIsZero && drop:
		pc.zeroSet = false
	case pc.wIsZero:
		forced, shadowBit := commitSentinel(pc.zeroPage[PageSize-1])
		pc.zeroPage[PageSize-1] = forced
		pc.zeroShadow = shadowBit
	case drop:
		pc.dropLocked(pc.wLoc)
	default:
		c := pc.chunks[pc.wLoc.Chunk]
		if c.keys[pc.wLoc.Index] != pc.wKey {
			panic("pagecache: write_unlock held lock no longer matches its recorded key")
		}
		page := c.page(pc.wLoc.Index)
		forced, shadowBit := commitSentinel(page[PageSize-1])
		page[PageSize-1] = forced
		c.shadow.Set(int(pc.wLoc.Index), shadowBit)
	}
	pc.wLocked, pc.wIsZero, pc.wKey, pc.wLoc = false, false, 0, pageLoc{}
}
