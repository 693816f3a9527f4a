package pagecache

import "testing"

func TestChunk_AllocReusesFreedIndexBeforeGrowing(t *testing.T) {
	c := newChunk(make([]byte, 4*PageSize), 4)

	idx0, ok := c.alloc()
	if !ok || idx0 != 0 {
		t.Fatalf("expected first alloc to return index 0, got %d ok=%v", idx0, ok)
	}
	idx1, ok := c.alloc()
	if !ok || idx1 != 1 {
		t.Fatalf("expected second alloc to return index 1, got %d ok=%v", idx1, ok)
	}

	c.release(idx0)
	idx2, ok := c.alloc()
	if !ok || idx2 != idx0 {
		t.Fatalf("expected alloc to reuse freed index %d, got %d", idx0, idx2)
	}
}

func TestChunk_AllocFailsWhenFull(t *testing.T) {
	c := newChunk(make([]byte, 2*PageSize), 2)
	if _, ok := c.alloc(); !ok {
		t.Fatal("expected first alloc to succeed")
	}
	if _, ok := c.alloc(); !ok {
		t.Fatal("expected second alloc to succeed")
	}
	if _, ok := c.alloc(); ok {
		t.Fatal("expected third alloc to fail on a 2-page chunk")
	}
}

func TestChunk_EvictReturnsOccupiedKeysAndResetsState(t *testing.T) {
	c := newChunk(make([]byte, 4*PageSize), 4)
	idxA, _ := c.alloc()
	idxB, _ := c.alloc()
	c.keys[idxA] = 111
	c.keys[idxB] = 222

	dropped := c.evict()
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped keys, got %d: %v", len(dropped), dropped)
	}
	seen := map[uint64]bool{dropped[0]: true, dropped[1]: true}
	if !seen[111] || !seen[222] {
		t.Fatalf("expected dropped keys {111,222}, got %v", dropped)
	}
	if len(c.freeList) != c.len {
		t.Fatalf("expected every high-watermark slot free after eviction, freeList=%d len=%d", len(c.freeList), c.len)
	}
	for i := 0; i < c.len; i++ {
		if c.occupied.Get(i) {
			t.Fatalf("index %d still marked occupied after evict", i)
		}
	}
}
