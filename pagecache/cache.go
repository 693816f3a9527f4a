package pagecache

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/lazyreclaim/pagecache/internal/locmap"
	"github.com/lazyreclaim/pagecache/internal/reclaimstat"
)

// ChunkPicker chooses which of n chunks to evict when the cache is
// out of free pages. It is the pluggable half of evictChunk: spec
// behavior only fixes that eviction is whole-chunk, not which chunk.
type ChunkPicker func(n int) int

// RandomChunkPicker picks a chunk uniformly at random. This is the
// default policy, matching the C prototype's rand()-based selection.
func RandomChunkPicker(n int) int { return rand.N(n) }

// RoundRobinChunkPicker returns a ChunkPicker that cycles through
// chunks in order, useful for reproducible tests and for workloads
// where uniform-random eviction clusters badly.
func RoundRobinChunkPicker() ChunkPicker {
	next := 0
	return func(n int) int {
		idx := next % n
		next++
		return idx
	}
}

// Config configures a PageCache.
type Config struct {
	// CapacityBytes is the total size of the cache across all chunks.
	// Must be a positive multiple of NumChunks*PageSize.
	CapacityBytes int64

	// NumChunks is the number of independently mmap'd, independently
	// evictable regions the capacity is split across. Zero selects
	// DefaultNumChunks; values outside [MinNumChunks, MaxNumChunks]
	// are rejected.
	NumChunks int

	// Mmap allocates chunk memory. Nil selects the platform default
	// (anonymous mmap on Linux, a heap slice elsewhere).
	Mmap Mmapper

	// Advise issues reclaim advisories as chunks fill and roll over.
	// Nil selects the platform default (real madvise on Linux, a
	// no-op elsewhere).
	Advise Advisor

	// Picker selects which chunk to evict when the cache runs out of
	// free pages. Nil selects RandomChunkPicker.
	Picker ChunkPicker

	// Logger receives notice of expected-but-noteworthy reclaim
	// events. Nil logs through log.Default() via reclaimstat.Logger's
	// zero value.
	Logger *reclaimstat.Logger
}

// PageCache is an in-process, overcommitted key→page store. See the
// package doc for the reclaim-sentinel protocol it relies on.
type PageCache struct {
	cfg           Config
	pagesPerChunk int
	chunks        []*chunk
	loc           *locmap.Map
	current       int // index of the chunk currently receiving new allocations
	freePages     int64

	// zero-key reserved slot: key 0 is handled out of band and never
	// stored in a chunk's keys[] array (see the Key type's doc).
	zeroSet    bool
	zeroPage   []byte
	zeroShadow bool

	// write-lock singleton: at most one write lock may be held at a
	// time, across both ordinary keys and the zero-key slot.
	wLocked bool
	wIsZero bool
	wKey    Key
	wLoc    pageLoc

	log *reclaimstat.Logger
}

// New builds a PageCache per cfg. It allocates and maps every chunk
// up front; there is no lazy chunk creation.
func New(cfg Config) (*PageCache, error) {
	if ps := os.Getpagesize(); ps != PageSize {
		return nil, fmt.Errorf("pagecache: PageSize %d does not match the operating system page size %d", PageSize, ps)
	}
	if cfg.NumChunks == 0 {
		cfg.NumChunks = DefaultNumChunks
	}
	chunkSize, pagesPerChunk, err := validateCapacity(cfg.CapacityBytes, cfg.NumChunks)
	if err != nil {
		return nil, err
	}
	if cfg.Mmap == nil {
		cfg.Mmap = NewMmapper()
	}
	if cfg.Advise == nil {
		cfg.Advise = NewAdvisor()
	}
	if cfg.Picker == nil {
		cfg.Picker = RandomChunkPicker
	}

	pc := &PageCache{
		cfg:           cfg,
		pagesPerChunk: pagesPerChunk,
		chunks:        make([]*chunk, cfg.NumChunks),
		loc:           locmap.New(),
		log:           cfg.Logger,
		zeroPage:      make([]byte, PageSize),
	}

	for i := range pc.chunks {
		mem, err := cfg.Mmap.Map(int(chunkSize))
		if err != nil {
			pc.releaseChunks(i)
			return nil, fmt.Errorf("pagecache: mapping chunk %d: %w", i, err)
		}
		pc.chunks[i] = newChunk(mem, pagesPerChunk)
	}
	pc.freePages = int64(cfg.NumChunks) * int64(pagesPerChunk)
	return pc, nil
}

func (pc *PageCache) releaseChunks(n int) {
	for i := 0; i < n; i++ {
		if pc.chunks[i] != nil {
			_ = pc.cfg.Mmap.Unmap(pc.chunks[i].mem)
		}
	}
}

// Close unmaps every chunk. The PageCache must not be used afterward.
func (pc *PageCache) Close() error {
	var first error
	for _, c := range pc.chunks {
		if err := pc.cfg.Mmap.Unmap(c.mem); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// logger returns a non-nil reclaimstat.Logger, defaulting to the zero
// value (which logs through log.Default()).
func (pc *PageCache) logger() *reclaimstat.Logger {
	if pc.log == nil {
		pc.log = &reclaimstat.Logger{}
	}
	return pc.log
}

// ───────────────────────────────────────────────────────────────────────────
// Chunk management
// ───────────────────────────────────────────────────────────────────────────

// allocFromCurrentChunk tries to allocate from the chunk currently
// receiving writes, without advancing or evicting.
func (pc *PageCache) allocFromCurrentChunk() (pageLoc, bool) {
	c := pc.chunks[pc.current]
	idx, ok := c.alloc()
	if !ok {
		return pageLoc{}, false
	}
	return pageLoc{Chunk: uint8(pc.current), Index: idx}, true
}

// advanceChunk advises the kernel that the chunk just filled can be
// reclaimed, then moves the allocation cursor to the next chunk.
func (pc *PageCache) advanceChunk() {
	c := pc.chunks[pc.current]
	_ = pc.cfg.Advise.Advise(c.mem, AdviseLazyFree)
	pc.current = (pc.current + 1) % len(pc.chunks)
}

// evictChunk discards an entire chunk's contents, advises the kernel
// to drop its pages immediately, and returns its pages to the free
// pool. It is only called when the cache has zero free pages left.
func (pc *PageCache) evictChunk() {
	idx := pc.cfg.Picker(len(pc.chunks))
	c := pc.chunks[idx]
	dropped := c.evict()
	for _, key := range dropped {
		pc.loc.Delete(key)
	}
	pc.freePages += int64(len(dropped))
	_ = pc.cfg.Advise.Advise(c.mem, AdviseDontNeed)
}

// allocNewPage returns a fresh page location, evicting a chunk first
// if the cache has no free pages at all.
func (pc *PageCache) allocNewPage() pageLoc {
	if pc.freePages == 0 {
		pc.evictChunk()
	}
	for i := 0; i < len(pc.chunks); i++ {
		if loc, ok := pc.allocFromCurrentChunk(); ok {
			pc.freePages--
			return loc
		}
		pc.advanceChunk()
	}
	panic("pagecache: allocator found no free page despite a positive free count")
}

// dropLocked releases the page at loc back to its chunk's free stack
// and removes the key→location entry. loc must currently be occupied.
func (pc *PageCache) dropLocked(loc pageLoc) {
	c := pc.chunks[loc.Chunk]
	key := c.keys[loc.Index]
	c.release(loc.Index)
	if len(c.freeList) > c.len {
		panic("pagecache: chunk free stack exceeds its high-water mark")
	}
	pc.loc.Delete(key)
	pc.freePages++
}

// Stats reports current occupancy. When verbose is true, PerChunk is
// populated with a per-chunk breakdown.
func (pc *PageCache) Stats(verbose bool) Stats {
	s := Stats{
		NumChunks:     len(pc.chunks),
		PagesPerChunk: pc.pagesPerChunk,
		TotalPages:    len(pc.chunks) * pc.pagesPerChunk,
		FreePages:     int(pc.freePages),
		LiveKeys:      pc.loc.Len(),
		ZeroKeySet:    pc.zeroSet,
		CurrentChunk:  pc.current,
	}
	if pc.zeroSet {
		s.LiveKeys++
	}
	if !verbose {
		return s
	}
	s.PerChunk = make([]ChunkStats, len(pc.chunks))
	for i, c := range pc.chunks {
		live := 0
		for j := 0; j < c.len; j++ {
			if c.occupied.Get(j) {
				live++
			}
		}
		s.PerChunk[i] = ChunkStats{
			Index:       i,
			HighWater:   c.len,
			FreeListLen: len(c.freeList),
			LiveCount:   live,
		}
	}
	return s
}
