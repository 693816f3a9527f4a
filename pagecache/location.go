package pagecache

import "github.com/lazyreclaim/pagecache/internal/locmap"

// pageLoc identifies a page by chunk index and in-chunk page index.
// It is the concrete value locmap.Map stores; pagecache is the only
// package that needs to know chunks and pages exist, so locmap stays
// generic over the Loc shape.
type pageLoc = locmap.Loc

// Stats reports the current occupancy of the cache, optionally broken
// down per chunk. It is a diagnostic snapshot, not something the
// engine consults internally.
type Stats struct {
	NumChunks      int
	PagesPerChunk  int
	TotalPages     int
	FreePages      int
	LiveKeys       int
	ZeroKeySet     bool
	CurrentChunk   int
	PerChunk       []ChunkStats // nil unless Stats(verbose=true) was requested
}

// ChunkStats reports the occupancy of a single chunk.
type ChunkStats struct {
	Index       int
	HighWater   int // bump-allocator high-water mark (chunk.len)
	FreeListLen int
	LiveCount   int
}
