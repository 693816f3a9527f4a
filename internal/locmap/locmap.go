// Package locmap implements the key→page-location index for pagecache.
package locmap

// Loc identifies a page by chunk index and in-chunk page index.
type Loc struct {
	Chunk uint8
	Index uint32
}

// Map is a uint64-keyed index from cache key to page Loc. Key 0 is an
// ordinary key here — Go maps don't confuse a zero key with "absent"
// the way a C array indexed by key would. pagecache still special-
// cases key 0 at a higher level (see its reserved zero-key slot),
// because the *chunk*-level keys[] array it wires Loc against does
// have that ambiguity; Map itself doesn't need to know about it.
type Map struct {
	m map[uint64]Loc
}

// New returns an empty Map.
func New() *Map {
	return &Map{m: make(map[uint64]Loc)}
}

// Get returns the location of key and whether it is present.
func (lm *Map) Get(key uint64) (Loc, bool) {
	loc, ok := lm.m[key]
	return loc, ok
}

// Put records key's location, overwriting any previous one.
func (lm *Map) Put(key uint64, loc Loc) {
	lm.m[key] = loc
}

// Delete removes key's location, if any.
func (lm *Map) Delete(key uint64) {
	delete(lm.m, key)
}

// Len returns the number of entries.
func (lm *Map) Len() int { return len(lm.m) }
