// Package bitset implements a compact, fixed-size bit vector.
//
// pagecache uses one Bitset per chunk as the shadow side-channel that
// remembers the one bit of user data a page's reclaim sentinel borrows
// (see pagecache's package doc for the sentinel-byte protocol).
package bitset

// Bitset is a fixed-size vector of bits backed by a byte slice.
type Bitset struct {
	bits []byte
	n    int
}

// New returns a zeroed Bitset capable of holding n bits.
func New(n int) *Bitset {
	return &Bitset{
		bits: make([]byte, (n+7)/8),
		n:    n,
	}
}

// Len returns the number of addressable bits.
func (b *Bitset) Len() int { return b.n }

// Get returns the bit at idx.
func (b *Bitset) Get(idx int) bool {
	return b.bits[idx/8]&(1<<(uint(idx)%8)) != 0
}

// Set sets the bit at idx to val.
func (b *Bitset) Set(idx int, val bool) {
	mask := byte(1) << (uint(idx) % 8)
	if val {
		b.bits[idx/8] |= mask
	} else {
		b.bits[idx/8] &^= mask
	}
}

// Clear zeroes every bit without reallocating the backing array.
func (b *Bitset) Clear() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}
