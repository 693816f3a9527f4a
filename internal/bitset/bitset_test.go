package bitset

import "testing"

func TestBitset_SetGetRoundTrip(t *testing.T) {
	b := New(100)
	for i := 0; i < 100; i++ {
		if b.Get(i) {
			t.Fatalf("bit %d expected clear on a fresh bitset", i)
		}
	}
	b.Set(0, true)
	b.Set(63, true)
	b.Set(64, true)
	b.Set(99, true)
	for _, idx := range []int{0, 63, 64, 99} {
		if !b.Get(idx) {
			t.Fatalf("bit %d expected set", idx)
		}
	}
	b.Set(63, false)
	if b.Get(63) {
		t.Fatal("bit 63 expected clear after unset")
	}
	if !b.Get(64) {
		t.Fatal("bit 64 should be untouched by clearing bit 63")
	}
}

func TestBitset_Clear(t *testing.T) {
	b := New(16)
	for i := 0; i < 16; i++ {
		b.Set(i, true)
	}
	b.Clear()
	for i := 0; i < 16; i++ {
		if b.Get(i) {
			t.Fatalf("bit %d expected clear after Clear()", i)
		}
	}
}
