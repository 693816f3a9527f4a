//go:build !linux

package pagecache

// heapMmapper backs each chunk with a plain Go-heap slice. Non-Linux
// builds have no portable lazy-reclaim advisory, so the "overcommit"
// behavior degenerates to an ordinary fixed-size cache: chunks are
// only ever freed by explicit eviction, never by the kernel.
type heapMmapper struct{}

// NewMmapper returns the platform's default Mmapper.
func NewMmapper() Mmapper { return heapMmapper{} }

func (heapMmapper) Map(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapMmapper) Unmap([]byte) error { return nil }

// NewAdvisor returns the platform's default Advisor: a no-op, since
// this platform has no madvise-equivalent lazy-reclaim hint.
func NewAdvisor() Advisor { return NoopAdvisor() }
