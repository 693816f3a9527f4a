//go:build linux

package pagecache

import (
	"os"

	"golang.org/x/sys/unix"
)

// AnonMmapper backs each chunk with an anonymous, private mmap region
// instead of a Go-heap slice, so MADV_FREE/MADV_COLD/MADV_DONTNEED
// advisories apply to exactly the chunk's pages and nothing else the
// Go runtime happens to have allocated nearby.
type AnonMmapper struct{}

// NewMmapper returns the platform's default Mmapper.
func NewMmapper() Mmapper { return AnonMmapper{} }

func (AnonMmapper) Map(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, mmapErr("anonymous map", err)
	}
	return b, nil
}

func (AnonMmapper) Unmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return mmapErr("unmap", err)
	}
	return nil
}

// FileMmapper backs each chunk with a MAP_SHARED mapping over a
// scratch file instead of anonymous memory. The scratch file is
// unlinked as soon as it is mapped, so its contents do not outlive the
// process; chunk contents are discarded on Unmap once the last
// mapping of the (already unlinked) backing file goes away.
type FileMmapper struct {
	// Dir is the directory scratch files are created under. Empty
	// means "./tmp", matching the original lazy-reclaim prototype.
	Dir string
}

func (m FileMmapper) Map(size int) ([]byte, error) {
	dir := m.Dir
	if dir == "" {
		dir = defaultScratchDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mmapErr("scratch dir", err)
	}
	name := scratchFileName(dir)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, mmapErr("scratch file", err)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		os.Remove(name)
		return nil, mmapErr("truncate scratch file", err)
	}
	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		os.Remove(name)
		return nil, mmapErr("file-backed map", err)
	}
	// The mapping keeps the pages alive; the directory entry is no
	// longer needed once mmap has a reference to the inode.
	os.Remove(name)
	return b, nil
}

func (m FileMmapper) Unmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return mmapErr("unmap", err)
	}
	return nil
}

// MadvAdvisor issues real madvise(2) calls.
type MadvAdvisor struct{}

// NewAdvisor returns the platform's default Advisor.
func NewAdvisor() Advisor { return MadvAdvisor{} }

func (MadvAdvisor) Advise(b []byte, role AdviseRole) error {
	if len(b) == 0 {
		return nil
	}
	var advice int
	switch role {
	case AdviseLazyFree:
		advice = unix.MADV_FREE
	case AdviseCold:
		advice = unix.MADV_COLD
	case AdviseDontNeed:
		advice = unix.MADV_DONTNEED
	default:
		return nil
	}
	if err := unix.Madvise(b, advice); err != nil {
		return mmapErr("advise", err)
	}
	return nil
}
