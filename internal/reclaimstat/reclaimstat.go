// Package reclaimstat is a small logging shim for the expected-but-
// noteworthy events pagecache and ftcache run into: a page reclaimed
// mid-read, or a write upgrade losing its page to the kernel. Neither
// is an error the caller needs to handle — pagecache already turns
// them into a miss or a fallback to a fresh page — but they are worth a log
// line when someone is tuning chunk counts or capacity.
package reclaimstat

import "log"

// Logger records reclaim-related events. The zero value logs through
// log.Default().
type Logger struct {
	L *log.Logger
}

func (l *Logger) logger() *log.Logger {
	if l == nil || l.L == nil {
		return log.Default()
	}
	return l.L
}

// StaleDuringCopy logs a sentinel-became-zero-mid-read event.
func (l *Logger) StaleDuringCopy(key uint64) {
	l.logger().Printf("pagecache: key %d reclaimed during read, treating as miss", key)
}

// UpgradeLostPage logs a sentinel-became-zero-mid-upgrade event.
func (l *Logger) UpgradeLostPage(key uint64) {
	l.logger().Printf("pagecache: key %d reclaimed during write-upgrade, falling back to alloc", key)
}
