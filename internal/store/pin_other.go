//go:build !linux

package store

// Memory locking is only implemented on Linux. Elsewhere pinning degrades to
// touching every page up front.
func pin(entries []Entry, _ []cursor) error {
	touch(entries)
	return nil
}

func unpin([]Entry, []cursor) error { return nil }

func prefault(entries []Entry) {
	touch(entries)
}
