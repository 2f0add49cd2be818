//go:build linux

package store

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func pin(entries []Entry, cursors []cursor) error {
	if err := unix.Mlock(entryBytes(entries)); err != nil {
		return fmt.Errorf("mlock entries: %w", err)
	}
	if err := unix.Mlock(cursorBytes(cursors)); err != nil {
		_ = unix.Munlock(entryBytes(entries))
		return fmt.Errorf("mlock cursors: %w", err)
	}
	return nil
}

func unpin(entries []Entry, cursors []cursor) error {
	err := unix.Munlock(entryBytes(entries))
	if cerr := unix.Munlock(cursorBytes(cursors)); err == nil {
		err = cerr
	}
	return err
}

// prefault touches the pages of an unpinned session.
func prefault(entries []Entry) {
	touch(entries)
}

func entryBytes(entries []Entry) []byte {
	if len(entries) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])), len(entries)*int(unsafe.Sizeof(Entry{})))
}

func cursorBytes(cursors []cursor) []byte {
	if len(cursors) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&cursors[0])), len(cursors)*int(unsafe.Sizeof(cursor{})))
}
