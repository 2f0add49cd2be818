package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrSinkUnavailable is returned when an output target cannot be written.
var ErrSinkUnavailable = errors.New("output sink unavailable")

// StdoutPath selects standard output as a target.
const StdoutPath = "-"

// Target is one report destination.
type Target struct {
	Name  string
	Path  string
	Write func(io.Writer) error
}

// ExpandPath substitutes {session} in an output path.
func ExpandPath(pattern, session string) string {
	return strings.ReplaceAll(pattern, "{session}", session)
}

// WriteFile creates path and fills it with write while holding an advisory
// lock on it. A file locked by another writer is reported as unavailable.
func WriteFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
		}
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: lock %s: %w", ErrSinkUnavailable, path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s is locked by another writer", ErrSinkUnavailable, path)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrSinkUnavailable, path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrSinkUnavailable, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrSinkUnavailable, path, err)
	}
	return nil
}

// WriteAll writes every target. A failing target does not stop the others;
// all failures are joined into the returned error.
func WriteAll(targets []Target, stdout io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var errs []error
	for _, t := range targets {
		var err error
		if t.Path == "" || t.Path == StdoutPath {
			err = t.Write(stdout)
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
			}
		} else {
			err = WriteFile(t.Path, t.Write)
		}

		if err != nil {
			logger.Error("report not written", "sink", t.Name, "path", t.Path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		logger.Debug("report written", "sink", t.Name, "path", t.Path)
	}
	return errors.Join(errs...)
}
