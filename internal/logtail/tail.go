// Package logtail implements the supervising wait: a follow of the shared
// log file that forwards appended bytes as they arrive. It blocks until the
// context is cancelled; under normal operation that only happens when the
// process is terminated from outside.
package logtail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// fallbackInterval guards against filesystems (or bind mounts) that drop
// notify events: the file is re-checked at this interval regardless.
const fallbackInterval = 2 * time.Second

var errWatcherClosed = errors.New("log watcher closed")

// Follow streams the file at path to out, starting from the beginning and
// continuing as the file grows. The file must already exist; the dispatcher
// primes it before calling. Rotation (recreate) and truncation restart the
// read from the top of the new content. Returns the context error on
// cancellation, otherwise only on a read or watch failure.
func Follow(ctx context.Context, path string, out io.Writer) error {
	path = filepath.Clean(path)

	f, err := os.Open(path) // #nosec G304 -- log path is operator configuration
	if err != nil {
		return fmt.Errorf("open log: %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	events, errs, closeWatch, err := watch(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("watch log dir: %s: %w", filepath.Dir(path), err)
	}
	defer closeWatch()

	ticker := time.NewTicker(fallbackInterval)
	defer ticker.Stop()

	var offset int64
	for {
		n, err := io.Copy(out, f)
		offset += n
		if err != nil {
			return fmt.Errorf("read log: %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errWatcherClosed
			}
			if filepath.Clean(ev.name) != path {
				continue
			}
			if ev.recreated {
				nf, err := reopen(path)
				if err != nil {
					return err
				}
				_ = f.Close()
				f, offset = nf, 0
			}
		case err, ok := <-errs:
			if !ok {
				return errWatcherClosed
			}
			return fmt.Errorf("watch log: %s: %w", path, err)
		case <-ticker.C:
		}

		// A shrinking file means truncation in place; restart from the top.
		if fi, err := f.Stat(); err == nil && fi.Size() < offset {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek log: %s: %w", path, err)
			}
			offset = 0
		}
	}
}

func reopen(path string) (*os.File, error) {
	// The file can flicker out of existence during rotation; give the
	// writer a moment before treating it as fatal.
	var lastErr error
	for i := 0; i < 10; i++ {
		f, err := os.Open(path) // #nosec G304 -- log path is operator configuration
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reopen log: %s: %w", path, err)
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	return nil, fmt.Errorf("reopen log: %s: %w", path, lastErr)
}
