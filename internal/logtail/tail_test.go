package logtail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", want, buf.String())
}

func TestFollowForwardsAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.log")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, &buf) }()

	waitFor(t, &buf, "first")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open log for append: %v", err)
	}
	if _, err := f.WriteString("second\nthird\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	waitFor(t, &buf, "third")

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Follow did not return after cancellation")
	}
}

func TestFollowMissingFile(t *testing.T) {
	t.Parallel()

	err := Follow(context.Background(), filepath.Join(t.TempDir(), "absent.log"), &syncBuffer{})
	if err == nil {
		t.Fatalf("expected startup failure for missing log file")
	}
}

func TestFollowSurvivesRecreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.log")
	if err := os.WriteFile(path, []byte("before\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf syncBuffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, &buf) }()

	waitFor(t, &buf, "before")

	// Rotate: remove and recreate, as logrotate's create mode would.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove log: %v", err)
	}
	if err := os.WriteFile(path, []byte("after\n"), 0o644); err != nil {
		t.Fatalf("recreate log: %v", err)
	}

	waitFor(t, &buf, "after")

	cancel()
	<-done
}
