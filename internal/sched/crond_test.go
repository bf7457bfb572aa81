package sched

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

func fakeCrontab(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "crontab")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake crontab: %v", err)
	}
	return path
}

func TestCrondRegister(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	loaded := filepath.Join(dir, "loaded")
	// The fake registration call copies its argument, like crontab(1)
	// installing the user table.
	crontabCmd := fakeCrontab(t, dir, "cp \"$1\" "+loaded+"\n")

	c := &Crond{TablePath: filepath.Join(dir, "table"), CrontabCmd: crontabCmd}
	entries, err := crontab.BuildEntries("0 * * * *", []string{"acct1", "acct2"}, crontab.Command{Job: "/app/job"})
	if err != nil {
		t.Fatalf("BuildEntries: %v", err)
	}
	if err := c.Register(context.Background(), entries); err != nil {
		t.Fatalf("Register: %v", err)
	}

	b, err := os.ReadFile(loaded)
	if err != nil {
		t.Fatalf("registration call never saw the table: %v", err)
	}
	if got := strings.Count(string(b), "\n"); got != 2 {
		t.Fatalf("expected 2 table lines, got %d: %q", got, string(b))
	}
}

func TestCrondRegisterRejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	crontabCmd := fakeCrontab(t, dir, "echo 'bad minute' >&2\nexit 1\n")

	c := &Crond{TablePath: filepath.Join(dir, "table"), CrontabCmd: crontabCmd}
	entries, err := crontab.BuildEntries("bad * * * *", []string{"acct1"}, crontab.Command{Job: "/app/job"})
	if err != nil {
		t.Fatalf("BuildEntries: %v", err)
	}

	err = c.Register(context.Background(), entries)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if !errors.Is(err, errTableRejected) {
		t.Fatalf("expected errTableRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad minute") {
		t.Fatalf("daemon stderr not surfaced: %v", err)
	}

	// The artifact is written atomically: fully present, never partial.
	b, err := os.ReadFile(filepath.Join(dir, "table"))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	if !strings.HasSuffix(string(b), "\n") {
		t.Fatalf("table left partially written: %q", string(b))
	}
}

func TestCrondStartAndStop(t *testing.T) {
	t.Parallel()

	c := &Crond{TablePath: filepath.Join(t.TempDir(), "table"), DaemonCmd: "sleep", DaemonArgs: []string{"60"}}
	h, err := c.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestCrondStartMissingDaemon(t *testing.T) {
	t.Parallel()

	c := &Crond{TablePath: filepath.Join(t.TempDir(), "table"), DaemonCmd: "/nonexistent/daemon"}
	if _, err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected start failure for missing daemon binary")
	}
}
