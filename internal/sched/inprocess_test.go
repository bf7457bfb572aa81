package sched

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

func TestInProcessRejectsBadExpression(t *testing.T) {
	t.Parallel()

	p := NewInProcess()
	err := p.Register(context.Background(), []crontab.Entry{{Expr: "not-a-schedule", Command: "true"}})
	if err == nil {
		t.Fatalf("expected parse rejection")
	}
}

func TestInProcessStartWithoutRegister(t *testing.T) {
	t.Parallel()

	if _, err := NewInProcess().Start(context.Background()); err == nil {
		t.Fatalf("expected error starting with no table")
	}
}

func TestInProcessRegisterReplacesTable(t *testing.T) {
	t.Parallel()

	p := NewInProcess()
	first := []crontab.Entry{{Expr: "0 * * * *", Command: "echo old"}}
	if err := p.Register(context.Background(), first); err != nil {
		t.Fatalf("Register (1): %v", err)
	}
	second := []crontab.Entry{{Expr: "*/5 * * * *", Command: "echo new"}}
	if err := p.Register(context.Background(), second); err != nil {
		t.Fatalf("Register (2): %v", err)
	}
	if got := len(p.c.Entries()); got != 1 {
		t.Fatalf("expected wholesale replacement (1 entry), got %d", got)
	}
}

func TestInProcessFiresEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mark := filepath.Join(dir, "fired")

	p := NewInProcess()
	entries := []crontab.Entry{{Expr: "@every 100ms", Command: "echo ok >> " + mark}}
	if err := p.Register(context.Background(), entries); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h, err := p.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = h.Stop() }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(mark); err == nil && len(b) > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("entry never fired")
}
