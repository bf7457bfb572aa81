package sched

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

// Crond drives the host cron daemon: the table artifact is written
// atomically, loaded via the crontab command (which is where a malformed
// expression gets rejected), and the daemon is started as a background
// child. If this process dies, the daemon's own lifecycle decides whether
// scheduled runs continue.
type Crond struct {
	TablePath  string
	CrontabCmd string   // defaults to "crontab"
	DaemonCmd  string   // defaults to "cron"
	DaemonArgs []string
}

func (c *Crond) Register(ctx context.Context, entries []crontab.Entry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if strings.TrimSpace(c.TablePath) == "" {
		return errNoTablePath
	}
	if err := crontab.WriteTable(c.TablePath, entries); err != nil {
		return err
	}

	crontabCmd := c.CrontabCmd
	if crontabCmd == "" {
		crontabCmd = "crontab"
	}
	cmd := exec.CommandContext(ctx, crontabCmd, c.TablePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			if msg != "" {
				return fmt.Errorf("%w: %s: exit %d: %s", errTableRejected, c.TablePath, ee.ExitCode(), msg)
			}
			return fmt.Errorf("%w: %s: exit %d", errTableRejected, c.TablePath, ee.ExitCode())
		}
		return fmt.Errorf("run %s: %w", crontabCmd, err)
	}
	return nil
}

func (c *Crond) Start(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	daemon := c.DaemonCmd
	if daemon == "" {
		daemon = "cron"
	}
	// Deliberately not CommandContext: the daemon is detached from this
	// process's cancellation and outlives the supervising wait on signal.
	cmd := exec.Command(daemon, c.DaemonArgs...) // #nosec G204 -- operator-supplied daemon command
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", daemon, err)
	}
	// Reap the child if it ever exits so it cannot linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return &crondHandle{proc: cmd.Process}, nil
}

type crondHandle struct {
	proc *os.Process
}

func (h *crondHandle) Stop() error {
	if err := h.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill cron daemon: %w", err)
	}
	return nil
}
