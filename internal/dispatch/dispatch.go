// Package dispatch is the control flow of tenantcron: pick a mode from the
// presence of a schedule expression, then either run the job once per
// account or hand the whole account list to a scheduler backend and
// supervise its log.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivallesp/tenantcron/internal/crontab"
	"github.com/ivallesp/tenantcron/internal/logtail"
	"github.com/ivallesp/tenantcron/internal/runner"
	"github.com/ivallesp/tenantcron/internal/sched"
)

type Options struct {
	Accounts []string
	Schedule string
	Command  crontab.Command
	Backend  sched.Backend

	// Stdout receives forwarded job/log output; defaults to os.Stdout.
	Stdout io.Writer
	Stderr io.Writer

	// Follow overrides the supervising wait; tests substitute a bounded
	// fake. Defaults to logtail.Follow.
	Follow func(ctx context.Context, path string, out io.Writer) error
}

// Run selects the mode. An empty schedule expression runs every account
// once, sequentially; anything else schedules them and never returns until
// the process is terminated.
func Run(ctx context.Context, opts Options) error {
	if len(opts.Accounts) == 0 {
		return errNoAccounts
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	if strings.TrimSpace(opts.Schedule) == "" {
		return runner.All(ctx, opts.Accounts, opts.Command, runner.Options{Stdout: opts.Stdout, Stderr: opts.Stderr})
	}
	return runScheduled(ctx, opts)
}

// runScheduled is a one-way sequence: build all entries, register the table
// wholesale, prime the log sink, start the daemon, supervise. A failure at
// any step is fatal; completed steps are not rolled back because a re-run
// re-registers the table wholesale anyway.
func runScheduled(ctx context.Context, opts Options) error {
	if opts.Backend == nil {
		return errNoBackend
	}
	if strings.TrimSpace(opts.Command.LogPath) == "" {
		return errNoLogPath
	}

	entries, err := crontab.BuildEntries(opts.Schedule, opts.Accounts, opts.Command)
	if err != nil {
		return fmt.Errorf("build entries: %w", err)
	}
	if err := opts.Backend.Register(ctx, entries); err != nil {
		return fmt.Errorf("register table: %w", err)
	}

	// The sink must exist before the supervising read attaches: the first
	// scheduled run may be a long way off.
	if err := primeSink(opts.Command.LogPath); err != nil {
		return fmt.Errorf("prime log sink: %w", err)
	}

	if _, err := opts.Backend.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	log.Printf("scheduled %d account(s): %s", len(entries), opts.Schedule)

	follow := opts.Follow
	if follow == nil {
		follow = logtail.Follow
	}
	if err := follow(ctx, opts.Command.LogPath, opts.Stdout); err != nil {
		return fmt.Errorf("supervise log: %w", err)
	}
	return nil
}

func primeSink(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir log dir: %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644) // #nosec G302,G304 -- shared log, operator path
	if err != nil {
		return fmt.Errorf("create log: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log: %s: %w", path, err)
	}
	return nil
}
