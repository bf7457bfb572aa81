// Package runner executes the per-account job once per account, in list
// order, synchronously. The first non-zero exit halts the run: a faulty
// account must surface to the operator, not be papered over by continuing
// with the rest of the list.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

type Options struct {
	// Stdout and Stderr receive the job's output unmodified. Both default
	// to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// All runs the job for each account and stops at the first failure. The
// returned error carries the child's exit code (see Error) so the CLI can
// propagate it as the process exit status.
func All(ctx context.Context, accounts []string, cmd crontab.Command, opts Options) error {
	if len(accounts) == 0 {
		return errNoAccounts
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if err := runOne(ctx, a, cmd, opts); err != nil {
			return err
		}
		log.Printf("run: %s: ok", a)
	}
	return nil
}

func runOne(ctx context.Context, accountID string, cmd crontab.Command, opts Options) error {
	c := exec.CommandContext(ctx, cmd.Job, "-a", accountID) // #nosec G204 -- job path is operator configuration
	c.Dir = cmd.Workdir
	c.Stdout = opts.Stdout
	c.Stderr = opts.Stderr

	if err := c.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &Error{Account: accountID, Code: ee.ExitCode()}
		}
		return fmt.Errorf("run %s -a %s: %w", cmd.Job, accountID, err)
	}
	return nil
}
