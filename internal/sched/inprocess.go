package sched

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

// InProcess fires entries from a timer loop inside this process instead of
// the host cron daemon. Useful in containers without a cron binary; the
// table lives in memory only, so nothing survives a restart (a restart
// re-registers anyway). A failed fired run is logged and does not stop the
// loop.
type InProcess struct {
	Shell string // defaults to /bin/sh

	parser cron.Parser
	c      *cron.Cron
}

func NewInProcess() *InProcess {
	return &InProcess{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Register parses every expression before scheduling anything, so a
// malformed expression rejects the whole table and the previous table (if
// any) stays in place.
func (p *InProcess) Register(ctx context.Context, entries []crontab.Entry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	type parsed struct {
		sched   cron.Schedule
		command string
	}
	table := make([]parsed, 0, len(entries))
	for _, e := range entries {
		s, err := p.parser.Parse(e.Expr)
		if err != nil {
			return fmt.Errorf("parse schedule %q: %w", e.Expr, err)
		}
		table = append(table, parsed{sched: s, command: e.Command})
	}

	c := cron.New(cron.WithParser(p.parser))
	for _, t := range table {
		command := t.command
		c.Schedule(t.sched, cron.FuncJob(func() {
			p.fire(command)
		}))
	}
	p.c = c
	return nil
}

func (p *InProcess) Start(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if p.c == nil {
		return nil, errNotRegistered
	}
	p.c.Start()
	return &inProcessHandle{c: p.c}, nil
}

func (p *InProcess) fire(command string) {
	shell := p.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	// The command line carries its own log redirection; stdout/stderr here
	// only matter when the entry was built without a log path.
	cmd := exec.Command(shell, "-c", command) // #nosec G204 -- command synthesized by crontab.BuildEntries
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			log.Printf("scheduled run failed: %v: %s", err, msg)
			return
		}
		log.Printf("scheduled run failed: %v", err)
	}
}

type inProcessHandle struct {
	c *cron.Cron
}

func (h *inProcessHandle) Stop() error {
	<-h.c.Stop().Done()
	return nil
}
