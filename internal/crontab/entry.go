package crontab

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command describes how one account's job is invoked by the scheduler or the
// immediate runner. The paths are fixed for the process lifetime; only the
// account identifier varies between entries.
type Command struct {
	Job     string
	Workdir string
	LogPath string
}

// Line renders the shell command for one account. Everything except the
// literal shell operators is quoted, so an identifier (or path) containing
// whitespace cannot split into extra arguments.
func (c Command) Line(accountID string) string {
	run := shellquote.Join(c.Job, "-a", accountID)
	if c.LogPath != "" {
		run += " >> " + shellquote.Join(c.LogPath) + " 2>&1"
	}
	if c.Workdir != "" {
		run = "cd " + shellquote.Join(c.Workdir) + " && " + run
	}
	return run
}

// Entry is one crontab line: a schedule expression plus the shell command it
// triggers. The expression is opaque here; only the scheduler backend gets
// to accept or reject it.
type Entry struct {
	Expr    string
	Command string
}

func (e Entry) String() string {
	return e.Expr + " " + e.Command
}

// BuildEntries synthesizes one entry per account, in list order, all bound
// to the same schedule expression. The full set is built before anything is
// registered; a failure here leaves no partial state behind.
func BuildEntries(expr string, accounts []string, cmd Command) ([]Entry, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errEmptySchedule
	}
	if len(accounts) == 0 {
		return nil, errNoAccounts
	}
	if strings.TrimSpace(cmd.Job) == "" {
		return nil, errEmptyJob
	}
	entries := make([]Entry, 0, len(accounts))
	for _, a := range accounts {
		if strings.TrimSpace(a) == "" {
			return nil, fmt.Errorf("%w: %q", errEmptyAccount, a)
		}
		entries = append(entries, Entry{Expr: expr, Command: cmd.Line(a)})
	}
	return entries, nil
}
