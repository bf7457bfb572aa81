package runner

import (
	"errors"
	"fmt"
)

var errNoAccounts = errors.New("account list is empty")

// Error is a per-account job failure. Code is the child's exit status and
// becomes the process exit status in immediate mode.
type Error struct {
	Account string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("job for account %s: exit %d", e.Account, e.Code)
}

func (e *Error) ExitCode() int { return e.Code }
