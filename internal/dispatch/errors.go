package dispatch

import "errors"

var (
	errNoAccounts = errors.New("no accounts configured (set ACCOUNTS or --accounts-file)")
	errNoBackend  = errors.New("no scheduler backend")
	errNoLogPath  = errors.New("no log path configured")
)
