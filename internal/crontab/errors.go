package crontab

import "errors"

var (
	errEmptySchedule = errors.New("schedule expression is empty")
	errNoAccounts    = errors.New("account list is empty")
	errEmptyJob      = errors.New("job command is empty")
	errEmptyAccount  = errors.New("empty account identifier")
)
