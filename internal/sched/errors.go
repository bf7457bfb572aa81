package sched

import "errors"

var (
	errNoTablePath   = errors.New("table path is empty")
	errTableRejected = errors.New("crontab rejected table")
	errNotRegistered = errors.New("no table registered")
)
