package watcher

import "errors"

var (
	ErrNotDirectory = errors.New("spool path is not a directory")
	ErrNoSender     = errors.New("sender callback is required")
)
