package model

import "time"

// Shared defaults used by both the server and CLI binaries.
const (
	DefaultMaxHistory    = 100
	DefaultTimerInterval = 30 * time.Second
	DefaultRemoteTimeout = 30 * time.Second
	DefaultWSPath        = "/"

	// Dashboard polling.
	DefaultUpdateInterval = 2 * time.Second
)
