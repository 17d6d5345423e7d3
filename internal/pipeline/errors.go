package pipeline

import "errors"

var (
	// ErrNotRunning is returned by Submit before Start or after Stop.
	ErrNotRunning = errors.New("pipeline: not running")
	// ErrAlreadyRunning is returned by Start on a running integrator.
	ErrAlreadyRunning = errors.New("pipeline: already running")
	// ErrQueueFull is returned when a submission is dropped on overflow.
	ErrQueueFull = errors.New("pipeline: queue full")
	// ErrDuplicateName is returned when registering a detector or
	// interpreter under a taken name.
	ErrDuplicateName = errors.New("pipeline: duplicate name")
	// ErrNoMatch is returned by ProcessVoiceCommand when no voice
	// command matches the text.
	ErrNoMatch = errors.New("pipeline: no matching voice command")
)
