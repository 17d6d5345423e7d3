package profile

import "errors"

var (
	// ErrUnknownRule is returned by mutators for a name not in the
	// rule set.
	ErrUnknownRule = errors.New("profile: unknown rule")
	// ErrUnknownVoiceCommand is returned by mutators for a trigger not
	// in the voice set.
	ErrUnknownVoiceCommand = errors.New("profile: unknown voice command")
)
