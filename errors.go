package recode

import "errors"

// Sentinel errors for the three failure kinds a rewrite can end in.
var (
	// ErrInvalidConfiguration indicates an unknown provider name, a missing or
	// malformed credential, or out-of-range generation parameters. It is
	// returned at construction time only.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBackend indicates that every attempt against the provider failed.
	ErrBackend = errors.New("backend error")

	// ErrCallerContract indicates an empty instruction or empty source code.
	ErrCallerContract = errors.New("caller contract violation")
)
