package config

import "errors"

var (
	// ErrMissingField marks a required configuration value that was not
	// provided by env, file, or defaults.
	ErrMissingField = errors.New("missing required config field")

	// ErrMissingSecret means the shared monitoring secret is unset. The
	// service refuses to start rather than run an unauthenticated API.
	ErrMissingSecret = errors.New("monitoring secret is not configured")
)
