// Package common provides shared dependency construction for commands.
package common

import (
	"errors"
	"fmt"

	"github.com/AImitSK/skamp-monitoring/internal/config"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

var (
	// errLoggerRequired is returned when CommandDeps.Logger is nil.
	errLoggerRequired = errors.New("logger is required")
	// errConfigRequired is returned when CommandDeps.Config is nil.
	errConfigRequired = errors.New("config is required")
)

// CommandDeps holds common dependencies for commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// NewCommandDeps creates CommandDeps by loading config and creating the
// logger. config.InitializeViper must have been called first.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	deps := &CommandDeps{
		Logger: log,
		Config: cfg,
	}

	if validateErr := deps.validate(); validateErr != nil {
		return nil, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}

// validate ensures all required dependencies are present.
func (d *CommandDeps) validate() error {
	if d.Logger == nil {
		return errLoggerRequired
	}
	if d.Config == nil {
		return errConfigRequired
	}
	return nil
}
