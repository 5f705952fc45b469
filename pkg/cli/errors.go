package cli

import (
	"errors"
	"fmt"
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// Exit codes returned by the procure command.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitRejected = 3
)

// RejectedError reports a decision that ended without a recommendation.
// It is a normal business outcome, surfaced through the exit code.
type RejectedError struct {
	State  string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("purchase not recommended (%s): %s", e.State, e.Reason)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	var (
		configErr   *ConfigError
		rejectedErr *RejectedError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &rejectedErr):
		return ExitRejected
	default:
		return ExitFailure
	}
}
