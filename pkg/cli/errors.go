package cli

import "fmt"

// ConfigError reports a bad or missing configuration value. Field names
// the offending key in dotted form ("discovery.backend_hostname"); it is
// empty when the whole file failed to load.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError builds a ConfigError for the given field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return "config error in " + e.Field + ": " + e.Message
}

// CommandError wraps a failure from one of the subcommands, tagging it
// with the command name so the top-level error printer can attribute it.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError wraps err as a failure of the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
