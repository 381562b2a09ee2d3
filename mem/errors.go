package mem

import "fmt"

// A ConfigError reports a malformed hierarchy geometry or topology. It is
// raised at construction time and is never recoverable.
type ConfigError struct {
	Component string
	Reason    string
}

// NewConfigError creates a ConfigError with a formatted reason.
func NewConfigError(component, format string, args ...any) *ConfigError {
	return &ConfigError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// An InvariantViolation reports a corrupted level state. It always
// indicates a bug in the simulator.
type InvariantViolation struct {
	Level  string
	Set    int
	Way    int
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated in %s (set %d, way %d): %s",
		e.Level, e.Set, e.Way, e.Reason)
}
