// Package tracing provides hooks that observe the events published by the
// levels of a memory hierarchy.
package tracing

import (
	"log"
)

// LogHookBase provides the common logic for hooks that write to a logger.
type LogHookBase struct {
	*log.Logger
}
