package router

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidCommandFormat = errors.New("invalid command format")
	ErrUnknownIntentAction  = errors.New("unknown intent action")
)

// UnknownIntentError is returned for an intent whose action id has no command mapping.
type UnknownIntentError struct {
	ActionID string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("Unknown action: %s", e.ActionID)
}

func (e *UnknownIntentError) Is(target error) bool {
	return target == ErrUnknownIntentAction
}
