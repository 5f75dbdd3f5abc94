package forecast

import (
	"errors"
	"fmt"
)

// ErrParse signals that the provider's reply did not contain exactly one
// well-formed forecast object. Fatal for the run; nothing is persisted and
// no repair is attempted.
var ErrParse = errors.New("no valid forecast object in provider response")

// GenerationError wraps a failure inside GenerateForecast with the stage it
// occurred at, so callers can tell a flaky network call from a provider that
// returns garbage.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("forecast generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
