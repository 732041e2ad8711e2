package simulation

import (
	"errors"
	"fmt"
)

// Domain errors for the simulation package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, simulation.ErrAlreadyInState) {
//	    // start-while-running or stop-while-stopped: nothing happened
//	}
var (
	// ErrInvalidSettings is returned when a settings update or manual value
	// set is malformed. Nothing is modified when it is returned.
	ErrInvalidSettings = errors.New("simulation: invalid settings")

	// ErrAlreadyInState is the parent of ErrAlreadyRunning and ErrAlreadyStopped.
	// It reports a no-op, not a failure.
	ErrAlreadyInState = errors.New("simulation: already in requested state")

	// ErrAlreadyRunning is returned by Start when the loop is active.
	ErrAlreadyRunning = fmt.Errorf("%w: already running", ErrAlreadyInState)

	// ErrAlreadyStopped is returned by Stop when the loop is not active.
	ErrAlreadyStopped = fmt.Errorf("%w: already stopped", ErrAlreadyInState)

	// ErrNoPublisher is returned by New when Options.Publisher is nil.
	ErrNoPublisher = errors.New("simulation: publisher is required")

	// ErrNoTopic is returned by New when Options.Topic is empty.
	ErrNoTopic = errors.New("simulation: topic is required")
)

// invalidf wraps ErrInvalidSettings with a formatted detail.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}
