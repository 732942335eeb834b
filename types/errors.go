package types

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoActionsAvailable is returned by policies when the candidate set is empty.
	// The trajectory ends as a dead end
	ErrNoActionsAvailable = errors.New("no actions available")
	// ErrEnvironmentUnavailable signals that the medium could not be probed
	ErrEnvironmentUnavailable = errors.New("environment unavailable")
	// ErrStaleObservation is returned by Action.Execute when the observed action
	// is no longer valid. The step is treated as a dead end
	ErrStaleObservation = errors.New("stale observation")
	// ErrAborted wraps the context error of a cancelled trajectory
	ErrAborted = errors.New("trajectory aborted")
	// ErrInvalidValue is a programming error: NaN or infinite values reaching the table
	ErrInvalidValue = errors.New("invalid value")
)

func aborted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
}

func unavailable(err error) error {
	if errors.Is(err, ErrEnvironmentUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEnvironmentUnavailable, err)
}

func isDeadEnd(err error) bool {
	return errors.Is(err, ErrNoActionsAvailable) || errors.Is(err, ErrStaleObservation)
}
