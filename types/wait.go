package types

import (
	"context"
	"fmt"
	"time"
)

// WaitAction lets time pass when the medium offers nothing to act upon.
// Environments return it from PossibleActions while a delayed change is pending
type WaitAction struct {
	Duration time.Duration
	// Observe re-derives the state once the wait is over
	Observe func(context.Context) (State, error)
}

var _ Action = &WaitAction{}
var _ Idler = &WaitAction{}

func NewWaitAction(d time.Duration, observe func(context.Context) (State, error)) *WaitAction {
	return &WaitAction{
		Duration: d,
		Observe:  observe,
	}
}

func (w *WaitAction) Hash() string {
	return "wait"
}

func (w *WaitAction) String() string {
	return fmt.Sprintf("wait(%s)", w.Duration)
}

func (w *WaitAction) Idle() bool {
	return true
}

func (w *WaitAction) Execute(ctx context.Context, s State) (State, error) {
	timer := time.NewTimer(w.Duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	if w.Observe == nil {
		return s, nil
	}
	return w.Observe(ctx)
}
