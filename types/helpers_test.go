package types

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// chainEnv is a line of states s0..sn, at every state the forward action
// moves one step and the stay action does nothing. Reaching sn is the goal
type chainEnv struct {
	length      int
	unavailable bool
	// deadAt offers no actions at this state when positive
	deadAt int
}

var _ Environment = &chainEnv{}

type chainState int

func (c chainState) Hash() string {
	return fmt.Sprintf("s%d", int(c))
}

type chainAction struct {
	forward bool
	stale   bool
}

func (a *chainAction) Hash() string {
	if a.forward {
		return "forward"
	}
	return "stay"
}

func (a *chainAction) String() string {
	return a.Hash()
}

func (a *chainAction) Execute(_ context.Context, s State) (State, error) {
	if a.stale {
		return nil, ErrStaleObservation
	}
	if a.forward {
		return s.(chainState) + 1, nil
	}
	return s, nil
}

func (c *chainEnv) InitialState(context.Context) (State, error) {
	if c.unavailable {
		return nil, errors.New("connection refused")
	}
	return chainState(0), nil
}

func (c *chainEnv) PossibleActions(_ context.Context, s State) ([]Action, error) {
	if c.unavailable {
		return nil, errors.New("connection refused")
	}
	cs := s.(chainState)
	if int(cs) >= c.length || (c.deadAt > 0 && int(cs) == c.deadAt) {
		return []Action{}, nil
	}
	return []Action{&chainAction{forward: true}, &chainAction{}}, nil
}

func (c *chainEnv) RewardFunction(ctx context.Context, s State, a Action) (float64, error) {
	return GoalReward(c.HasReachedGoalCondition, SuccessReward, FailureReward)(ctx, s, a)
}

func (c *chainEnv) HasReachedGoalCondition(_ context.Context, s State, a Action) (bool, error) {
	ca, ok := a.(*chainAction)
	return ok && ca.forward && int(s.(chainState))+1 == c.length, nil
}

// forwardPolicy always picks the forward action
type forwardPolicy struct {
	updates int
}

func (f *forwardPolicy) NextAction(_ context.Context, _ State, actions []Action) (Action, error) {
	for _, a := range actions {
		if a.Hash() == "forward" {
			return a, nil
		}
	}
	if len(actions) == 0 {
		return nil, ErrNoActionsAvailable
	}
	return actions[0], nil
}

func (f *forwardPolicy) Update(context.Context, *Transition) error {
	f.updates += 1
	return nil
}

func (f *forwardPolicy) Reset() {
	f.updates = 0
}

func nan() float64 {
	return math.NaN()
}
