package types

import (
	"context"
	"math"
)

const (
	// SuccessReward is granted for transitions that satisfy the goal
	SuccessReward float64 = 100
	// FailureReward is granted for every other transition
	FailureReward float64 = -1
)

// GoalCondition is a predicate over the (state, action) pair of a step.
// It is asked once the action is selected, before it runs, and may probe the live medium
type GoalCondition func(context.Context, State, Action) (bool, error)

// RewardFunc computes the reward of executing the action from the state
type RewardFunc func(context.Context, State, Action) (float64, error)

// EnvironmentGoal is the native goal test of the environment
func EnvironmentGoal(env Environment) GoalCondition {
	return env.HasReachedGoalCondition
}

// EnvironmentReward is the native reward function of the environment
func EnvironmentReward(env Environment) RewardFunc {
	return env.RewardFunction
}

// ActionGoal is satisfied as soon as an action with the given hash is selected
func ActionGoal(hash string) GoalCondition {
	return func(_ context.Context, _ State, a Action) (bool, error) {
		return a != nil && a.Hash() == hash, nil
	}
}

// StateGoal checks the state the selected action is taken from
func StateGoal(check func(State) bool) GoalCondition {
	return func(_ context.Context, s State, _ Action) (bool, error) {
		return s != nil && check(s), nil
	}
}

// Never is a goal that is never satisfied
func Never() GoalCondition {
	return func(context.Context, State, Action) (bool, error) {
		return false, nil
	}
}

// And operator between GoalCondition's
func (g GoalCondition) And(other GoalCondition) GoalCondition {
	return func(ctx context.Context, s State, a Action) (bool, error) {
		ok, err := g(ctx, s, a)
		if err != nil || !ok {
			return false, err
		}
		return other(ctx, s, a)
	}
}

// Or operator between GoalCondition's
func (g GoalCondition) Or(other GoalCondition) GoalCondition {
	return func(ctx context.Context, s State, a Action) (bool, error) {
		ok, err := g(ctx, s, a)
		if err != nil || ok {
			return ok, err
		}
		return other(ctx, s, a)
	}
}

// Not operator on the GoalCondition
func (g GoalCondition) Not() GoalCondition {
	return func(ctx context.Context, s State, a Action) (bool, error) {
		ok, err := g(ctx, s, a)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// GoalReward builds the canonical shortest-path reward out of a goal:
// success when the goal holds for the (state, action) pair and failure otherwise.
// success must be strictly greater than failure
func GoalReward(goal GoalCondition, success, failure float64) RewardFunc {
	return func(ctx context.Context, s State, a Action) (float64, error) {
		ok, err := goal(ctx, s, a)
		if err != nil {
			return 0, err
		}
		if ok {
			return success, nil
		}
		return failure, nil
	}
}

func validReward(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}
