package types

import (
	"context"

	"github.com/zeu5/rl-route-finder/log"
)

// traversal is a single policy driven trajectory without learning.
// Shared by Trainer.Walk and PathFinder.FindRoute
type traversal struct {
	env          Environment
	policy       Policy
	goal         GoalCondition
	limit        int
	limitOutcome Outcome
	logger       *log.Logger
}

func (t *traversal) run(ctx context.Context, initial State) (*Route, error) {
	route := newRoute()
	state := initial

	for i := 0; i < t.limit; i++ {
		if ctx.Err() != nil {
			return route.end(Aborted), aborted(ctx)
		}
		actions, err := t.env.PossibleActions(ctx, state)
		if err != nil {
			return t.fail(ctx, route, unavailable(err))
		}
		if len(actions) == 0 {
			return route.end(DeadEnd), nil
		}
		action, err := t.policy.NextAction(ctx, state, actions)
		if err != nil {
			if isDeadEnd(err) {
				return route.end(DeadEnd), nil
			}
			return t.fail(ctx, route, err)
		}

		// the goal is asked with the selected action, before it runs
		reached, err := t.goal(ctx, state, action)
		if err != nil {
			return t.fail(ctx, route, err)
		}
		if reached {
			route.record(state, action)
			return route.end(GoalReached), nil
		}

		next, err := action.Execute(ctx, state)
		if err != nil {
			if isDeadEnd(err) && ctx.Err() == nil {
				t.logger.With(log.LogParams{"action": action.String()}).Debug("stale action, ending route")
				return route.end(DeadEnd), nil
			}
			return t.fail(ctx, route, err)
		}
		route.record(state, action)
		state = next
	}
	return route.end(t.limitOutcome), nil
}

func (t *traversal) fail(ctx context.Context, route *Route, err error) (*Route, error) {
	if ctx.Err() != nil {
		return route.end(Aborted), aborted(ctx)
	}
	return route.end(Failed), err
}
