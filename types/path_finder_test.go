package types

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-route-finder/log"
)

func newTestPathFinder(env Environment, policy Policy) *PathFinder {
	return NewPathFinder(&PathFinderConfig{
		Environment: env,
		Policy:      policy,
		Logger:      log.Discard(),
	})
}

func TestFindRouteReachesGoal(t *testing.T) {
	finder := newTestPathFinder(&chainEnv{length: 3}, &forwardPolicy{})
	route, err := finder.FindRoute(context.Background(), chainState(0), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, GoalReached, route.Outcome)
	assert.Equal(t, []string{"forward", "forward", "forward"}, route.Actions())
	assert.Equal(t, "s0", route.Steps[0].State.Hash())
	assert.Equal(t, "s2", route.Steps[2].State.Hash())
}

func TestFindRouteStepLimit(t *testing.T) {
	finder := newTestPathFinder(&chainEnv{length: 3}, &forwardPolicy{})

	route, err := finder.FindRoute(context.Background(), chainState(0), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, StepLimitExceeded, route.Outcome)
	assert.Len(t, route.Steps, 2)

	route, err = finder.FindRoute(context.Background(), chainState(0), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, StepLimitExceeded, route.Outcome)
	assert.Empty(t, route.Steps)
}

func TestFindRouteDeadEnd(t *testing.T) {
	finder := newTestPathFinder(&chainEnv{length: 0}, &forwardPolicy{})
	route, err := finder.FindRoute(context.Background(), chainState(0), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, DeadEnd, route.Outcome)
	assert.Empty(t, route.Steps)
}

func TestFindRouteExplicitGoal(t *testing.T) {
	finder := newTestPathFinder(&chainEnv{length: 5}, &forwardPolicy{})
	route, err := finder.FindRoute(context.Background(), chainState(0), ActionGoal("forward"), 10)
	require.NoError(t, err)
	assert.Equal(t, GoalReached, route.Outcome)
	assert.Len(t, route.Steps, 1)
}

func TestFindRouteConfiguredGoal(t *testing.T) {
	finder := NewPathFinder(&PathFinderConfig{
		Environment: &chainEnv{length: 5},
		Policy:      &forwardPolicy{},
		Goal:        StateGoal(func(s State) bool { return s.Hash() == "s1" }),
		Logger:      log.Discard(),
	})
	route, err := finder.FindRoute(context.Background(), chainState(0), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, GoalReached, route.Outcome)
	assert.Len(t, route.Steps, 2)
}

func TestFindRouteUnavailable(t *testing.T) {
	finder := newTestPathFinder(&chainEnv{length: 3, unavailable: true}, &forwardPolicy{})
	route, err := finder.FindRoute(context.Background(), chainState(0), nil, 10)
	assert.ErrorIs(t, err, ErrEnvironmentUnavailable)
	assert.Equal(t, Failed, route.Outcome)
}

func TestFindRouteSkipsIdleSteps(t *testing.T) {
	env := &waitingEnv{waits: 2}
	finder := newTestPathFinder(env, NewRandomPolicy(1))
	route, err := finder.FindRoute(context.Background(), StringState("start"), nil, 10)
	require.NoError(t, err)
	assert.Equal(t, GoalReached, route.Outcome)
	assert.Equal(t, []string{"go"}, route.Actions())
}

func TestFindRouteAbortedDuringWait(t *testing.T) {
	env := &waitingEnv{waits: 1, wait: time.Hour}
	finder := newTestPathFinder(env, NewRandomPolicy(1))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	route, err := finder.FindRoute(ctx, StringState("start"), nil, 10)
	assert.True(t, IsAborted(err))
	assert.Equal(t, Aborted, route.Outcome)
}

// waitingEnv only offers a wait action until it was executed waits times
type waitingEnv struct {
	waits int
	wait  time.Duration
}

func (w *waitingEnv) InitialState(context.Context) (State, error) {
	return StringState("start"), nil
}

func (w *waitingEnv) PossibleActions(_ context.Context, s State) ([]Action, error) {
	if w.waits > 0 {
		return []Action{NewWaitAction(w.wait, func(context.Context) (State, error) {
			w.waits -= 1
			return StringState("start"), nil
		})}, nil
	}
	return []Action{&namedAction{name: "go"}}, nil
}

func (w *waitingEnv) RewardFunction(ctx context.Context, s State, a Action) (float64, error) {
	return GoalReward(w.HasReachedGoalCondition, SuccessReward, FailureReward)(ctx, s, a)
}

func (w *waitingEnv) HasReachedGoalCondition(_ context.Context, _ State, a Action) (bool, error) {
	return a.Hash() == "go", nil
}

type namedAction struct {
	name string
}

func (n *namedAction) Hash() string   { return n.name }
func (n *namedAction) String() string { return n.name }
func (n *namedAction) Execute(_ context.Context, s State) (State, error) {
	return StringState("done"), nil
}
