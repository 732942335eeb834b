package types

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constGoal(v bool) GoalCondition {
	return func(context.Context, State, Action) (bool, error) {
		return v, nil
	}
}

func TestGoalCombinators(t *testing.T) {
	ctx := context.Background()
	s, a := StringState("s"), &namedAction{name: "a"}
	cases := []struct {
		name string
		goal GoalCondition
		want bool
	}{
		{"and", constGoal(true).And(constGoal(false)), false},
		{"and both", constGoal(true).And(constGoal(true)), true},
		{"or", constGoal(false).Or(constGoal(true)), true},
		{"or neither", constGoal(false).Or(constGoal(false)), false},
		{"not", constGoal(false).Not(), true},
		{"never", Never(), false},
		{"action", ActionGoal("a"), true},
		{"other action", ActionGoal("b"), false},
		{"state", StateGoal(func(s State) bool { return s.Hash() == "s" }), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.goal(ctx, s, a)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestGoalErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	failing := GoalCondition(func(context.Context, State, Action) (bool, error) {
		return false, boom
	})
	_, err := failing.Not()(context.Background(), StringState("s"), nil)
	assert.ErrorIs(t, err, boom)
	_, err = GoalReward(failing, SuccessReward, FailureReward)(context.Background(), StringState("s"), nil)
	assert.ErrorIs(t, err, boom)
}

func TestGoalReward(t *testing.T) {
	reward := GoalReward(ActionGoal("a"), SuccessReward, FailureReward)
	r, err := reward(context.Background(), StringState("s"), &namedAction{name: "a"})
	require.NoError(t, err)
	assert.Equal(t, SuccessReward, r)
	r, err = reward(context.Background(), StringState("s"), &namedAction{name: "b"})
	require.NoError(t, err)
	assert.Equal(t, FailureReward, r)
}
