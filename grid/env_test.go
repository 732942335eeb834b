package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/types"
)

func TestStep(t *testing.T) {
	g := NewGridEnvironment(3, 3, 2, Position{I: 2, J: 2, K: 1},
		Door{From: Position{I: 1, J: 1, K: 0}, To: Position{I: 0, J: 0, K: 1}})
	g.Walls = append(g.Walls, Position{I: 0, J: 2, K: 0})

	cases := []struct {
		name      string
		from      Position
		direction string
		want      Position
	}{
		{"up", Position{0, 0, 0}, Up, Position{1, 0, 0}},
		{"down at border", Position{0, 0, 0}, Down, Position{0, 0, 0}},
		{"right", Position{0, 0, 0}, Right, Position{0, 1, 0}},
		{"up at border", Position{2, 1, 0}, Up, Position{2, 1, 0}},
		{"wall", Position{0, 1, 0}, Right, Position{0, 1, 0}},
		{"door", Position{1, 1, 0}, Next, Position{0, 0, 1}},
		{"next at corner", Position{2, 2, 0}, Next, Position{0, 0, 1}},
		{"next elsewhere", Position{2, 1, 0}, Next, Position{2, 1, 0}},
		{"nothing", Position{1, 0, 0}, Nothing, Position{1, 0, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, g.Step(c.from, c.direction))
		})
	}
}

func TestPossibleActions(t *testing.T) {
	g := NewGridEnvironment(3, 3, 1, Position{I: 2, J: 2, K: 0})
	ctx := context.Background()

	actions, err := g.PossibleActions(ctx, Position{0, 0, 0})
	require.NoError(t, err)
	assert.Len(t, actions, 4)

	actions, err = g.PossibleActions(ctx, Position{1, 1, 0})
	require.NoError(t, err)
	assert.Len(t, actions, len(AllDirections))

	actions, err = g.PossibleActions(ctx, Position{2, 2, 0})
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestGoalOnTheMovement(t *testing.T) {
	g := NewGridEnvironment(3, 3, 1, Position{I: 2, J: 2, K: 0})
	ctx := context.Background()

	ok, err := g.HasReachedGoalCondition(ctx, Position{2, 1, 0}, &Movement{Direction: Right, grid: g})
	require.NoError(t, err)
	assert.True(t, ok)

	reward, err := g.RewardFunction(ctx, Position{2, 1, 0}, &Movement{Direction: Left, grid: g})
	require.NoError(t, err)
	assert.Equal(t, types.FailureReward, reward)

	ok, err = InGrid(0)(ctx, Position{0, 0, 0}, &Movement{Direction: Up, grid: g})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWalkReachesTarget(t *testing.T) {
	g := NewGridEnvironment(2, 2, 1, Position{I: 1, J: 1, K: 0})
	trainer := types.NewTrainer(&types.TrainerConfig{
		Environment: g,
		Policy:      types.NewRandomPolicy(4),
		WalkLimit:   1000,
		Logger:      log.Discard(),
	})
	ctx := context.Background()
	initial, err := g.InitialState(ctx)
	require.NoError(t, err)
	route, err := trainer.Walk(ctx, initial, nil)
	require.NoError(t, err)
	assert.Equal(t, types.GoalReached, route.Outcome)
}

func TestVisitsAnalyzer(t *testing.T) {
	g := NewGridEnvironment(2, 2, 1, Position{I: 1, J: 1, K: 0})
	a := VisitsAnalyzer(g)()
	trace := types.NewTrace()
	trace.Append(Position{0, 0, 0}, &Movement{Direction: Up, grid: g}, Position{1, 0, 0}, -1)
	trace.Append(Position{1, 0, 0}, &Movement{Direction: Down, grid: g}, Position{0, 0, 0}, -1)
	trace.Append(Position{0, 0, 0}, &Movement{Direction: Up, grid: g}, Position{1, 0, 0}, -1)
	a.Analyze(0, "test", &types.EpisodeResult{Trace: trace})

	ds := a.DataSet().(*GridDataSet)
	assert.Equal(t, 2, ds.Visits[1][0])
	assert.Equal(t, 1, ds.Visits[0][0])
	assert.Equal(t, 2.0, ds.Max())
	c, r := ds.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)

	a.Reset()
	assert.Empty(t, a.DataSet().(*GridDataSet).Visits)
}
