package grid

import (
	"context"
	"fmt"

	"github.com/zeu5/rl-route-finder/types"
)

// GridEnvironment is a stack of grids connected through doors.
// Transitions are a pure function of the position, the environment holds no live state
type GridEnvironment struct {
	Height int
	Width  int
	Grids  int
	Doors  []Door
	Target Position
	// Walls are positions that cannot be entered
	Walls []Position
}

type Door struct {
	From Position
	To   Position
}

var _ types.Environment = &GridEnvironment{}

func NewGridEnvironment(height, width, grids int, target Position, doors ...Door) *GridEnvironment {
	return &GridEnvironment{
		Height: height,
		Width:  width,
		Grids:  grids,
		Doors:  doors,
		Target: target,
		Walls:  make([]Position, 0),
	}
}

func (g *GridEnvironment) InitialState(_ context.Context) (types.State, error) {
	return Position{0, 0, 0}, nil
}

func (g *GridEnvironment) PossibleActions(_ context.Context, s types.State) ([]types.Action, error) {
	p, ok := s.(Position)
	if !ok {
		return nil, fmt.Errorf("unexpected state %T", s)
	}
	if p.Eq(g.Target) {
		return []types.Action{}, nil
	}
	var directions []string
	switch {
	case p.I == 0 && p.J == 0:
		directions = []string{Nothing, Next, Up, Right}
	case p.I == 0:
		directions = []string{Nothing, Next, Up, Right, Left}
	case p.J == 0:
		directions = []string{Nothing, Next, Up, Right, Down}
	default:
		directions = AllDirections
	}
	actions := make([]types.Action, len(directions))
	for i, d := range directions {
		actions[i] = &Movement{Direction: d, grid: g}
	}
	return actions, nil
}

func (g *GridEnvironment) RewardFunction(ctx context.Context, s types.State, a types.Action) (float64, error) {
	return types.GoalReward(g.HasReachedGoalCondition, types.SuccessReward, types.FailureReward)(ctx, s, a)
}

// HasReachedGoalCondition checks whether moving from the state lands on the target
func (g *GridEnvironment) HasReachedGoalCondition(ctx context.Context, s types.State, a types.Action) (bool, error) {
	return InPosition(g.Target)(ctx, s, a)
}

func (g *GridEnvironment) isWall(p Position) bool {
	for _, w := range g.Walls {
		if w.Eq(p) {
			return true
		}
	}
	return false
}

// Step computes the position reached by moving in direction from cur
func (g *GridEnvironment) Step(cur Position, direction string) Position {
	newPos := Position{I: cur.I, J: cur.J, K: cur.K}
	if direction == Next {
		for _, d := range g.Doors {
			if d.From.Eq(cur) {
				return d.To
			}
		}
	}

	switch direction {
	case Nothing:
	case Up:
		newPos.I = min(g.Height-1, cur.I+1)
	case Down:
		newPos.I = max(0, cur.I-1)
	case Left:
		newPos.J = max(0, cur.J-1)
	case Right:
		newPos.J = min(g.Width-1, cur.J+1)
	case Next:
		if cur.I == g.Height-1 && cur.J == g.Width-1 && cur.K < g.Grids-1 {
			newPos.I = 0
			newPos.J = 0
			newPos.K = cur.K + 1
		}
	}
	if g.isWall(newPos) {
		return cur
	}
	return newPos
}

type Position struct {
	I int
	J int
	K int
}

var _ types.State = Position{}

func (p Position) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p Position) Eq(other Position) bool {
	return p == other
}

const (
	Up      = "Up"
	Down    = "Down"
	Left    = "Left"
	Right   = "Right"
	Nothing = "Nothing"
	Next    = "Next"
)

var AllDirections = []string{Up, Down, Left, Right, Nothing, Next}

type Movement struct {
	Direction string
	grid      *GridEnvironment
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

func (m *Movement) String() string {
	return m.Direction
}

func (m *Movement) Execute(_ context.Context, s types.State) (types.State, error) {
	p, ok := s.(Position)
	if !ok {
		return nil, fmt.Errorf("unexpected state %T", s)
	}
	return m.grid.Step(p, m.Direction), nil
}
