package grid

import (
	"context"

	"github.com/zeu5/rl-route-finder/types"
)

// InPosition is satisfied when the movement lands on the given position
func InPosition(target Position) types.GoalCondition {
	return func(_ context.Context, s types.State, a types.Action) (bool, error) {
		pos, ok := s.(Position)
		if !ok {
			return false, nil
		}
		m, ok := a.(*Movement)
		if !ok {
			return false, nil
		}
		return m.grid.Step(pos, m.Direction).Eq(target), nil
	}
}

// InGrid is satisfied when the movement lands anywhere in grid k
func InGrid(k int) types.GoalCondition {
	return func(_ context.Context, s types.State, a types.Action) (bool, error) {
		pos, ok := s.(Position)
		if !ok {
			return false, nil
		}
		m, ok := a.(*Movement)
		if !ok {
			return false, nil
		}
		return m.grid.Step(pos, m.Direction).K == k, nil
	}
}
