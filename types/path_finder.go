package types

import (
	"context"

	"github.com/zeu5/rl-route-finder/log"
)

type PathFinderConfig struct {
	Environment Environment
	Policy      Policy
	// Explore keeps the exploration of the policy during path finding.
	// By default policies implementing Exploiter are followed greedily
	Explore bool
	// Goal overrides the goal of the environment when FindRoute is given none
	Goal   GoalCondition
	Logger *log.Logger
}

// PathFinder follows an already trained policy from an initial state to a goal
type PathFinder struct {
	environment Environment
	policy      Policy
	goal        GoalCondition
	logger      *log.Logger
}

func NewPathFinder(config *PathFinderConfig) *PathFinder {
	policy := config.Policy
	if e, ok := policy.(Exploiter); ok && !config.Explore {
		policy = e.Greedy()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &PathFinder{
		environment: config.Environment,
		policy:      policy,
		goal:        config.Goal,
		logger:      logger,
	}
}

// FindRoute returns the literal trajectory of the policy from initialState,
// bounded by maxSteps. A nil goal falls back to the configured one, then to the environment's goal
func (p *PathFinder) FindRoute(ctx context.Context, initialState State, goal GoalCondition, maxSteps int) (*Route, error) {
	if goal == nil {
		goal = p.goal
	}
	if goal == nil {
		goal = EnvironmentGoal(p.environment)
	}
	tr := &traversal{
		env:          p.environment,
		policy:       p.policy,
		goal:         goal,
		limit:        maxSteps,
		limitOutcome: StepLimitExceeded,
		logger:       p.logger,
	}
	route, err := tr.run(ctx, initialState)
	p.logger.With(log.LogParams{
		"outcome":   string(route.Outcome),
		"steps":     len(route.Steps),
		"max_steps": maxSteps,
	}).Info("route search ended")
	return route, err
}
