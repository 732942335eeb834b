package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/policies"
	"github.com/zeu5/rl-route-finder/types"
)

func qLearningPolicy() (*policies.QLearningPolicy, error) {
	return policies.NewQLearningPolicy(&policies.QLearningConfig{
		LearningRate: cfg.QLearning.LearningRate,
		Discount:     cfg.QLearning.Discount,
		Epsilon:      cfg.QLearning.Epsilon,
		Seed:         cfg.QLearning.Seed,
	})
}

// newComparison configures a comparison with the analyses shared by every benchmark
func newComparison(parallelism int) (*types.Comparison, error) {
	c, err := types.NewComparison(&types.ComparisonConfig{
		Runs:          cfg.Training.Runs,
		Episodes:      cfg.Training.Epochs,
		Horizon:       cfg.Training.MaximumActions,
		RecordPath:    cfg.RecordPath,
		RecordTraces:  true,
		RecordPolicy:  true,
		Parallelism:   parallelism,
		PrintProgress: true,
	})
	if err != nil {
		return nil, err
	}
	plots := path.Join(cfg.RecordPath, "plots")
	c.AddAnalysis("episode_length", types.EpisodeLength(), types.Comparators(
		types.SeriesPlotter(plots, "episode_length", "Actions"),
		types.SummaryComparator("episode_length", log.DefaultLogger),
	))
	c.AddAnalysis("goal_rate", types.GoalRate(), types.SeriesPlotter(plots, "goal_rate", "Goal rate"))
	c.AddAnalysis("reward", types.EpisodeReward(), types.SeriesPlotter(plots, "reward", "Reward"))
	c.AddAnalysis("coverage", types.PureCoverage(), types.SeriesPlotter(plots, "coverage", "States covered"))
	c.AddAnalysis("state_graph", types.StateGraphAnalyzer(), types.StateGraphComparator(path.Join(cfg.RecordPath, "graphs"), log.DefaultLogger))
	return c, nil
}

// findRoute follows the trained policy greedily and prints the route
func findRoute(ctx context.Context, out io.Writer, env types.Environment, policy types.Policy, goal types.GoalCondition) error {
	initial, err := env.InitialState(ctx)
	if err != nil {
		return err
	}
	finder := types.NewPathFinder(&types.PathFinderConfig{
		Environment: env,
		Policy:      policy,
	})
	route, err := finder.FindRoute(ctx, initial, goal, cfg.Training.MaxSteps)
	if err != nil {
		return err
	}
	return printRoute(out, route)
}

func printRoute(out io.Writer, route *types.Route) error {
	bs, err := json.MarshalIndent(route, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(bs))
	return err
}
