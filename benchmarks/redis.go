package benchmarks

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-route-finder/rediskv"
	"github.com/zeu5/rl-route-finder/types"
)

func RedisBenchmark(ctx context.Context, out io.Writer, scenario *rediskv.Scenario) error {
	client := rediskv.NewClient(cfg.Redis.Addr, cfg.Redis.DB)
	defer client.Close()

	env, err := rediskv.NewEnvironment(client, scenario.Config(cfg.Redis.Prefix))
	if err != nil {
		return err
	}

	// both experiments drive the same keyspace
	c, err := newComparison(1)
	if err != nil {
		return err
	}
	ql, err := qLearningPolicy()
	if err != nil {
		return err
	}
	c.AddExperiment(types.NewExperiment("random", types.NewRandomPolicy(cfg.Seed), env))
	c.AddExperiment(types.NewExperiment("qlearning", ql, env))

	if err := c.Run(ctx); err != nil {
		return err
	}
	return findRoute(ctx, out, env, ql, nil)
}

func RedisCommand() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "redis",
		Short: "Learn a sequence of commands that reaches a goal key in a Redis keyspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := rediskv.DefaultScenario()
			if scenarioPath != "" {
				parsed, err := rediskv.ParseScenario(scenarioPath)
				if err != nil {
					return err
				}
				scenario = parsed
			}

			ctx, done := interruptContext()
			defer done()
			stop := startProfiling()
			defer stop()

			return RedisBenchmark(ctx, cmd.OutOrStdout(), scenario)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML file with the seed, commands and goal of the keyspace")
	return cmd
}
