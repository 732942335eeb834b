package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-route-finder/grid"
	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/metrics"
	"github.com/zeu5/rl-route-finder/rediskv"
	"github.com/zeu5/rl-route-finder/sequence"
	"github.com/zeu5/rl-route-finder/server"
	"github.com/zeu5/rl-route-finder/types"
)

// Serve trains a Q-learning policy on the environment and serves it until ctx is done
func Serve(ctx context.Context, env types.Environment) error {
	m := metrics.New()
	ql, err := qLearningPolicy()
	if err != nil {
		return err
	}
	trainer := types.NewTrainer(&types.TrainerConfig{
		Environment: env,
		Policy:      ql,
		WalkLimit:   cfg.Training.WalkLimit,
	})
	trainer.AddObserver(m.Observer("serve"))
	log.With(log.LogParams{
		"epochs":          cfg.Training.Epochs,
		"maximum_actions": cfg.Training.MaximumActions,
	}).Info("training")
	if err := trainer.Run(ctx, cfg.Training.Epochs, cfg.Training.MaximumActions); err != nil {
		return err
	}

	s := server.New(&server.Config{
		Addr:        cfg.ServerAddr,
		Environment: env,
		Policy:      ql,
		MaxSteps:    cfg.Training.MaxSteps,
		Metrics:     m,
	})
	return s.Start(ctx)
}

func ServeCommand() *cobra.Command {
	var envName string
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "serve [ACTION...]",
		Short: "Train a policy and serve routes over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			var env types.Environment
			switch envName {
			case "sequence":
				if len(args) == 0 {
					return fmt.Errorf("the sequence environment needs at least one action")
				}
				env = sequence.NewEnvironment(&sequence.Config{Actions: args, Delay: delay})
			case "grid":
				env = grid.NewGridEnvironment(5, 5, 1, grid.Position{I: 4, J: 4, K: 0})
			case "redis":
				client := rediskv.NewClient(cfg.Redis.Addr, cfg.Redis.DB)
				defer client.Close()
				e, err := rediskv.NewEnvironment(client, rediskv.DefaultScenario().Config(cfg.Redis.Prefix))
				if err != nil {
					return err
				}
				env = e
			default:
				return fmt.Errorf("unknown environment %q", envName)
			}

			ctx, done := interruptContext()
			defer done()
			return Serve(ctx, env)
		},
	}
	cmd.Flags().StringVar(&envName, "env", "sequence", "Environment to serve, one of sequence|grid|redis")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Delay of the sequence environment")
	return cmd
}
