package benchmarks

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/sequence"
	"github.com/zeu5/rl-route-finder/types"
)

// SequenceBenchmark compares a random and a Q-learning policy on a staged medium.
// With a target the goal is to make the target clickable instead of completing the medium
func SequenceBenchmark(ctx context.Context, out io.Writer, actions, distractors []string, delay time.Duration, target string) error {
	newEnv := func() *sequence.Environment {
		return sequence.NewEnvironment(&sequence.Config{
			Actions:     actions,
			Distractors: distractors,
			Delay:       delay,
		})
	}

	c, err := newComparison(2)
	if err != nil {
		return err
	}
	hashes := make([]string, 0, len(actions))
	for _, a := range actions {
		hashes = append(hashes, (&sequence.Click{Target: a}).Hash())
		if a == target {
			break
		}
	}
	milestones := types.Milestones(hashes...)
	c.AddAnalysis("milestones", types.MonitorAnalyzer(milestones),
		types.SeriesPlotter(path.Join(cfg.RecordPath, "plots"), "milestones", "Episodes completing the sequence"))
	occurrences := path.Join(cfg.RecordPath, "occurrences")
	c.AddAnalysis("first_completion", types.OccurrenceAnalyzer(occurrences, types.Occurrence{Name: "sequence", Monitor: milestones}),
		types.OccurrenceComparator(occurrences, log.DefaultLogger))

	ql, err := qLearningPolicy()
	if err != nil {
		return err
	}
	goal := func(env *sequence.Environment) types.GoalCondition {
		if target == "" {
			return nil
		}
		return sequence.Reachable(env, target)
	}
	// every experiment drives its own medium
	rEnv, qEnv := newEnv(), newEnv()
	c.AddExperiment(types.NewExperiment("random", types.NewRandomPolicy(cfg.Seed), rEnv).WithGoal(goal(rEnv)))
	c.AddExperiment(types.NewExperiment("qlearning", ql, qEnv).WithGoal(goal(qEnv)))

	if err := c.Run(ctx); err != nil {
		return err
	}
	return findRoute(ctx, out, qEnv, ql, goal(qEnv))
}

func SequenceCommand() *cobra.Command {
	var distractors []string
	var delay time.Duration
	var target string
	cmd := &cobra.Command{
		Use:   "sequence ACTION [ACTION...]",
		Short: "Learn the order of the actions of a staged medium",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, done := interruptContext()
			defer done()
			stop := startProfiling()
			defer stop()

			return SequenceBenchmark(ctx, cmd.OutOrStdout(), args, distractors, delay, target)
		},
	}
	cmd.Flags().StringSliceVar(&distractors, "distractors", []string{}, "Actions offered at every stage that do not advance the medium")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Delay before the medium completes after the last action")
	cmd.Flags().StringVar(&target, "goal", "", "Stop once this action can be clicked instead of at completion")
	return cmd
}
