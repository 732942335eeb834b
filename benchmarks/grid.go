package benchmarks

import (
	"context"
	"io"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-route-finder/grid"
	"github.com/zeu5/rl-route-finder/types"
)

func GridBenchmark(ctx context.Context, out io.Writer, height, width, grids int) error {
	doors := make([]grid.Door, 0)
	// from the middle of each grid to the start of the next one
	for k := 0; k < grids-1; k++ {
		doors = append(doors, grid.Door{
			From: grid.Position{I: height / 2, J: width / 2, K: k},
			To:   grid.Position{I: 0, J: 0, K: k + 1},
		})
	}
	target := grid.Position{I: height - 1, J: width - 1, K: grids - 1}
	env := grid.NewGridEnvironment(height, width, grids, target, doors...)

	c, err := newComparison(2)
	if err != nil {
		return err
	}
	c.AddAnalysis("visits", grid.VisitsAnalyzer(env), grid.GridPlotComparator(path.Join(cfg.RecordPath, "visits")))

	ql, err := qLearningPolicy()
	if err != nil {
		return err
	}
	// the grid holds no live state, experiments can share it
	c.AddExperiment(types.NewExperiment("random", types.NewRandomPolicy(cfg.Seed), env))
	c.AddExperiment(types.NewExperiment("qlearning", ql, env))

	if err := c.Run(ctx); err != nil {
		return err
	}
	return findRoute(ctx, out, env, ql, nil)
}

func GridCommand() *cobra.Command {
	var height int
	var width int
	var grids int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Learn a route to the far corner of a stack of grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, done := interruptContext()
			defer done()
			stop := startProfiling()
			defer stop()

			return GridBenchmark(ctx, cmd.OutOrStdout(), height, width, grids)
		},
	}
	cmd.PersistentFlags().IntVar(&height, "height", 5, "Height of each grid")
	cmd.PersistentFlags().IntVar(&width, "width", 5, "Width of each grid")
	cmd.PersistentFlags().IntVar(&grids, "grids", 2, "Number of grids")
	return cmd
}
