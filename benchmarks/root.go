package benchmarks

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/rl-route-finder/config"
	"github.com/zeu5/rl-route-finder/log"
)

var (
	episodes   int
	horizon    int
	saveFile   string
	runs       int
	logLevel   string
	cpuprofile string
	memprofile string

	// loaded by the root command before any subcommand runs
	cfg *config.Config
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:               "route-finder",
		Short:             "Learn routes through live environments with tabular reinforcement learning",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			log.Destroy()
		},
	}
	rootCommand.PersistentFlags().StringVarP(&config.ConfigPath, "config", "c", "", "Config file path")
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 100, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 50, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "", "Overrides the log level of the config")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a cpu profile to the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a memory profile to the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(SequenceCommand())
	rootCommand.AddCommand(GridCommand())
	rootCommand.AddCommand(RedisCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

// loadConfig reads the config file and lets the explicit flags take precedence
func loadConfig(cmd *cobra.Command, _ []string) error {
	c := config.Default()
	if config.ConfigPath != "" {
		parsed, err := config.ParseConfig(config.ConfigPath)
		if err != nil {
			return err
		}
		c = parsed
	}

	flags := cmd.Flags()
	if flags.Changed("episodes") {
		c.Training.Epochs = episodes
	}
	if flags.Changed("horizon") {
		c.Training.MaximumActions = horizon
	}
	if flags.Changed("runs") {
		c.Training.Runs = runs
	}
	if flags.Changed("save") {
		c.RecordPath = saveFile
	}
	if logLevel != "" {
		c.LogConfig.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}

	log.Init(c.LogConfig)
	cfg = c
	return nil
}

// interruptContext is cancelled on an interrupt or when done is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			log.Info("interrupted, stopping")
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
