package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/util"
	"golang.org/x/sync/errgroup"
)

// Experiment encapsulates the different parameters to configure a trainer and analyze the episodes
type Experiment struct {
	Name        string
	Policy      Policy
	Environment Environment
	// Goal overrides the goal of the environment when set
	Goal GoalCondition
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		Policy:      policy,
		Environment: environment,
	}
}

// WithGoal sets the goal the experiment trains towards
func (e *Experiment) WithGoal(goal GoalCondition) *Experiment {
	e.Goal = goal
	return e
}

// Reset forgets what the policy learned
func (e *Experiment) Reset() {
	e.Policy.Reset()
}

// Recorder is implemented by policies that can persist their learned state
type Recorder interface {
	Record(string) error
}

// Generic Dataset that contains information after processing the episodes
type DataSet interface{}

// Analyzer compresses the information in the episodes to a DataSet
type Analyzer interface {
	// Run, experiment, episode result
	Analyze(int, string, *EpisodeResult)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// AnalyzerConstructor creates one analyzer per experiment so that experiments can run in parallel
type AnalyzerConstructor func() Analyzer

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(_ int, _ []string, _ []DataSet) {}
}

const defaultConsecutiveErrorsAbort = 10

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int // number of runs
	Episodes int // number of episodes
	Horizon  int // maximum actions per episode

	RecordPath string // path to store the results

	// threshold to abort an experiment
	ConsecutiveErrorsAbort int

	// record flags
	RecordTraces bool
	RecordPolicy bool

	// Parallelism bounds the experiments running at once, experiments sharing a live
	// environment must run sequentially
	Parallelism int
	// PrintProgress renders the status of the running experiments on the terminal
	PrintProgress bool

	// Observers are attached to the trainer of every experiment
	Observers []Observer
	Logger    *log.Logger
}

// Comparison contains the different experiments to compare
// The episodes obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]AnalyzerConstructor
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
	logger      *log.Logger
}

// NewComparison creates a comparison instance and prepares the record folders
func NewComparison(config *ComparisonConfig) (*Comparison, error) {
	if config.Runs <= 0 {
		config.Runs = 1
	}
	if config.Parallelism <= 0 {
		config.Parallelism = 1
	}
	if config.ConsecutiveErrorsAbort <= 0 {
		config.ConsecutiveErrorsAbort = defaultConsecutiveErrorsAbort
	}
	logger := config.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}

	folders := []string{config.RecordPath}
	if config.RecordTraces {
		folders = append(folders, path.Join(config.RecordPath, "traces"))
	}
	if config.RecordPolicy {
		folders = append(folders, path.Join(config.RecordPath, "policies"))
	}
	for _, f := range folders {
		if err := os.MkdirAll(f, 0777); err != nil {
			return nil, fmt.Errorf("creating record folder: %w", err)
		}
	}

	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]AnalyzerConstructor),
		comparators: make(map[string]Comparator),
		cConfig:     config,
		logger:      logger,
	}, nil
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer AnalyzerConstructor, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	cfg := c.cConfig
	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["record_traces"] = cfg.RecordTraces
	out["record_policy"] = cfg.RecordPolicy
	out["parallelism"] = cfg.Parallelism

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return util.WriteToFile(path.Join(cfg.RecordPath, "comparison_config.json"), string(bs))
}

// Run the comparison. Every run trains each experiment from scratch, analyzes the
// episodes and hands the datasets to the comparators
func (c *Comparison) Run(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.recordConfig(); err != nil {
		return err
	}

	outputs := make([]*ParallelOutput, len(c.Experiments))
	for i := range outputs {
		outputs[i] = NewParallelOutput()
	}
	if c.cConfig.PrintProgress {
		printer := NewTerminalPrinter(ctx, outputs, time.Second)
		printer.Start()
		defer printer.Stop()
	}

	// one set of analyzers per experiment, reused across runs
	analyzers := make([]map[string]Analyzer, len(c.Experiments))
	for i := range c.Experiments {
		analyzers[i] = make(map[string]Analyzer)
		for name, ctor := range c.analyzers {
			analyzers[i][name] = ctor()
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		c.logger.With(log.LogParams{"run": run + 1}).Info("starting run")
		// the policies and analyzers keep what they saw in the last run
		if run > 0 {
			for i, e := range c.Experiments {
				e.Reset()
				for _, a := range analyzers[i] {
					a.Reset()
				}
			}
		}

		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}
		// guards datasets across the experiment goroutines
		lock := new(sync.Mutex)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cConfig.Parallelism)
		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			i, e := i, e
			names[i] = e.Name
			g.Go(func() error {
				if err := c.runExperiment(gctx, run, e, analyzers[i], outputs[i]); err != nil {
					return fmt.Errorf("experiment %s: %w", e.Name, err)
				}
				lock.Lock()
				defer lock.Unlock()
				for name, a := range analyzers[i] {
					datasets[name][i] = a.DataSet()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for name, comp := range c.comparators {
			comp(run, names, datasets[name])
		}
	}
	return nil
}

func (c *Comparison) runExperiment(ctx context.Context, run int, e *Experiment, analyzers map[string]Analyzer, output *ParallelOutput) error {
	cfg := c.cConfig
	output.SetRunning(true)
	defer output.SetRunning(false)

	tracesFile := path.Join(cfg.RecordPath, "traces", e.Name+"_"+strconv.Itoa(run)+".jsonl")
	stats := make(map[Outcome]int)
	observer := ObserverFunc(func(r *EpisodeResult) {
		stats[r.Outcome] += 1
		for _, a := range analyzers {
			a.Analyze(run, e.Name, r)
		}
		if cfg.RecordTraces {
			if err := recordEpisode(tracesFile, r); err != nil {
				c.logger.With(log.LogParams{"error": err, "experiment": e.Name}).Warn("failed to record trace")
			}
		}
		output.TrySet(fmt.Sprintf("Exp: %s, Run: %d, Eps: %d/%d, Goal: %d, DeadEnd: %d, Limit: %d, Err: %d",
			e.Name, run+1, r.Episode+1, cfg.Episodes, stats[GoalReached], stats[DeadEnd], stats[LimitExceeded], stats[Failed]))
	})

	trainer := NewTrainer(&TrainerConfig{
		Environment: e.Environment,
		Policy:      e.Policy,
		Goal:        e.Goal,
		Observers:   append([]Observer{observer}, cfg.Observers...),
		Logger:      c.logger,
	})

	consecutiveErrors := 0
	for episode := 0; episode < cfg.Episodes; episode++ {
		if ctx.Err() != nil {
			return aborted(ctx)
		}
		result := trainer.RunEpisode(ctx, episode, cfg.Horizon)
		if result.Err == nil {
			consecutiveErrors = 0
			continue
		}
		if IsAborted(result.Err) {
			return result.Err
		}
		consecutiveErrors += 1
		c.logger.With(log.LogParams{
			"experiment": e.Name,
			"episode":    episode,
			"error":      result.Err,
		}).Warn("episode failed")
		if consecutiveErrors >= cfg.ConsecutiveErrorsAbort {
			c.logger.With(log.LogParams{
				"experiment": e.Name,
				"errors":     consecutiveErrors,
			}).Error("aborting experiment")
			break
		}
	}

	c.logger.With(log.LogParams{
		"experiment":   e.Name,
		"run":          run + 1,
		"goal_reached": stats[GoalReached],
		"episodes":     cfg.Episodes,
	}).Info("experiment completed")

	if cfg.RecordPolicy {
		if r, ok := e.Policy.(Recorder); ok {
			policyFile := path.Join(cfg.RecordPath, "policies", e.Name+"_"+strconv.Itoa(run)+".json")
			if err := r.Record(policyFile); err != nil {
				return fmt.Errorf("recording policy: %w", err)
			}
		}
	}
	return nil
}

type episodeRecord struct {
	Episode int    `json:"episode"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
	Trace   *Trace `json:"trace"`
}

func recordEpisode(file string, r *EpisodeResult) error {
	rec := episodeRecord{
		Episode: r.Episode,
		Outcome: string(r.Outcome),
		Trace:   r.Trace,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	bs, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return util.AppendToFile(file, string(bs))
}

// ErrNoExperiments is returned when a comparison is run without experiments
var ErrNoExperiments = errors.New("no experiments to compare")

// Validate checks the comparison can run
func (c *Comparison) Validate() error {
	if len(c.Experiments) == 0 {
		return ErrNoExperiments
	}
	if c.cConfig.Episodes <= 0 || c.cConfig.Horizon <= 0 {
		return fmt.Errorf("%w: episodes and horizon must be positive", ErrInvalidValue)
	}
	return nil
}
