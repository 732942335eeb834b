package types

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeu5/rl-route-finder/log"
)

// DefaultWalkLimit bounds a walk when the configuration does not
const DefaultWalkLimit = 100

type TrainerConfig struct {
	Environment Environment
	Policy      Policy
	// Goal overrides the goal test of the environment when set
	Goal GoalCondition
	// Reward overrides the reward function of the environment when set
	Reward RewardFunc
	// WalkLimit is the internal safety bound of Walk
	WalkLimit int
	Observers []Observer
	Logger    *log.Logger
}

// EpisodeResult summarizes one training episode
type EpisodeResult struct {
	Episode  int
	Outcome  Outcome
	Trace    *Trace
	Duration time.Duration
	Err      error
}

// Observer is notified at the end of every training episode
type Observer interface {
	ObserveEpisode(*EpisodeResult)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(*EpisodeResult)

func (o ObserverFunc) ObserveEpisode(r *EpisodeResult) {
	o(r)
}

// Trainer runs exploratory episodes to populate the learned state of a policy
type Trainer struct {
	config      *TrainerConfig
	policy      Policy
	environment Environment
	goal        GoalCondition
	reward      RewardFunc
	observers   []Observer
	logger      *log.Logger
}

// Instantiates a new Trainer
func NewTrainer(config *TrainerConfig) *Trainer {
	t := &Trainer{
		config:      config,
		policy:      config.Policy,
		environment: config.Environment,
		goal:        config.Goal,
		reward:      config.Reward,
		observers:   append([]Observer{}, config.Observers...),
		logger:      config.Logger,
	}
	if t.goal == nil {
		t.goal = EnvironmentGoal(t.environment)
	}
	if t.reward == nil {
		t.reward = EnvironmentReward(t.environment)
	}
	if t.logger == nil {
		t.logger = log.DefaultLogger
	}
	return t
}

func (t *Trainer) Policy() Policy {
	return t.policy
}

func (t *Trainer) Environment() Environment {
	return t.environment
}

// AddObserver registers an observer of the training episodes
func (t *Trainer) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

// Run the trainer for the specified number of episodes, each bounded by maximumActions.
// Dead ends only end the current episode, cancellation and environment failures stop the run
func (t *Trainer) Run(ctx context.Context, epochs, maximumActions int) error {
	for i := 0; i < epochs; i++ {
		if ctx.Err() != nil {
			return aborted(ctx)
		}
		result := t.RunEpisode(ctx, i, maximumActions)
		if result.Err != nil {
			return fmt.Errorf("episode %d: %w", i, result.Err)
		}
	}
	return nil
}

// RunEpisode runs a single training episode and notifies the observers
func (t *Trainer) RunEpisode(ctx context.Context, episode, maximumActions int) *EpisodeResult {
	start := time.Now()
	result := t.runEpisode(ctx, episode, maximumActions)
	result.Duration = time.Since(start)

	t.logger.With(log.LogParams{
		"episode": episode,
		"outcome": string(result.Outcome),
		"steps":   result.Trace.Len(),
	}).Debug("episode ended")

	for _, o := range t.observers {
		o.ObserveEpisode(result)
	}
	return result
}

func (t *Trainer) runEpisode(ctx context.Context, episode, maximumActions int) *EpisodeResult {
	result := &EpisodeResult{
		Episode: episode,
		Trace:   NewTrace(),
	}
	end := func(o Outcome, err error) *EpisodeResult {
		if err != nil && ctx.Err() != nil {
			o, err = Aborted, aborted(ctx)
		}
		result.Outcome = o
		result.Err = err
		return result
	}

	state, err := t.environment.InitialState(ctx)
	if err != nil {
		return end(Failed, unavailable(err))
	}
	actions, err := t.environment.PossibleActions(ctx, state)
	if err != nil {
		return end(Failed, unavailable(err))
	}

	for i := 0; i < maximumActions; i++ {
		if ctx.Err() != nil {
			return end(Aborted, aborted(ctx))
		}
		if len(actions) == 0 {
			return end(DeadEnd, nil)
		}
		action, err := t.policy.NextAction(ctx, state, actions)
		if err != nil {
			if isDeadEnd(err) {
				return end(DeadEnd, nil)
			}
			return end(Failed, err)
		}
		// goal and reward are probed together with the selected action, before it runs
		reached, err := t.goal(ctx, state, action)
		if err != nil {
			return end(Failed, err)
		}
		reward, err := t.reward(ctx, state, action)
		if err != nil {
			return end(Failed, err)
		}
		if !validReward(reward) {
			return end(Failed, fmt.Errorf("%w: reward %v for action %s", ErrInvalidValue, reward, action))
		}

		nextState, err := action.Execute(ctx, state)
		if err != nil {
			if isDeadEnd(err) && ctx.Err() == nil {
				return end(DeadEnd, nil)
			}
			return end(Failed, err)
		}
		// a goal step is terminal, its successor has no value
		var nextActions []Action
		if !reached {
			nextActions, err = t.environment.PossibleActions(ctx, nextState)
			if err != nil {
				return end(Failed, unavailable(err))
			}
		}
		// no partial learning for an interrupted step
		if ctx.Err() != nil {
			return end(Aborted, aborted(ctx))
		}
		err = t.policy.Update(ctx, &Transition{
			From:        state,
			Action:      action,
			Reward:      reward,
			To:          nextState,
			NextActions: nextActions,
		})
		if err != nil {
			return end(Failed, err)
		}
		result.Trace.Append(state, action, nextState, reward)
		if reached {
			return end(GoalReached, nil)
		}
		state = nextState
		actions = nextActions
	}
	return end(LimitExceeded, nil)
}

// Walk performs a single exploratory traversal from initialState using the trainer's policy.
// No learning takes place. A nil goal falls back to the goal of the trainer
func (t *Trainer) Walk(ctx context.Context, initialState State, goal GoalCondition) (*Route, error) {
	if goal == nil {
		goal = t.goal
	}
	limit := t.config.WalkLimit
	if limit <= 0 {
		limit = DefaultWalkLimit
	}
	tr := &traversal{
		env:          t.environment,
		policy:       t.policy,
		goal:         goal,
		limit:        limit,
		limitOutcome: LimitExceeded,
		logger:       t.logger,
	}
	route, err := tr.run(ctx, initialState)
	t.logger.With(log.LogParams{
		"outcome": string(route.Outcome),
		"steps":   len(route.Steps),
	}).Debug("walk ended")
	return route, err
}

// IsAborted reports whether the error stems from a cancelled trajectory
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}
