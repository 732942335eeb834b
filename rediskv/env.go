// Package rediskv exposes a Redis keyspace as an environment.
//
// A state is the snapshot of the keys under a prefix. Actions are configured
// commands, each offered only while its preconditions hold on the live keyspace.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/rl-route-finder/types"
)

const (
	OpSet  = "SET"
	OpDel  = "DEL"
	OpIncr = "INCR"
)

var (
	ErrUnknownOp = errors.New("unknown command")

	errPrecondition = errors.New("precondition does not hold")
)

// Command is an action template over the keyspace.
// Keys are relative to the prefix of the environment
type Command struct {
	Name  string `yaml:"name"`
	Op    string `yaml:"op"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	// Requires maps keys to the value they must hold, the empty string requires the key to be absent
	Requires map[string]string `yaml:"requires"`
}

func (c *Command) validate() error {
	switch strings.ToUpper(c.Op) {
	case OpSet, OpDel, OpIncr:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOp, c.Op)
	}
	if c.Key == "" {
		return fmt.Errorf("command %s has no key", c.Name)
	}
	return nil
}

type Config struct {
	// Prefix of the keys owned by the environment
	Prefix   string
	Commands []Command
	// Seed is written to the keyspace on every InitialState
	Seed map[string]string
	// GoalKey and GoalValue define the goal of the environment
	GoalKey   string
	GoalValue string
	// Hidden keys are readable by preconditions but left out of the state
	Hidden []string
}

// Environment over the keys under Config.Prefix
type Environment struct {
	client *redis.Client
	config *Config
}

var _ types.Environment = &Environment{}

// NewEnvironment validates the commands, the client is not contacted
func NewEnvironment(client *redis.Client, config *Config) (*Environment, error) {
	for i := range config.Commands {
		if err := config.Commands[i].validate(); err != nil {
			return nil, err
		}
	}
	return &Environment{
		client: client,
		config: config,
	}, nil
}

// NewClient creates a client with short timeouts so that a lost server surfaces quickly
func NewClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func (e *Environment) key(k string) string {
	return e.config.Prefix + k
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", types.ErrEnvironmentUnavailable, err)
}

// InitialState clears the keyspace of the environment and writes the seed
func (e *Environment) InitialState(ctx context.Context) (types.State, error) {
	if err := e.client.Ping(ctx).Err(); err != nil {
		return nil, unavailable(err)
	}
	keys, err := e.keys(ctx)
	if err != nil {
		return nil, err
	}
	_, err = e.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		for k, v := range e.config.Seed {
			pipe.Set(ctx, e.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return e.Observe(ctx)
}

func (e *Environment) keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	iter := e.client.Scan(ctx, 0, e.config.Prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

// Observe reads the snapshot of the keyspace
func (e *Environment) Observe(ctx context.Context) (types.State, error) {
	keys, err := e.keys(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{Values: make(map[string]string, len(keys)), hidden: e.hidden()}
	if len(keys) == 0 {
		return snapshot, nil
	}
	values, err := e.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	for i, k := range keys {
		// keys deleted between SCAN and MGET are nil
		if v, ok := values[i].(string); ok {
			snapshot.Values[strings.TrimPrefix(k, e.config.Prefix)] = v
		}
	}
	return snapshot, nil
}

func (e *Environment) hidden() map[string]bool {
	if len(e.config.Hidden) == 0 {
		return nil
	}
	out := make(map[string]bool, len(e.config.Hidden))
	for _, k := range e.config.Hidden {
		out[k] = true
	}
	return out
}

// PossibleActions ignores the given state and reads the live keyspace
func (e *Environment) PossibleActions(ctx context.Context, _ types.State) ([]types.Action, error) {
	s, err := e.Observe(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := s.(*Snapshot)
	actions := make([]types.Action, 0)
	for i := range e.config.Commands {
		c := &e.config.Commands[i]
		if snapshot.satisfies(c.Requires) {
			actions = append(actions, &CommandAction{Command: c, env: e})
		}
	}
	return actions, nil
}

func (e *Environment) RewardFunction(ctx context.Context, s types.State, a types.Action) (float64, error) {
	return types.GoalReward(e.HasReachedGoalCondition, types.SuccessReward, types.FailureReward)(ctx, s, a)
}

// HasReachedGoalCondition probes the goal key, an environment without goal key never terminates
func (e *Environment) HasReachedGoalCondition(ctx context.Context, s types.State, a types.Action) (bool, error) {
	if e.config.GoalKey == "" {
		return false, nil
	}
	return KeyEquals(e, e.config.GoalKey, e.config.GoalValue)(ctx, s, a)
}

// valueAfter reads the value the key will hold once the action ran.
// The second result is false when the key will be absent
func (e *Environment) valueAfter(ctx context.Context, key string, a types.Action) (string, bool, error) {
	v, err := e.client.Get(ctx, e.key(key)).Result()
	exists := true
	if err == redis.Nil {
		v, exists = "", false
	} else if err != nil {
		return "", false, unavailable(err)
	}

	c, ok := a.(*CommandAction)
	if !ok || c.Command.Key != key {
		return v, exists, nil
	}
	switch strings.ToUpper(c.Command.Op) {
	case OpSet:
		return c.Command.Value, true, nil
	case OpDel:
		return "", false, nil
	case OpIncr:
		n := int64(0)
		if exists {
			if n, err = strconv.ParseInt(v, 10, 64); err != nil {
				// the INCR fails and leaves the value as is
				return v, exists, nil
			}
		}
		return strconv.FormatInt(n+1, 10), true, nil
	}
	return v, exists, nil
}

// KeyEquals is satisfied when the key holds the value once the selected action ran
func KeyEquals(e *Environment, key, value string) types.GoalCondition {
	return func(ctx context.Context, _ types.State, a types.Action) (bool, error) {
		v, exists, err := e.valueAfter(ctx, key, a)
		if err != nil {
			return false, err
		}
		if !exists {
			return value == "", nil
		}
		return v == value, nil
	}
}

// KeyAtLeast is satisfied when the key holds an integer not smaller than n once the selected action ran
func KeyAtLeast(e *Environment, key string, n int64) types.GoalCondition {
	return func(ctx context.Context, _ types.State, a types.Action) (bool, error) {
		v, exists, err := e.valueAfter(ctx, key, a)
		if err != nil || !exists {
			return false, err
		}
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, nil
		}
		return i >= n, nil
	}
}

func (e *Environment) execute(ctx context.Context, c *Command) error {
	watched := make([]string, 0, len(c.Requires))
	for k := range c.Requires {
		watched = append(watched, e.key(k))
	}
	err := e.client.Watch(ctx, func(tx *redis.Tx) error {
		for k, want := range c.Requires {
			got, err := tx.Get(ctx, e.key(k)).Result()
			if err == redis.Nil {
				got = ""
			} else if err != nil {
				return err
			}
			if got != want {
				return fmt.Errorf("%w: %s is %q", errPrecondition, k, got)
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			switch strings.ToUpper(c.Op) {
			case OpSet:
				pipe.Set(ctx, e.key(c.Key), c.Value, 0)
			case OpDel:
				pipe.Del(ctx, e.key(c.Key))
			case OpIncr:
				pipe.Incr(ctx, e.key(c.Key))
			}
			return nil
		})
		return err
	}, watched...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPrecondition), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: %s: %w", types.ErrStaleObservation, c.Name, err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		// INCR of a non integer value is a command error, not a lost server
		var redisErr redis.Error
		if errors.As(err, &redisErr) {
			return fmt.Errorf("%w: %s: %w", types.ErrStaleObservation, c.Name, err)
		}
		return unavailable(err)
	}
}

// Snapshot of the keyspace, keys are relative to the prefix
type Snapshot struct {
	Values map[string]string

	hidden map[string]bool
}

var _ types.State = &Snapshot{}

// Hash of the visible keys
func (s *Snapshot) Hash() string {
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		if !s.hidden[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Values[k]
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (s *Snapshot) satisfies(requires map[string]string) bool {
	for k, want := range requires {
		if s.Values[k] != want {
			return false
		}
	}
	return true
}

// CommandAction executes a command against the keyspace
type CommandAction struct {
	Command *Command
	env     *Environment
}

var _ types.Action = &CommandAction{}

func (c *CommandAction) Hash() string {
	return c.Command.Name
}

func (c *CommandAction) String() string {
	op := strings.ToUpper(c.Command.Op)
	if op == OpSet {
		return fmt.Sprintf("%s %s %s", op, c.Command.Key, c.Command.Value)
	}
	return fmt.Sprintf("%s %s", op, c.Command.Key)
}

func (c *CommandAction) Execute(ctx context.Context, _ types.State) (types.State, error) {
	if err := c.env.execute(ctx, c.Command); err != nil {
		return nil, err
	}
	return c.env.Observe(ctx)
}
