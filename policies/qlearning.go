package policies

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/zeu5/rl-route-finder/types"
	"golang.org/x/exp/rand"
)

var (
	ErrInvalidLearningRate = errors.New("learning rate must be in (0, 1]")
	ErrInvalidDiscount     = errors.New("discount must be in [0, 1]")
	ErrInvalidEpsilon      = errors.New("epsilon must be in [0, 1]")
)

type QLearningConfig struct {
	LearningRate float64
	Discount     float64
	Epsilon      float64
	Seed         uint64
	// Source replaces the seeded source when set, see types.NewLockedSource
	Source rand.Source
	// Table shares an existing table instead of creating one
	Table *QTable
}

// DefaultQLearningConfig returns the parameters used by the CLI
func DefaultQLearningConfig(seed uint64) *QLearningConfig {
	return &QLearningConfig{
		LearningRate: 0.5,
		Discount:     0.9,
		Epsilon:      0.1,
		Seed:         seed,
	}
}

func (c *QLearningConfig) validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return ErrInvalidLearningRate
	}
	if c.Discount < 0 || c.Discount > 1 {
		return ErrInvalidDiscount
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return ErrInvalidEpsilon
	}
	return nil
}

// QLearningPolicy is an epsilon-greedy policy over a QTable updated with
// the temporal difference rule
type QLearningPolicy struct {
	qTable  *QTable
	alpha   float64
	gamma   float64
	epsilon float64
	rand    *rand.Rand
	// greedy views never explore and never learn
	greedy bool
}

var _ types.Policy = &QLearningPolicy{}
var _ types.Exploiter = &QLearningPolicy{}

func NewQLearningPolicy(config *QLearningConfig) (*QLearningPolicy, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	src := config.Source
	if src == nil {
		src = rand.NewSource(config.Seed)
	}
	table := config.Table
	if table == nil {
		table = NewQTable()
	}
	return &QLearningPolicy{
		qTable:  table,
		alpha:   config.LearningRate,
		gamma:   config.Discount,
		epsilon: config.Epsilon,
		rand:    rand.New(src),
	}, nil
}

func (q *QLearningPolicy) Table() *QTable {
	return q.qTable
}

func (q *QLearningPolicy) Epsilon() float64 {
	if q.greedy {
		return 0
	}
	return q.epsilon
}

// Greedy returns a view of the policy that shares the table, never explores and never learns
func (q *QLearningPolicy) Greedy() types.Policy {
	return &QLearningPolicy{
		qTable:  q.qTable,
		alpha:   q.alpha,
		gamma:   q.gamma,
		epsilon: 0,
		rand:    q.rand,
		greedy:  true,
	}
}

func (q *QLearningPolicy) Reset() {
	q.qTable.Reset()
}

func (q *QLearningPolicy) NextAction(_ context.Context, state types.State, actions []types.Action) (types.Action, error) {
	if len(actions) == 0 {
		return nil, types.ErrNoActionsAvailable
	}
	if !q.greedy && q.epsilon > 0 && q.rand.Float64() < q.epsilon {
		i := q.rand.Intn(len(actions))
		return actions[i], nil
	}
	maxAction, _ := q.qTable.MaxAmong(state.Hash(), hashes(actions), 0)
	return actions[maxAction], nil
}

func (q *QLearningPolicy) Update(_ context.Context, t *types.Transition) error {
	if q.greedy {
		return nil
	}
	if math.IsNaN(t.Reward) || math.IsInf(t.Reward, 0) {
		return fmt.Errorf("%w: reward %v", types.ErrInvalidValue, t.Reward)
	}
	nextStateVal := 0.0
	// terminal states have no value
	if len(t.NextActions) > 0 {
		_, nextStateVal = q.qTable.MaxAmong(t.To.Hash(), hashes(t.NextActions), 0)
	}
	newVal := q.qTable.Apply(t.From.Hash(), t.Action.Hash(), 0, func(curVal float64) float64 {
		return curVal + q.alpha*(t.Reward+q.gamma*nextStateVal-curVal)
	})
	if math.IsNaN(newVal) || math.IsInf(newVal, 0) {
		return fmt.Errorf("%w: q-value %v for %s", types.ErrInvalidValue, newVal, t.Action)
	}
	return nil
}

func hashes(actions []types.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Hash()
	}
	return out
}

// Record writes the learned values to path as json
func (q *QLearningPolicy) Record(path string) error {
	return q.qTable.Record(path)
}
