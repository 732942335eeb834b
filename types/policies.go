package types

import (
	"context"

	"golang.org/x/exp/rand"
)

// Policy picks the next action of a trajectory and learns from observed transitions
type Policy interface {
	// NextAction returns ErrNoActionsAvailable when actions is empty
	NextAction(context.Context, State, []Action) (Action, error)
	// Update feeds an observed transition back into the policy
	Update(context.Context, *Transition) error
	// Reset forgets everything learned so far
	Reset()
}

// Exploiter is implemented by learning policies that can act purely greedily.
// The returned policy shares the learned values and never learns
type Exploiter interface {
	Greedy() Policy
}

// RandomPolicy picks actions uniformly at random from a seeded generator
type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return NewRandomPolicyFromSource(rand.NewSource(seed))
}

// NewRandomPolicyFromSource uses the given source, see NewLockedSource to share one
func NewRandomPolicyFromSource(src rand.Source) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(src),
	}
}

func (r *RandomPolicy) Reset() {

}

func (r *RandomPolicy) NextAction(_ context.Context, _ State, actions []Action) (Action, error) {
	if len(actions) == 0 {
		return nil, ErrNoActionsAvailable
	}
	i := r.rand.Intn(len(actions))
	return actions[i], nil
}

func (r *RandomPolicy) Update(_ context.Context, _ *Transition) error {
	return nil
}
