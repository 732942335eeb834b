package types

import "context"

// Environment is the medium the agent acts upon.
// Every method may perform I/O and receives the context of the running trajectory.
type Environment interface {
	// InitialState resets the medium and returns the starting state.
	// Returns ErrEnvironmentUnavailable when the medium cannot be reached
	InitialState(context.Context) (State, error)
	// PossibleActions enumerates the moves available from the state.
	// Implementations should re-derive them from the live medium rather than trusting the input
	PossibleActions(context.Context, State) ([]Action, error)
	// RewardFunction is asked for the selected action before it runs
	RewardFunction(context.Context, State, Action) (float64, error)
	// HasReachedGoalCondition is the native goal test of the environment
	HasReachedGoalCondition(context.Context, State, Action) (bool, error)
}

// State of the environment that policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic and value based
	Hash() string
}

// Action that a policy can take from a state
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
	// Readable identity, used for diagnostics
	String() string
	// Execute performs the move and returns the freshly observed state
	Execute(context.Context, State) (State, error)
}

// Idler is implemented by actions that only let time pass.
// Idle actions are executed and learned over but never recorded as route steps
type Idler interface {
	Idle() bool
}

func isIdle(a Action) bool {
	i, ok := a.(Idler)
	return ok && i.Idle()
}

// Transition observed during one training step
type Transition struct {
	From        State
	Action      Action
	Reward      float64
	To          State
	NextActions []Action
}

// StringState is a state identified by its string representation
type StringState string

var _ State = StringState("")

func (s StringState) Hash() string {
	return string(s)
}

func (s StringState) String() string {
	return string(s)
}
