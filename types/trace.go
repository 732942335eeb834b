package types

import "encoding/json"

// Trace of an episode as quadruples (state, action, nextState, reward)
type Trace struct {
	states     []State
	actions    []Action
	nextStates []State
	rewards    []float64
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		nextStates: make([]State, 0),
		rewards:    make([]float64, 0),
	}
}

func (t *Trace) Append(state State, action Action, nextState State, reward float64) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.nextStates = append(t.nextStates, nextState)
	t.rewards = append(t.rewards, reward)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (State, Action, State, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, nil, nil, false
	}
	return t.states[i], t.actions[i], t.nextStates[i], true
}

func (t *Trace) Reward(i int) (float64, bool) {
	if i < 0 || i >= len(t.rewards) {
		return 0, false
	}
	return t.rewards[i], true
}

// TotalReward sums the rewards collected along the trace
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}

func (t *Trace) Last() (State, Action, State, bool) {
	return t.Get(len(t.states) - 1)
}

func (t *Trace) GetPrefix(i int) (*Trace, bool) {
	if i < 0 || i > len(t.states) {
		return nil, false
	}
	return &Trace{
		states:     t.states[0:i],
		actions:    t.actions[0:i],
		nextStates: t.nextStates[0:i],
		rewards:    t.rewards[0:i],
	}, true
}

type traceEntry struct {
	State     string  `json:"state"`
	Action    string  `json:"action"`
	NextState string  `json:"next_state"`
	Reward    float64 `json:"reward"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	entries := make([]traceEntry, t.Len())
	for i := range t.states {
		entries[i] = traceEntry{
			State:     t.states[i].Hash(),
			Action:    t.actions[i].String(),
			NextState: t.nextStates[i].Hash(),
			Reward:    t.rewards[i],
		}
	}
	return json.Marshal(entries)
}

// Step taken along a route: the state and the action executed from it
type Step struct {
	State  State
	Action Action
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"state":  s.State.Hash(),
		"action": s.Action.String(),
	})
}

// Outcome of a trajectory
type Outcome string

const (
	GoalReached       Outcome = "goal_reached"
	DeadEnd           Outcome = "dead_end"
	LimitExceeded     Outcome = "limit_exceeded"
	StepLimitExceeded Outcome = "step_limit_exceeded"
	Aborted           Outcome = "aborted"
	Failed            Outcome = "failed"
)

// Route is the ordered sequence of steps taken by a walk or a path finding run
type Route struct {
	Outcome Outcome `json:"outcome"`
	Steps   []Step  `json:"steps"`
}

func newRoute() *Route {
	return &Route{
		Steps: make([]Step, 0),
	}
}

func (r *Route) record(s State, a Action) {
	if isIdle(a) {
		return
	}
	r.Steps = append(r.Steps, Step{State: s, Action: a})
}

func (r *Route) end(o Outcome) *Route {
	r.Outcome = o
	return r
}

// Actions returns the readable identity of each step's action
func (r *Route) Actions() []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Action.String()
	}
	return out
}
