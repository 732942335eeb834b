// Package sequence implements a staged environment over a live, mutable medium.
//
// The medium advances one stage every time the expected action is clicked.
// States are re-derived from the medium on every call, so previously observed
// actions can become stale once another action has been executed.
package sequence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeu5/rl-route-finder/types"
)

const defaultWaitStep = 5 * time.Millisecond

type Config struct {
	// Actions that advance the medium, in order
	Actions []string
	// Distractors are offered at every stage and leave the medium unchanged
	Distractors []string
	// Delay after the last action before the medium completes.
	// Once the last action was clicked only a wait action is offered
	Delay time.Duration
	// WaitStep is the duration of the offered wait action
	WaitStep time.Duration
}

// Environment is a staged medium. Safe for concurrent probes
type Environment struct {
	config *Config

	lock        *sync.Mutex
	stage       int
	readyAt     time.Time
	unavailable bool
	clock       func() time.Time
}

var _ types.Environment = &Environment{}

func NewEnvironment(config *Config) *Environment {
	if config.WaitStep <= 0 {
		config.WaitStep = defaultWaitStep
	}
	return &Environment{
		config: config,
		lock:   new(sync.Mutex),
		clock:  time.Now,
	}
}

// Disconnect makes every probe fail with types.ErrEnvironmentUnavailable until Reconnect
func (e *Environment) Disconnect() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.unavailable = true
}

func (e *Environment) Reconnect() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.unavailable = false
}

func (e *Environment) InitialState(ctx context.Context) (types.State, error) {
	e.lock.Lock()
	if e.unavailable {
		e.lock.Unlock()
		return nil, types.ErrEnvironmentUnavailable
	}
	e.stage = 0
	e.readyAt = time.Time{}
	e.lock.Unlock()
	return e.Observe(ctx)
}

// Observe derives the current page from the medium
func (e *Environment) Observe(_ context.Context) (types.State, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.unavailable {
		return nil, types.ErrEnvironmentUnavailable
	}
	return e.page(), nil
}

func (e *Environment) page() *Page {
	p := &Page{
		Stage:   e.stage,
		Visible: make([]string, 0),
		Pending: e.pending(),
	}
	if e.stage < len(e.config.Actions) {
		p.Visible = append(p.Visible, e.config.Actions[e.stage])
		p.Visible = append(p.Visible, e.config.Distractors...)
	}
	return p
}

func (e *Environment) pending() bool {
	return e.stage == len(e.config.Actions) && e.clock().Before(e.readyAt)
}

func (e *Environment) completed() bool {
	return len(e.config.Actions) > 0 && e.stage == len(e.config.Actions) && !e.pending()
}

// Completed reports whether every stage was passed and the delay has elapsed
func (e *Environment) Completed(context.Context) (bool, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.unavailable {
		return false, types.ErrEnvironmentUnavailable
	}
	return e.completed(), nil
}

// PossibleActions ignores the given state and reads the live medium
func (e *Environment) PossibleActions(ctx context.Context, _ types.State) ([]types.Action, error) {
	s, err := e.Observe(ctx)
	if err != nil {
		return nil, err
	}
	page := s.(*Page)
	// nothing to click, either pending or completed: only time can change the page
	if page.Pending || len(page.Visible) == 0 {
		return []types.Action{types.NewWaitAction(e.config.WaitStep, e.Observe)}, nil
	}
	actions := make([]types.Action, len(page.Visible))
	for i, target := range page.Visible {
		actions[i] = &Click{Target: target, env: e}
	}
	return actions, nil
}

func (e *Environment) RewardFunction(ctx context.Context, s types.State, a types.Action) (float64, error) {
	return types.GoalReward(e.HasReachedGoalCondition, types.SuccessReward, types.FailureReward)(ctx, s, a)
}

// HasReachedGoalCondition probes the medium, the arguments are not inspected
func (e *Environment) HasReachedGoalCondition(ctx context.Context, _ types.State, _ types.Action) (bool, error) {
	return e.Completed(ctx)
}

// Reachable is satisfied while the target can be clicked on the live page
func Reachable(e *Environment, target string) types.GoalCondition {
	return func(_ context.Context, _ types.State, _ types.Action) (bool, error) {
		e.lock.Lock()
		defer e.lock.Unlock()
		if e.unavailable {
			return false, types.ErrEnvironmentUnavailable
		}
		return e.page().visible(target), nil
	}
}

// ReachedStage is satisfied once the medium is at least at the given stage
func ReachedStage(e *Environment, stage int) types.GoalCondition {
	return func(_ context.Context, _ types.State, _ types.Action) (bool, error) {
		e.lock.Lock()
		defer e.lock.Unlock()
		if e.unavailable {
			return false, types.ErrEnvironmentUnavailable
		}
		return e.stage >= stage, nil
	}
}

func (e *Environment) click(target string) error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.unavailable {
		return types.ErrEnvironmentUnavailable
	}
	if !e.page().visible(target) {
		return fmt.Errorf("%w: %s is not visible at stage %d", types.ErrStaleObservation, target, e.stage)
	}
	if target == e.config.Actions[e.stage] {
		e.stage += 1
		if e.stage == len(e.config.Actions) {
			e.readyAt = e.clock().Add(e.config.Delay)
		}
	}
	return nil
}

// Page is the observable state of the medium
type Page struct {
	Stage   int
	Visible []string
	Pending bool
}

var _ types.State = &Page{}

func (p *Page) Hash() string {
	visible := append([]string{}, p.Visible...)
	sort.Strings(visible)
	return fmt.Sprintf("stage=%d;pending=%t;visible=%s", p.Stage, p.Pending, strings.Join(visible, ","))
}

func (p *Page) visible(target string) bool {
	for _, v := range p.Visible {
		if v == target {
			return true
		}
	}
	return false
}

// Click on an element of the page
type Click struct {
	Target string
	env    *Environment
}

var _ types.Action = &Click{}

func (c *Click) Hash() string {
	return c.String()
}

func (c *Click) String() string {
	return fmt.Sprintf("click[data-automation-id='%s']", c.Target)
}

func (c *Click) Execute(ctx context.Context, _ types.State) (types.State, error) {
	if err := c.env.click(c.Target); err != nil {
		return nil, err
	}
	return c.env.Observe(ctx)
}
