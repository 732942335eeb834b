package types

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-route-finder/log"
)

func TestMonitorMilestones(t *testing.T) {
	trace := NewTrace()
	trace.Append(chainState(0), &chainAction{}, chainState(0), FailureReward)
	trace.Append(chainState(0), &chainAction{forward: true}, chainState(1), FailureReward)
	trace.Append(chainState(1), &chainAction{}, chainState(1), FailureReward)
	trace.Append(chainState(1), &chainAction{forward: true}, chainState(2), FailureReward)

	prefix, ok := Milestones("forward", "stay").Check(trace)
	require.True(t, ok)
	assert.Equal(t, 3, prefix.Len())

	_, ok = Milestones("forward", "forward", "forward").Check(trace)
	assert.False(t, ok)
}

func TestMonitorBuilder(t *testing.T) {
	m := NewMonitor()
	m.Build().
		On(ActionTaken("forward").And(func(s State, _ Action, _ State) bool { return s.Hash() == "s1" }), "second").
		MarkSuccess()

	trace := NewTrace()
	trace.Append(chainState(0), &chainAction{forward: true}, chainState(1), FailureReward)
	_, ok := m.Check(trace)
	assert.False(t, ok)

	trace.Append(chainState(1), &chainAction{forward: true}, chainState(2), FailureReward)
	prefix, ok := m.Check(trace)
	require.True(t, ok)
	assert.Equal(t, 2, prefix.Len())
}

func TestTracePrefix(t *testing.T) {
	trace := NewTrace()
	trace.Append(chainState(0), &chainAction{forward: true}, chainState(1), 1)
	trace.Append(chainState(1), &chainAction{forward: true}, chainState(2), 2)

	prefix, ok := trace.GetPrefix(1)
	require.True(t, ok)
	assert.Equal(t, 1, prefix.Len())
	assert.Equal(t, 1.0, prefix.TotalReward())

	_, ok = trace.GetPrefix(3)
	assert.False(t, ok)
	_, _, _, ok = trace.Get(5)
	assert.False(t, ok)

	bs, err := json.Marshal(trace)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"state": "s0", "action": "forward", "next_state": "s1", "reward": 1},
		{"state": "s1", "action": "forward", "next_state": "s2", "reward": 2}
	]`, string(bs))
}

func TestComparisonRun(t *testing.T) {
	dir := t.TempDir()
	c, err := NewComparison(&ComparisonConfig{
		Runs:         2,
		Episodes:     5,
		Horizon:      10,
		RecordPath:   dir,
		RecordTraces: true,
		Parallelism:  2,
		Logger:       log.Discard(),
	})
	require.NoError(t, err)

	compared := make([][]DataSet, 0)
	names := make([]string, 0)
	c.AddAnalysis("length", EpisodeLength(), func(run int, s []string, ds []DataSet) {
		names = s
		compared = append(compared, ds)
	})
	c.AddAnalysis("goal_rate", GoalRate(), NoopComparator())
	c.AddExperiment(NewExperiment("forward", &forwardPolicy{}, &chainEnv{length: 3}))
	c.AddExperiment(NewExperiment("random", NewRandomPolicy(1), &chainEnv{length: 3}))

	require.NoError(t, c.Run(context.Background()))
	require.Len(t, compared, 2)
	assert.Equal(t, []string{"forward", "random"}, names)
	for _, ds := range compared {
		forward := ds[0].([]float64)
		assert.Equal(t, []float64{3, 3, 3, 3, 3}, forward)
		assert.Len(t, ds[1].([]float64), 5)
	}

	f, err := os.Open(path.Join(dir, "traces", "forward_0.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rec := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.Equal(t, string(GoalReached), rec["outcome"])
		lines += 1
	}
	assert.Equal(t, 5, lines)

	_, err = os.Stat(path.Join(dir, "comparison_config.json"))
	assert.NoError(t, err)
}

func TestComparisonWithoutExperiments(t *testing.T) {
	c, err := NewComparison(&ComparisonConfig{
		Episodes:   1,
		Horizon:    1,
		RecordPath: t.TempDir(),
		Logger:     log.Discard(),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Run(context.Background()), ErrNoExperiments)
}

func TestGoalRateAnalyzer(t *testing.T) {
	a := GoalRate()()
	a.Analyze(0, "e", &EpisodeResult{Outcome: GoalReached, Trace: NewTrace()})
	a.Analyze(0, "e", &EpisodeResult{Outcome: DeadEnd, Trace: NewTrace()})
	assert.Equal(t, []float64{1, 0.5}, a.DataSet())

	a.Reset()
	a.Analyze(0, "e", &EpisodeResult{Outcome: DeadEnd, Trace: NewTrace()})
	assert.Equal(t, []float64{0}, a.DataSet())
}
