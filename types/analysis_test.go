package types

import (
	"bytes"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-route-finder/log"
)

func chainTrace(forwards ...bool) *Trace {
	trace := NewTrace()
	s := chainState(0)
	for _, f := range forwards {
		next := s
		if f {
			next = s + 1
		}
		trace.Append(s, &chainAction{forward: f}, next, FailureReward)
		s = next
	}
	return trace
}

func TestStateGraph(t *testing.T) {
	a := StateGraphAnalyzer()()
	a.Analyze(0, "chain", &EpisodeResult{Trace: chainTrace(true, false, true)})
	a.Analyze(0, "chain", &EpisodeResult{Trace: chainTrace(true)})

	g := a.DataSet().(*StateGraph)
	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, 3, g.Edges())
	assert.Equal(t, map[string]int{"s0": 2, "s1": 2, "s2": 0}, g.Visits())
	assert.True(t, g.Nodes["s1"].Prev["forward"]["s0"])

	a.Reset()
	assert.Empty(t, a.DataSet().(*StateGraph).Nodes)
}

func TestStateGraphComparator(t *testing.T) {
	dir := t.TempDir()
	a := StateGraphAnalyzer()()
	a.Analyze(0, "chain", &EpisodeResult{Trace: chainTrace(true)})
	StateGraphComparator(dir, log.Discard())(0, []string{"chain"}, []DataSet{a.DataSet()})

	_, err := os.Stat(path.Join(dir, "0_chain_graph.json"))
	assert.NoError(t, err)
}

func TestOccurrenceAnalyzer(t *testing.T) {
	dir := t.TempDir()
	a := OccurrenceAnalyzer(dir, Occurrence{Name: "two", Monitor: Milestones("forward", "forward")})()

	a.Analyze(1, "chain", &EpisodeResult{Episode: 0, Trace: chainTrace(true, false)})
	a.Analyze(1, "chain", &EpisodeResult{Episode: 1, Trace: chainTrace(true, true, false)})
	a.Analyze(1, "chain", &EpisodeResult{Episode: 2, Trace: chainTrace(true, true)})

	assert.Equal(t, map[string]int{"two": 1}, a.DataSet())
	_, err := os.Stat(path.Join(dir, "1_chain_two_1.json"))
	require.NoError(t, err)

	OccurrenceComparator(dir, log.Discard())(1, []string{"chain"}, []DataSet{a.DataSet()})
	_, err = os.Stat(path.Join(dir, "1_occurrences.json"))
	assert.NoError(t, err)

	a.Reset()
	assert.Empty(t, a.DataSet())
}

func TestOccurrenceComparatorReportsWriteFailures(t *testing.T) {
	// a file where the save folder should be
	blocked := path.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte{}, 0644))

	out := new(bytes.Buffer)
	OccurrenceComparator(path.Join(blocked, "occurrences"), log.NewWriterLogger(out))(0, []string{"chain"}, []DataSet{map[string]int{"two": 1}})
	assert.Contains(t, out.String(), "failed to save occurrences")
}
