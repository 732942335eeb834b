package types

import (
	"encoding/json"
	"path"
	"strconv"

	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/util"
)

// StateGraph is the graph of states discovered while training.
// Edges are labelled with action hashes
type StateGraph struct {
	Nodes map[string]*Node `json:"nodes"`
}

func NewStateGraph() *StateGraph {
	return &StateGraph{
		Nodes: make(map[string]*Node),
	}
}

// Update adds the transition and returns true when from was not seen before
func (g *StateGraph) Update(from State, action Action, to State) bool {
	fromKey := from.Hash()
	toKey := to.Hash()
	seen := true
	if _, ok := g.Nodes[fromKey]; !ok {
		g.Nodes[fromKey] = newNode(fromKey)
		seen = false
	}
	if _, ok := g.Nodes[toKey]; !ok {
		g.Nodes[toKey] = newNode(toKey)
	}
	g.Nodes[fromKey].Visits += 1
	g.Nodes[fromKey].Next.add(action.Hash(), toKey)
	g.Nodes[toKey].Prev.add(action.Hash(), fromKey)
	return !seen
}

// Visits per state hash
func (g *StateGraph) Visits() map[string]int {
	out := make(map[string]int)
	for k, n := range g.Nodes {
		out[k] = n.Visits
	}
	return out
}

// Edges counts the distinct (from, action, to) transitions
func (g *StateGraph) Edges() int {
	count := 0
	for _, n := range g.Nodes {
		for _, next := range n.Next {
			count += len(next)
		}
	}
	return count
}

type edges map[string]map[string]bool

func (e edges) add(action, state string) {
	if _, ok := e[action]; !ok {
		e[action] = make(map[string]bool)
	}
	e[action][state] = true
}

type Node struct {
	Key    string `json:"key"`
	Visits int    `json:"visits"`
	// an action can lead to many states when the medium changes on its own
	Next edges `json:"next"`
	Prev edges `json:"prev"`
}

func newNode(key string) *Node {
	return &Node{
		Key:  key,
		Next: make(edges),
		Prev: make(edges),
	}
}

type stateGraphAnalyzer struct {
	graph *StateGraph
}

func (s *stateGraphAnalyzer) Analyze(_ int, _ string, r *EpisodeResult) {
	for i := 0; i < r.Trace.Len(); i++ {
		from, a, to, _ := r.Trace.Get(i)
		s.graph.Update(from, a, to)
	}
}

// DataSet is the *StateGraph of the run
func (s *stateGraphAnalyzer) DataSet() DataSet {
	return s.graph
}

func (s *stateGraphAnalyzer) Reset() {
	s.graph = NewStateGraph()
}

// StateGraphAnalyzer accumulates the transitions of every episode of a run
func StateGraphAnalyzer() AnalyzerConstructor {
	return func() Analyzer {
		return &stateGraphAnalyzer{graph: NewStateGraph()}
	}
}

// StateGraphComparator saves the graph of each experiment as json
func StateGraphComparator(savePath string, logger *log.Logger) Comparator {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return func(run int, s []string, ds []DataSet) {
		for i, exp := range s {
			g, ok := ds[i].(*StateGraph)
			if !ok {
				continue
			}
			logger.With(log.LogParams{
				"run":        run + 1,
				"experiment": exp,
				"states":     len(g.Nodes),
				"edges":      g.Edges(),
			}).Info("state graph")
			bs, err := json.Marshal(g)
			if err != nil {
				continue
			}
			file := path.Join(savePath, strconv.Itoa(run)+"_"+exp+"_graph.json")
			if err := util.WriteToFile(file, string(bs)); err != nil {
				logger.With(log.LogParams{"error": err, "file": file}).Warn("failed to save state graph")
			}
		}
	}
}
