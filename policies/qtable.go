package policies

import (
	"encoding/json"
	"os"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// QTable maps (state, action) hashes to value estimates.
// Entries are created lazily with the requested default and never evicted.
// All methods are safe for concurrent use, so one table can back several policies
type QTable struct {
	lock  *sync.Mutex
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		lock:  new(sync.Mutex),
		table: make(map[string]map[string]float64),
	}
}

func (q *QTable) get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Get(state, action string, def float64) float64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.get(state, action, def)
}

func (q *QTable) Set(state, action string, val float64) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

// Apply replaces the value of (state, action) with fn applied to the current one.
// The read-modify-write is atomic with respect to other callers
func (q *QTable) Apply(state, action string, def float64, fn func(float64) float64) float64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	val := fn(q.get(state, action, def))
	q.table[state][action] = val
	return val
}

func (q *QTable) Exists(state, action string) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	actions, ok := q.table[state]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

func (q *QTable) HasState(state string) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	_, ok := q.table[state]
	return ok
}

// MaxAmong returns the index of the highest valued action among the given ones
// and its value. Ties go to the first action in the slice.
// Returns -1 and def when actions is empty
func (q *QTable) MaxAmong(state string, actions []string, def float64) (int, float64) {
	if len(actions) == 0 {
		return -1, def
	}
	q.lock.Lock()
	defer q.lock.Unlock()
	vals := make([]float64, len(actions))
	for i, a := range actions {
		vals[i] = q.get(state, a, def)
	}
	i := floats.MaxIdx(vals)
	return i, vals[i]
}

// Len is the number of (state, action) entries
func (q *QTable) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	n := 0
	for _, actions := range q.table {
		n += len(actions)
	}
	return n
}

// Snapshot returns a copy of the table
func (q *QTable) Snapshot() map[string]map[string]float64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	out := make(map[string]map[string]float64, len(q.table))
	for s, actions := range q.table {
		out[s] = make(map[string]float64, len(actions))
		for a, v := range actions {
			out[s][a] = v
		}
	}
	return out
}

func (q *QTable) Reset() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.table = make(map[string]map[string]float64)
}

// Record dumps the table as json for inspection
func (q *QTable) Record(path string) error {
	bs, err := json.Marshal(q.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0644)
}
