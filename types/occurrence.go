package types

import (
	"encoding/json"
	"path"
	"strconv"

	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/util"
)

// Occurrence names a monitor whose first satisfying episode is tracked
type Occurrence struct {
	Name    string
	Monitor *Monitor
}

type occurrenceAnalyzer struct {
	savePath    string
	occurrences []Occurrence
	first       map[string]int
}

func (o *occurrenceAnalyzer) Analyze(run int, exp string, r *EpisodeResult) {
	for _, oc := range o.occurrences {
		prefix, ok := oc.Monitor.Check(r.Trace)
		if !ok {
			continue
		}
		if _, seen := o.first[oc.Name]; seen {
			continue
		}
		o.first[oc.Name] = r.Episode
		if o.savePath == "" {
			continue
		}
		bs, err := json.Marshal(prefix)
		if err != nil {
			continue
		}
		file := path.Join(o.savePath, strconv.Itoa(run)+"_"+exp+"_"+oc.Name+"_"+strconv.Itoa(r.Episode)+".json")
		if err := util.WriteToFile(file, string(bs)); err != nil {
			log.With(log.LogParams{"error": err, "file": file}).Warn("failed to save occurrence")
		}
	}
}

// DataSet is a map[string]int from occurrence name to the first episode satisfying it
func (o *occurrenceAnalyzer) DataSet() DataSet {
	out := make(map[string]int, len(o.first))
	for k, v := range o.first {
		out[k] = v
	}
	return out
}

func (o *occurrenceAnalyzer) Reset() {
	o.first = make(map[string]int)
}

// OccurrenceAnalyzer records the first episode satisfying each monitor.
// The satisfying prefix of that episode is saved under savePath when not empty
func OccurrenceAnalyzer(savePath string, occurrences ...Occurrence) AnalyzerConstructor {
	return func() Analyzer {
		return &occurrenceAnalyzer{
			savePath:    savePath,
			occurrences: occurrences,
			first:       make(map[string]int),
		}
	}
}

// OccurrenceComparator logs the first occurrences and saves them per run
func OccurrenceComparator(savePath string, logger *log.Logger) Comparator {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return func(run int, s []string, ds []DataSet) {
		data := make(map[string]map[string]int)
		for i, exp := range s {
			first, ok := ds[i].(map[string]int)
			if !ok {
				continue
			}
			for name, episode := range first {
				logger.With(log.LogParams{
					"run":        run + 1,
					"experiment": exp,
					"occurrence": name,
					"episode":    episode,
				}).Info("first occurrence")
			}
			data[exp] = first
		}
		bs, err := json.Marshal(data)
		if err != nil {
			return
		}
		file := path.Join(savePath, strconv.Itoa(run)+"_occurrences.json")
		if err := util.WriteToFile(file, string(bs)); err != nil {
			logger.With(log.LogParams{"error": err, "file": file}).Warn("failed to save occurrences")
		}
	}
}
