package types

import (
	"os"
	"path"
	"strconv"

	"github.com/zeu5/rl-route-finder/log"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SeriesAnalyzer records one value per episode
type SeriesAnalyzer struct {
	series []float64
	value  func(*EpisodeResult) float64
}

var _ Analyzer = &SeriesAnalyzer{}

func NewSeriesAnalyzer(value func(*EpisodeResult) float64) *SeriesAnalyzer {
	return &SeriesAnalyzer{
		series: make([]float64, 0),
		value:  value,
	}
}

func (s *SeriesAnalyzer) Analyze(_ int, _ string, r *EpisodeResult) {
	s.series = append(s.series, s.value(r))
}

// DataSet is a []float64 indexed by episode
func (s *SeriesAnalyzer) DataSet() DataSet {
	out := make([]float64, len(s.series))
	copy(out, s.series)
	return out
}

func (s *SeriesAnalyzer) Reset() {
	s.series = make([]float64, 0)
}

// EpisodeLength records the number of actions of every episode
func EpisodeLength() AnalyzerConstructor {
	return func() Analyzer {
		return NewSeriesAnalyzer(func(r *EpisodeResult) float64 {
			return float64(r.Trace.Len())
		})
	}
}

// EpisodeReward records the total reward collected in every episode
func EpisodeReward() AnalyzerConstructor {
	return func() Analyzer {
		return NewSeriesAnalyzer(func(r *EpisodeResult) float64 {
			return r.Trace.TotalReward()
		})
	}
}

// GoalRate records the fraction of episodes that reached the goal so far
func GoalRate() AnalyzerConstructor {
	return func() Analyzer {
		reached, total := 0, 0
		a := NewSeriesAnalyzer(func(r *EpisodeResult) float64 {
			total += 1
			if r.Outcome == GoalReached {
				reached += 1
			}
			return float64(reached) / float64(total)
		})
		return &resettable{Analyzer: a, reset: func() { reached, total = 0, 0 }}
	}
}

// PureCoverage records the number of distinct states visited so far
func PureCoverage() AnalyzerConstructor {
	return func() Analyzer {
		uniqueStates := make(map[string]bool)
		a := NewSeriesAnalyzer(func(r *EpisodeResult) float64 {
			for j := 0; j < r.Trace.Len(); j++ {
				s, _, ns, _ := r.Trace.Get(j)
				uniqueStates[s.Hash()] = true
				uniqueStates[ns.Hash()] = true
			}
			return float64(len(uniqueStates))
		})
		return &resettable{Analyzer: a, reset: func() { uniqueStates = make(map[string]bool) }}
	}
}

// MonitorAnalyzer counts the episodes satisfying the monitor so far
func MonitorAnalyzer(m *Monitor) AnalyzerConstructor {
	return func() Analyzer {
		satisfied := 0
		a := NewSeriesAnalyzer(func(r *EpisodeResult) float64 {
			if _, ok := m.Check(r.Trace); ok {
				satisfied += 1
			}
			return float64(satisfied)
		})
		return &resettable{Analyzer: a, reset: func() { satisfied = 0 }}
	}
}

type resettable struct {
	Analyzer
	reset func()
}

func (r *resettable) Reset() {
	r.Analyzer.Reset()
	r.reset()
}

// SeriesPlotter draws one line per experiment of the per episode series
func SeriesPlotter(plotPath, name, yLabel string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
			log.With(log.LogParams{"error": err, "path": plotPath}).Warn("failed to create plot folder")
		}
	}
	return func(run int, s []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = yLabel
		for i := 0; i < len(s); i++ {
			series, ok := ds[i].([]float64)
			if !ok || len(series) == 0 {
				continue
			}
			points := make(plotter.XYs, len(series))
			for j, v := range series {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(s[i], line)
		}
		file := path.Join(plotPath, strconv.Itoa(run)+"_"+name+".png")
		if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
			log.With(log.LogParams{"error": err, "file": file}).Warn("failed to save plot")
		}
	}
}

// SummaryComparator logs the mean and standard deviation of every experiment's series
func SummaryComparator(name string, logger *log.Logger) Comparator {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return func(run int, s []string, ds []DataSet) {
		for i := 0; i < len(s); i++ {
			series, ok := ds[i].([]float64)
			if !ok || len(series) == 0 {
				continue
			}
			mean, std := stat.MeanStdDev(series, nil)
			logger.With(log.LogParams{
				"run":        run + 1,
				"experiment": s[i],
				"analysis":   name,
				"mean":       mean,
				"std":        std,
				"last":       series[len(series)-1],
			}).Info("summary")
		}
	}
}

// Comparators fans the datasets out to every comparator
func Comparators(cs ...Comparator) Comparator {
	return func(run int, s []string, ds []DataSet) {
		for _, c := range cs {
			c(run, s, ds)
		}
	}
}
