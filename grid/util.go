package grid

import (
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/types"
	"github.com/zeu5/rl-route-finder/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// GridDataSet counts the visits of every cell, across all grids
type GridDataSet struct {
	Visits map[int]map[int]int
	Height int
	Width  int
}

var _ plotter.GridXYZ = &GridDataSet{}

func (g *GridDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *GridDataSet) Z(c, r int) float64 {
	return float64(g.Visits[r][c])
}

func (g *GridDataSet) X(c int) float64 {
	return float64(c)
}

func (g *GridDataSet) Y(r int) float64 {
	return float64(r)
}

func (g *GridDataSet) Min() float64 {
	return 0.0
}

func (g *GridDataSet) Max() float64 {
	max := 0
	for _, vals := range g.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

func (g *GridDataSet) visit(p Position) {
	if _, ok := g.Visits[p.I]; !ok {
		g.Visits[p.I] = make(map[int]int)
	}
	g.Visits[p.I][p.J] += 1
}

func newGridDataSet(height, width int) *GridDataSet {
	return &GridDataSet{
		Visits: make(map[int]map[int]int),
		Height: height,
		Width:  width,
	}
}

// MergeGridDatasets sums the visits of the datasets
func MergeGridDatasets(dataSets []types.DataSet) *GridDataSet {
	merged := newGridDataSet(0, 0)
	for _, d := range dataSets {
		dGrid, ok := d.(*GridDataSet)
		if !ok {
			continue
		}
		merged.Height = max(merged.Height, dGrid.Height)
		merged.Width = max(merged.Width, dGrid.Width)
		for i, vals := range dGrid.Visits {
			if _, ok := merged.Visits[i]; !ok {
				merged.Visits[i] = make(map[int]int)
			}
			for j, visits := range vals {
				merged.Visits[i][j] += visits
			}
		}
	}
	return merged
}

type visitsAnalyzer struct {
	env     *GridEnvironment
	dataSet *GridDataSet
}

// VisitsAnalyzer counts the cells visited by the training episodes
func VisitsAnalyzer(env *GridEnvironment) types.AnalyzerConstructor {
	return func() types.Analyzer {
		return &visitsAnalyzer{
			env:     env,
			dataSet: newGridDataSet(env.Height, env.Width),
		}
	}
}

func (v *visitsAnalyzer) Analyze(_ int, _ string, r *types.EpisodeResult) {
	for i := 0; i < r.Trace.Len(); i++ {
		_, _, next, _ := r.Trace.Get(i)
		if p, ok := next.(Position); ok {
			v.dataSet.visit(p)
		}
	}
}

func (v *visitsAnalyzer) DataSet() types.DataSet {
	return MergeGridDatasets([]types.DataSet{v.dataSet})
}

func (v *visitsAnalyzer) Reset() {
	v.dataSet = newGridDataSet(v.env.Height, v.env.Width)
}

// GridPlotComparator saves the visits of every experiment as json and as a heat map
func GridPlotComparator(figPath string) types.Comparator {
	return func(run int, s []string, ds []types.DataSet) {
		for i := 0; i < len(s); i++ {
			dataSet, ok := ds[i].(*GridDataSet)
			if !ok {
				continue
			}
			prefix := path.Join(figPath, strconv.Itoa(run)+"_"+s[i]+"_visits")
			if err := saveVisits(prefix, s[i], dataSet); err != nil {
				log.With(log.LogParams{"error": err, "experiment": s[i]}).Warn("failed to save visits")
			}
		}
	}
}

func saveVisits(prefix, name string, dataSet *GridDataSet) error {
	bs, err := json.Marshal(dataSet)
	if err != nil {
		return err
	}
	if err := util.WriteToFile(prefix+".json", string(bs)); err != nil {
		return err
	}
	if dataSet.Height == 0 || dataSet.Width == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s visits", name)
	p.Add(plotter.NewHeatMap(dataSet, palette.Heat(20, 1)))
	return p.Save(4*vg.Inch, 4*vg.Inch, prefix+".png")
}
