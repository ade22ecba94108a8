// Package visualize draws scatter, bar and line charts into image files.
package visualize

import (
	"fmt"
	"sort"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/lewtec/datasetkit/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Options are shared by every chart. The output format follows the file
// extension (png, jpg, svg, pdf...).
type Options struct {
	Title  string
	Names  []string
	Width  vg.Length
	Height vg.Length
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Legend.Top = true
	return p
}

func save(p *plot.Plot, opts Options, out string) error {
	w, h := opts.size()
	if err := p.Save(w, h, out); err != nil {
		return fmt.Errorf("while saving plot '%s': %w", out, err)
	}
	return nil
}

// columns checks that data is a non-empty rectangular matrix and returns its
// number of columns
func columns(data [][]float64) (int, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return 0, fmt.Errorf("%w: data must be a non-empty 2D array", domain.ErrInvalidValue)
	}
	n := len(data[0])
	for i, row := range data {
		if len(row) != n {
			return 0, fmt.Errorf("%w: data must be a 2D array, row %d has %d values instead of %d", domain.ErrInvalidValue, i, len(row), n)
		}
	}
	return n, nil
}

func uniqueSorted(values []int) []int {
	seen := map[int]struct{}{}
	var unique []int
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			unique = append(unique, v)
		}
	}
	sort.Ints(unique)
	return unique
}

// PlotScatter draws 1D or 2D points colored by category. categories defaults
// to a single category; Names, when set, names each distinct category.
func PlotScatter(out string, data [][]float64, categories []int, opts Options) error {
	dims, err := columns(data)
	if err != nil {
		return err
	}
	if categories == nil {
		categories = make([]int, len(data))
	}
	if len(categories) != len(data) {
		return fmt.Errorf("%w: number of categories must be equal to number of samples (%d != %d)", domain.ErrInvalidValue, len(categories), len(data))
	}
	unique := uniqueSorted(categories)
	if opts.Names != nil && len(opts.Names) != len(unique) {
		return fmt.Errorf("%w: number of names must be equal to number of categories (%d != %d)", domain.ErrInvalidValue, len(opts.Names), len(unique))
	}
	if dims > 2 {
		return fmt.Errorf("%w: data dimension must be 1 or 2, got %d", domain.ErrInvalidValue, dims)
	}

	p := newPlot(opts)
	for i, category := range unique {
		var points plotter.XYs
		for j, row := range data {
			if categories[j] != category {
				continue
			}
			pt := plotter.XY{X: row[0]}
			if dims == 2 {
				pt.Y = row[1]
			}
			points = append(points, pt)
		}
		s, err := plotter.NewScatter(points)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(s)
		label := fmt.Sprint(category)
		if opts.Names != nil {
			label = opts.Names[i]
		}
		p.Legend.Add(label, s)
	}
	return save(p, opts, out)
}

// checkSeries validates data of shape [samples][series] against categories
// of shape [samples] and Names of shape [series]
func checkSeries(data [][]float64, categories []int, names []string) (int, error) {
	series, err := columns(data)
	if err != nil {
		return 0, err
	}
	if categories != nil && len(categories) != len(data) {
		return 0, fmt.Errorf("%w: number of categories must be equal to number of samples (%d != %d)", domain.ErrInvalidValue, len(categories), len(data))
	}
	if names != nil && len(names) != series {
		return 0, fmt.Errorf("%w: number of names must be equal to number of categories (%d != %d)", domain.ErrInvalidValue, len(names), series)
	}
	return series, nil
}

// PlotBar draws one group of bars per sample with one bar per series
func PlotBar(out string, data [][]float64, categories []int, opts Options) error {
	series, err := checkSeries(data, categories, opts.Names)
	if err != nil {
		return err
	}
	p := newPlot(opts)
	const padding = 0.1
	width := vg.Points(40 * (1 - padding) / float64(series))
	for i := 0; i < series; i++ {
		values := make(plotter.Values, len(data))
		for j, row := range data {
			values[j] = row[i]
		}
		b, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		b.Color = plotutil.Color(i)
		b.LineStyle.Width = 0
		b.Offset = width * vg.Length(float64(i)-float64(series-1)/2)
		p.Add(b)
		if opts.Names != nil {
			p.Legend.Add(opts.Names[i], b)
		}
	}
	return save(p, opts, out)
}

// PlotLine draws one line per series over the sample index
func PlotLine(out string, data [][]float64, categories []int, opts Options) error {
	series, err := checkSeries(data, categories, opts.Names)
	if err != nil {
		return err
	}
	p := newPlot(opts)
	for i := 0; i < series; i++ {
		points := make(plotter.XYs, len(data))
		for j, row := range data {
			points[j] = plotter.XY{X: float64(j), Y: row[i]}
		}
		l, err := plotter.NewLine(points)
		if err != nil {
			return err
		}
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		if opts.Names != nil {
			p.Legend.Add(opts.Names[i], l)
		}
	}
	return save(p, opts, out)
}

// PlotCategoryHistogram draws the number of annotations of every category
func PlotCategoryHistogram(out string, stats *dataset.Stats, opts Options) error {
	if len(stats.Categories) == 0 {
		return fmt.Errorf("%w: dataset has no categories", domain.ErrNotFound)
	}
	values := make(plotter.Values, len(stats.Categories))
	names := make([]string, len(stats.Categories))
	for i, c := range stats.Categories {
		values[i] = float64(c.Count)
		names[i] = c.Name
	}
	p := newPlot(opts)
	p.Y.Label.Text = "annotations"
	b, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	b.Color = plotutil.Color(0)
	p.Add(b)
	p.NominalX(names...)
	return save(p, opts, out)
}
