package visualize

import (
	"path/filepath"
	"testing"

	"github.com/lewtec/datasetkit/dataset"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotScatter(t *testing.T) {
	dir := t.TempDir()
	data := [][]float64{{0, 1}, {1, 2}, {2, 0}, {3, 3}}

	t.Run("2d with names", func(t *testing.T) {
		out := filepath.Join(dir, "scatter.png")
		require.NoError(t, PlotScatter(out, data, []int{0, 1, 0, 1}, Options{Title: "points", Names: []string{"a", "b"}}))
		assert.FileExists(t, out)
	})
	t.Run("1d without categories", func(t *testing.T) {
		out := filepath.Join(dir, "scatter1d.svg")
		require.NoError(t, PlotScatter(out, [][]float64{{1}, {2}, {3}}, nil, Options{}))
		assert.FileExists(t, out)
	})
	t.Run("names mismatch", func(t *testing.T) {
		err := PlotScatter(filepath.Join(dir, "x.png"), data, []int{0, 1, 0, 1}, Options{Names: []string{"a"}})
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	})
	t.Run("ragged data", func(t *testing.T) {
		err := PlotScatter(filepath.Join(dir, "x.png"), [][]float64{{1, 2}, {3}}, nil, Options{})
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	})
	t.Run("too many dimensions", func(t *testing.T) {
		err := PlotScatter(filepath.Join(dir, "x.png"), [][]float64{{1, 2, 3, 4}}, nil, Options{})
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	})
}

func TestPlotBarAndLine(t *testing.T) {
	dir := t.TempDir()
	data := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	names := []string{"train", "val"}

	for name, fn := range map[string]func(string, [][]float64, []int, Options) error{
		"bar":  PlotBar,
		"line": PlotLine,
	} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name+".png")
			require.NoError(t, fn(out, data, nil, Options{Names: names, Title: name}))
			assert.FileExists(t, out)

			err := fn(out, data, []int{0, 1}, Options{})
			require.ErrorIs(t, err, domain.ErrInvalidValue)
			err = fn(out, data, nil, Options{Names: []string{"only"}})
			require.ErrorIs(t, err, domain.ErrInvalidValue)
		})
	}
}

func TestPlotCategoryHistogram(t *testing.T) {
	out := filepath.Join(t.TempDir(), "histogram.png")
	stats := &dataset.Stats{Categories: []dataset.CategoryCount{
		{CategoryID: 1, Name: "cat", Count: 3},
		{CategoryID: 2, Name: "dog", Count: 5},
	}}
	require.NoError(t, PlotCategoryHistogram(out, stats, Options{Title: "categories"}))
	assert.FileExists(t, out)

	err := PlotCategoryHistogram(out, &dataset.Stats{}, Options{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
