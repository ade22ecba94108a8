package dataset

import (
	"context"
	"sort"
)

// CategoryCount is the number of ground truth annotations of one category
type CategoryCount struct {
	CategoryID int
	Name       string
	Count      int
}

type Stats struct {
	Images      int
	Labeled     int
	Annotations int
	Predictions int
	Categories  []CategoryCount
}

// Stats counts images, annotations and annotations per category
func (d *Dataset) Stats(ctx context.Context) (*Stats, error) {
	images, err := d.images.List(ctx)
	if err != nil {
		return nil, err
	}
	annotations, err := d.annotations.List(ctx)
	if err != nil {
		return nil, err
	}
	predictions, err := d.predictions.List(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := d.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[int]int{}
	labeled := map[int]struct{}{}
	for _, ann := range annotations {
		labeled[ann.ImageID] = struct{}{}
		if ann.CategoryID != 0 {
			counts[ann.CategoryID]++
		}
	}
	s := &Stats{
		Images:      len(images),
		Labeled:     len(labeled),
		Annotations: len(annotations),
		Predictions: len(predictions),
		Categories:  make([]CategoryCount, 0, len(categories)),
	}
	for _, c := range categories {
		s.Categories = append(s.Categories, CategoryCount{CategoryID: c.ID, Name: c.Name, Count: counts[c.ID]})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].CategoryID < s.Categories[j].CategoryID
	})
	return s, nil
}
