package dataset

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
)

const cocoIDKey = "id"

type cocoEntry map[string]json.RawMessage

// cocoFile is the on-disk shape of a COCO annotation file
type cocoFile struct {
	Categories  []cocoEntry `json:"categories"`
	Images      []cocoEntry `json:"images"`
	Annotations []cocoEntry `json:"annotations"`
}

// renameKey moves entry[from] to entry[to] and returns the JSON form
func renameKey(entry cocoEntry, from, to string) ([]byte, error) {
	if v, ok := entry[from]; ok {
		delete(entry, from)
		entry[to] = v
	}
	return json.Marshal(entry)
}

// toCOCO encodes v with its canonical id key replaced by "id"
func toCOCO(v any, key string) (cocoEntry, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var entry cocoEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if id, ok := entry[key]; ok {
		delete(entry, key)
		entry[cocoIDKey] = id
	}
	return entry, nil
}

func parseCOCOEntries[T any](entries []cocoEntry, key string, parse func([]byte) (*T, error)) ([]*T, error) {
	items := make([]*T, 0, len(entries))
	for i, entry := range entries {
		data, err := renameKey(entry, cocoIDKey, key)
		if err != nil {
			return nil, err
		}
		item, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// FromCOCO creates the dataset name from a COCO annotation file and copies
// imageDir into its raw/ directory
func FromCOCO(ctx context.Context, name, cocoPath, imageDir, rootDir string, opts ...Option) (*Dataset, error) {
	d, err := openAbsent(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	var coco cocoFile
	if err := fileio.LoadJSON(d.files, cocoPath, &coco); err != nil {
		return nil, err
	}
	categories, err := parseCOCOEntries(coco.Categories, "category_id", domain.ParseCategory)
	if err != nil {
		return nil, fmt.Errorf("while reading categories: %w", err)
	}
	images, err := parseCOCOEntries(coco.Images, "image_id", domain.ParseImage)
	if err != nil {
		return nil, fmt.Errorf("while reading images: %w", err)
	}
	annotations, err := parseCOCOEntries(coco.Annotations, "annotation_id", domain.ParseAnnotation)
	if err != nil {
		return nil, fmt.Errorf("while reading annotations: %w", err)
	}

	if err := d.Initialize(); err != nil {
		return nil, err
	}
	d.emit(hook.ImportStart, hook.Payload{Format: "COCO", Path: cocoPath, Total: len(images)})
	d.log.WithFields(logrus.Fields{
		"categories":  len(categories),
		"images":      len(images),
		"annotations": len(annotations),
	}).Info("importing COCO dataset")

	if err := d.AddCategories(ctx, categories...); err != nil {
		return nil, err
	}
	if err := d.AddImages(ctx, images...); err != nil {
		return nil, err
	}
	var truth, predictions []*domain.Annotation
	for _, ann := range annotations {
		if ann.IsPrediction() {
			predictions = append(predictions, ann)
		} else {
			truth = append(truth, ann)
		}
	}
	if err := d.AddAnnotations(ctx, truth...); err != nil {
		return nil, err
	}
	if err := d.AddPredictions(ctx, predictions...); err != nil {
		return nil, err
	}
	if err := d.copyRaw(imageDir); err != nil {
		return nil, err
	}
	d.emit(hook.ImportEnd, hook.Payload{Format: "COCO", Total: len(images)})
	return d, nil
}
