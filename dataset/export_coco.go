package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
)

const cocoImageDir = "images"

func (e *exporter) cocoDetection(ctx context.Context) error {
	categories := make([]cocoEntry, 0, len(e.categories))
	all, err := e.d.categories.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		entry, err := toCOCO(c, "category_id")
		if err != nil {
			return err
		}
		categories = append(categories, entry)
	}

	var jobs []copyJob
	for _, name := range domain.SetNames {
		images := e.sets[name]
		if len(images) == 0 {
			continue
		}
		out := cocoFile{
			Categories:  categories,
			Images:      make([]cocoEntry, 0, len(images)),
			Annotations: []cocoEntry{},
		}
		for _, img := range images {
			entry, err := toCOCO(img, "image_id")
			if err != nil {
				return err
			}
			out.Images = append(out.Images, entry)
			annotations, err := e.d.annotations.ListForImage(ctx, img.ID)
			if err != nil {
				return err
			}
			for _, ann := range annotations {
				entry, err := toCOCO(ann, "annotation_id")
				if err != nil {
					return err
				}
				out.Annotations = append(out.Annotations, entry)
			}
			jobs = append(jobs, copyJob{
				imageID: img.ID,
				src:     e.rawPath(img),
				dst:     filepath.Join(e.dir, cocoImageDir, filepath.FromSlash(img.FileName)),
			})
		}
		file := filepath.Join(e.dir, string(name)+".json")
		if err := fileio.SaveJSON(e.d.files, file, out, true); err != nil {
			return fmt.Errorf("while writing '%s': %w", file, err)
		}
	}
	return e.copyImages(ctx, jobs)
}
