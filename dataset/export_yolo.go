package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/afero"
)

const (
	yoloImageDir = "images"
	yoloLabelDir = "labels"
)

// yoloLabel formats a bbox as "class cx cy w h" normalized by the image size
func yoloLabel(ann *domain.Annotation, width, height int) string {
	x, y, w, h := ann.BBox[0], ann.BBox[1], ann.BBox[2], ann.BBox[3]
	fields := []float64{
		(x + w/2) / float64(width),
		(y + h/2) / float64(height),
		w / float64(width),
		h / float64(height),
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(ann.CategoryID - 1))
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return sb.String()
}

func (e *exporter) yoloDetection(ctx context.Context) error {
	var jobs []copyJob
	for _, name := range trainingSets {
		images := e.sets[name]
		if len(images) == 0 {
			continue
		}
		splitDir := filepath.Join(e.dir, string(name))
		labelDir := filepath.Join(splitDir, yoloLabelDir)
		if err := e.d.files.MkdirAll(labelDir, 0o755); err != nil {
			return err
		}
		for _, img := range images {
			annotations, err := e.d.annotations.ListForImage(ctx, img.ID)
			if err != nil {
				return err
			}
			var lines []string
			for _, ann := range annotations {
				if len(ann.BBox) != 4 || ann.CategoryID == 0 {
					continue
				}
				lines = append(lines, yoloLabel(ann, img.Width, img.Height))
			}
			content := strings.Join(lines, "\n")
			if len(lines) > 0 {
				content += "\n"
			}
			labelFile := filepath.Join(labelDir, strconv.Itoa(img.ID)+".txt")
			if err := afero.WriteFile(e.d.files, labelFile, []byte(content), 0o644); err != nil {
				return fmt.Errorf("while writing labels of image %d: %w", img.ID, err)
			}
			jobs = append(jobs, copyJob{
				imageID: img.ID,
				src:     e.rawPath(img),
				dst:     filepath.Join(splitDir, yoloImageDir, exportName(img)),
			})
		}
	}
	if err := e.copyImages(ctx, jobs); err != nil {
		return err
	}
	return e.writeDataYAML(yoloImageDir)
}

func (e *exporter) yoloClassification(ctx context.Context) error {
	var jobs []copyJob
	for _, name := range trainingSets {
		for _, img := range e.sets[name] {
			annotations, err := e.d.annotations.ListForImage(ctx, img.ID)
			if err != nil {
				return err
			}
			if len(annotations) != 1 {
				e.skip(img, fmt.Sprintf("%d annotations, classification needs exactly one", len(annotations)))
				continue
			}
			category, ok := e.categories[annotations[0].CategoryID]
			if !ok {
				e.skip(img, "annotation has no category")
				continue
			}
			jobs = append(jobs, copyJob{
				imageID: img.ID,
				src:     e.rawPath(img),
				dst:     filepath.Join(e.dir, string(name), category.Name, exportName(img)),
			})
		}
	}
	if err := e.copyImages(ctx, jobs); err != nil {
		return err
	}
	return e.writeDataYAML("")
}
