package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// splits exported by the YOLO layouts, in order
var trainingSets = []domain.SetName{domain.SetTrain, domain.SetVal, domain.SetTest}

// DataYAML is the data.yaml written next to YOLO exports
type DataYAML struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Test  string         `yaml:"test"`
	Names map[int]string `yaml:"names"`
}

// exporter holds what every layout needs while writing one export
type exporter struct {
	d          *Dataset
	format     Format
	dir        string
	sets       map[domain.SetName][]*domain.Image
	categories map[int]*domain.Category
	log        logrus.FieldLogger
}

// copyJob copies one raw image into the export
type copyJob struct {
	imageID int
	src     string
	dst     string
}

// Export rebuilds exports/{format} from the current split and returns its path
func (d *Dataset) Export(ctx context.Context, format Format) (string, error) {
	if format == YOLOSegmentation {
		return "", fmt.Errorf("%w: %s export is not implemented", domain.ErrInvalidValue, format)
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}
	ok, err := d.sets.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: dataset '%s' has no split, run split first", domain.ErrNotFound, d.Name)
	}

	e := &exporter{
		d:      d,
		format: format,
		dir:    filepath.Join(d.ExportDir(), string(format)),
		sets:   map[domain.SetName][]*domain.Image{},
		log:    d.log.WithField("format", format),
	}
	if err := e.load(ctx); err != nil {
		return "", err
	}
	if fileio.Exists(d.files, e.dir) {
		e.log.WithField("dir", e.dir).Warn("removing previous export")
		if err := fileio.RemoveDirectory(d.files, e.dir); err != nil {
			return "", err
		}
	}
	if err := fileio.MakeDirectory(d.files, e.dir); err != nil {
		return "", err
	}
	d.emit(hook.ExportStart, hook.Payload{Format: string(format), Path: e.dir})

	switch format {
	case YOLODetection:
		err = e.yoloDetection(ctx)
	case YOLOClassification:
		err = e.yoloClassification(ctx)
	case COCODetection:
		err = e.cocoDetection(ctx)
	}
	if err != nil {
		return "", err
	}
	e.log.WithField("dir", e.dir).Info("exported dataset")
	d.emit(hook.ExportEnd, hook.Payload{Format: string(format), Path: e.dir})
	return e.dir, nil
}

func (e *exporter) load(ctx context.Context) error {
	for _, name := range domain.SetNames {
		ids, err := e.d.sets.Load(ctx, name)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		images, err := e.d.images.List(ctx, ids...)
		if err != nil {
			return fmt.Errorf("while loading images of set '%s': %w", name, err)
		}
		e.sets[name] = images
	}
	categories, err := e.d.categories.List(ctx)
	if err != nil {
		return err
	}
	e.categories = make(map[int]*domain.Category, len(categories))
	for _, c := range categories {
		e.categories[c.ID] = c
	}
	return nil
}

func (e *exporter) rawPath(img *domain.Image) string {
	return filepath.Join(e.d.RawDir(), filepath.FromSlash(img.FileName))
}

// exportName is the file name of an image inside the YOLO layouts
func exportName(img *domain.Image) string {
	return strconv.Itoa(img.ID) + filepath.Ext(img.FileName)
}

// copyImages runs the jobs on a bounded worker group
func (e *exporter) copyImages(ctx context.Context, jobs []copyJob) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.d.jobs)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fileio.CopyFile(e.d.files, job.src, job.dst, true); err != nil {
				return fmt.Errorf("while exporting image %d: %w", job.imageID, err)
			}
			e.d.emit(hook.ImageExported, hook.Payload{Format: string(e.format), ImageID: job.imageID, Path: job.dst})
			return nil
		})
	}
	return g.Wait()
}

func (e *exporter) skip(img *domain.Image, reason string) {
	e.log.WithFields(logrus.Fields{"image_id": img.ID, "reason": reason}).Warn("skipping image")
	e.d.emit(hook.ImageSkipped, hook.Payload{Format: string(e.format), ImageID: img.ID, Reason: reason})
}

func (e *exporter) dataYAML(sub string) DataYAML {
	data := DataYAML{Path: e.dir, Names: map[int]string{}}
	if abs, err := filepath.Abs(e.dir); err == nil {
		data.Path = abs
	}
	for id, c := range e.categories {
		data.Names[id-1] = c.Name
	}
	for _, name := range trainingSets {
		if len(e.sets[name]) == 0 {
			continue
		}
		rel := filepath.ToSlash(filepath.Join(string(name), sub))
		switch name {
		case domain.SetTrain:
			data.Train = rel
		case domain.SetVal:
			data.Val = rel
		case domain.SetTest:
			data.Test = rel
		}
	}
	return data
}

func (e *exporter) writeDataYAML(sub string) error {
	return fileio.SaveYAML(e.d.files, filepath.Join(e.dir, "data.yaml"), e.dataYAML(sub), true)
}
