package dataset

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// YOLOSupercategory is the supercategory of imported YOLO classes
const YOLOSupercategory = "object"

// LoadClassNames reads YOLO class names from a YAML file. The names may be a
// top-level list or live under a names key as a list or an index map. The
// result maps the zero-based class index to its name.
func LoadClassNames(fs afero.Fs, path string) (map[int]string, error) {
	var doc yaml.Node
	if err := fileio.LoadYAML(fs, path, &doc); err != nil {
		return nil, err
	}
	names := map[int]string{}
	var asList struct {
		Names []string `yaml:"names"`
	}
	var asMap struct {
		Names map[int]string `yaml:"names"`
	}
	var bare []string
	switch {
	case doc.Decode(&asList) == nil && len(asList.Names) > 0:
		for i, n := range asList.Names {
			names[i] = n
		}
	case doc.Decode(&asMap) == nil && len(asMap.Names) > 0:
		names = asMap.Names
	case doc.Decode(&bare) == nil && len(bare) > 0:
		for i, n := range bare {
			names[i] = n
		}
	default:
		return nil, fmt.Errorf("%w: no class names in %s", domain.ErrInvalidValue, path)
	}
	return names, nil
}

type labelFile struct {
	path    string
	imageID int
}

func listLabelFiles(fs afero.Fs, labelDir string) ([]labelFile, error) {
	paths, err := fileio.ListFiles(fs, labelDir, false)
	if err != nil {
		return nil, err
	}
	var files []labelFile
	for _, path := range paths {
		base := filepath.Base(path)
		if filepath.Ext(base) != ".txt" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(base, ".txt"))
		if err != nil {
			return nil, fmt.Errorf("%w: label file '%s' is not named after an image id", domain.ErrInvalidValue, base)
		}
		files = append(files, labelFile{path: path, imageID: id})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].imageID < files[j].imageID })
	return files, nil
}

// parseYOLOLine converts one normalized label line into an annotation in
// pixel space
func parseYOLOLine(line string, annID, imageID, width, height int) (*domain.Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: expected a class and at least 4 coordinates, got %d values", domain.ErrInvalidValue, len(fields))
	}
	class, err := strconv.Atoi(fields[0])
	if err != nil || class < 0 {
		return nil, fmt.Errorf("%w: class '%s'", domain.ErrInvalidValue, fields[0])
	}
	coords := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: coordinate '%s'", domain.ErrInvalidValue, f)
		}
		coords[i] = v
	}
	w, h := float64(width), float64(height)
	if len(coords) == 4 {
		cx, cy, bw, bh := coords[0]*w, coords[1]*h, coords[2]*w, coords[3]*h
		return domain.NewObjectDetection(annID, imageID, class+1, []float64{cx - bw/2, cy - bh/2, bw, bh})
	}
	if len(coords)%2 != 0 || len(coords) < 6 {
		return nil, fmt.Errorf("%w: polygon needs an even number of coordinates and at least 3 points, got %d", domain.ErrInvalidValue, len(coords))
	}
	polygon := make([]float64, len(coords))
	for i, v := range coords {
		if i%2 == 0 {
			polygon[i] = v * w
		} else {
			polygon[i] = v * h
		}
	}
	rle, err := domain.PolygonToRLE(polygon, width, height)
	if err != nil {
		return nil, err
	}
	return domain.NewSegmentation(annID, imageID, class+1, domain.PolygonBBox(polygon), domain.RLESegmentation(rle), float64(rle.Area()))
}

// FromYOLO creates the dataset name from YOLO label files. Only the object
// detection task is supported. Each labelDir/{image_id}.txt is matched with
// the image of the same stem in imageDir, which is then copied to raw/.
func FromYOLO(ctx context.Context, name string, task domain.Task, labelDir, imageDir, classesPath, rootDir string, opts ...Option) (*Dataset, error) {
	if task != domain.TaskObjectDetection {
		return nil, fmt.Errorf("%w: YOLO import of task '%s' is not supported", domain.ErrInvalidValue, task)
	}
	d, err := openAbsent(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	names, err := LoadClassNames(d.files, classesPath)
	if err != nil {
		return nil, err
	}
	files, err := listLabelFiles(d.files, labelDir)
	if err != nil {
		return nil, err
	}
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	d.emit(hook.ImportStart, hook.Payload{Format: "YOLO", Path: labelDir, Total: len(files)})

	classes := make([]int, 0, len(names))
	for class := range names {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	for _, class := range classes {
		cat, err := domain.NewCategory(class+1, names[class], YOLOSupercategory)
		if err != nil {
			return nil, err
		}
		if err := d.AddCategories(ctx, cat); err != nil {
			return nil, err
		}
	}

	annID := 0
	for _, lf := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imgPath, err := findImage(d.files, imageDir, strconv.Itoa(lf.imageID))
		if err != nil {
			return nil, err
		}
		width, height, err := ImageSize(d.files, imgPath)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(imageDir, imgPath)
		if err != nil {
			return nil, err
		}
		img, err := domain.NewImage(lf.imageID, filepath.ToSlash(rel), width, height, "")
		if err != nil {
			return nil, err
		}
		if err := d.AddImages(ctx, img); err != nil {
			return nil, err
		}

		annotations, err := readYOLOLabels(d.files, lf, &annID, width, height)
		if err != nil {
			return nil, err
		}
		if err := d.AddAnnotations(ctx, annotations...); err != nil {
			return nil, err
		}
		d.log.WithFields(logrus.Fields{"image_id": lf.imageID, "annotations": len(annotations)}).Debug("imported YOLO labels")
	}

	if err := d.copyRaw(imageDir); err != nil {
		return nil, err
	}
	d.emit(hook.ImportEnd, hook.Payload{Format: "YOLO", Total: len(files)})
	return d, nil
}

func readYOLOLabels(fs afero.Fs, lf labelFile, annID *int, width, height int) ([]*domain.Annotation, error) {
	f, err := fs.Open(lf.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var annotations []*domain.Annotation
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		*annID++
		ann, err := parseYOLOLine(line, *annID, lf.imageID, width, height)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", lf.path, lineNo, err)
		}
		annotations = append(annotations, ann)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("while reading '%s': %w", lf.path, err)
	}
	return annotations, nil
}
