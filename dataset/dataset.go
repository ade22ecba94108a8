// Package dataset stores computer vision datasets as plain JSON files and
// converts them from and to the COCO and YOLO layouts.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/lewtec/datasetkit/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultRootDir is used when a dataset is created without a root directory
const DefaultRootDir = "datasets"

var requiredDirs = []string{
	repository.RawDir,
	repository.ImageDir,
	repository.AnnotationDir,
	repository.CategoryDir,
}

// Dataset is a handle on the directory RootDir/Name
type Dataset struct {
	Name    string
	RootDir string

	fs          billy.Filesystem
	files       afero.Fs
	images      *repository.ImageRepository
	categories  *repository.CategoryRepository
	annotations *repository.AnnotationRepository
	predictions *repository.AnnotationRepository
	sets        *repository.SetRepository

	log  logrus.FieldLogger
	hook *hook.Hook
	jobs int
}

// Option customizes a Dataset handle
type Option func(*Dataset)

// WithLogger replaces the standard logrus logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Dataset) { d.log = log }
}

// WithHook replaces the default hook
func WithHook(h *hook.Hook) Option {
	return func(d *Dataset) { d.hook = h }
}

// WithFiles sets the filesystem holding import sources, raw images and exports
func WithFiles(fs afero.Fs) Option {
	return func(d *Dataset) { d.files = fs }
}

// WithJobs bounds the number of concurrent image copies during exports
func WithJobs(n int) Option {
	return func(d *Dataset) {
		if n > 0 {
			d.jobs = n
		}
	}
}

func open(name, rootDir string, opts []Option) (*Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty dataset name", domain.ErrInvalidValue)
	}
	if rootDir == "" {
		rootDir = DefaultRootDir
	}
	d := &Dataset{
		Name:    name,
		RootDir: rootDir,
		files:   afero.NewOsFs(),
		log:     logrus.StandardLogger(),
		jobs:    4,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hook == nil {
		d.hook = &hook.Hook{}
	}
	d.log = d.log.WithField("dataset", name)
	d.fs = osfs.New(d.Dir())
	d.images = repository.NewImageRepository(d.fs)
	d.categories = repository.NewCategoryRepository(d.fs)
	d.annotations = repository.NewAnnotationRepository(d.fs)
	d.predictions = repository.NewPredictionRepository(d.fs)
	d.sets = repository.NewSetRepository(d.fs)
	return d, nil
}

// New creates and initializes a dataset. It fails with domain.ErrAlreadyExists
// when the directory is already an initialized dataset.
func New(name, rootDir string, opts ...Option) (*Dataset, error) {
	d, err := open(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	if d.Initialized() {
		return nil, fmt.Errorf("%w: dataset '%s' in %s", domain.ErrAlreadyExists, name, d.RootDir)
	}
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// openAbsent returns an uninitialized handle, failing with
// domain.ErrAlreadyExists when name is initialized
func openAbsent(name, rootDir string, opts []Option) (*Dataset, error) {
	d, err := open(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	if d.Initialized() {
		return nil, fmt.Errorf("%w: dataset '%s' in %s", domain.ErrAlreadyExists, name, d.RootDir)
	}
	return d, nil
}

// Load opens an initialized dataset
func Load(name, rootDir string, opts ...Option) (*Dataset, error) {
	d, err := open(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	if !d.Initialized() {
		return nil, fmt.Errorf("%w: dataset '%s' in %s", domain.ErrNotFound, name, d.RootDir)
	}
	return d, nil
}

// Clone copies the initialized dataset srcName into a new dataset name
func Clone(srcName, name, srcRootDir, rootDir string, opts ...Option) (*Dataset, error) {
	src, err := Load(srcName, srcRootDir, opts...)
	if err != nil {
		return nil, err
	}
	d, err := open(name, rootDir, opts)
	if err != nil {
		return nil, err
	}
	if d.Initialized() {
		return nil, fmt.Errorf("%w: dataset '%s' in %s", domain.ErrAlreadyExists, name, d.RootDir)
	}
	d.log.WithField("source", src.Dir()).Info("cloning dataset")
	if _, err := copyTree(d.files, src.Dir(), d.Dir()); err != nil {
		return nil, fmt.Errorf("while cloning '%s': %w", srcName, err)
	}
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dataset) Dir() string {
	return filepath.Join(d.RootDir, d.Name)
}

// RawDir holds the original image files
func (d *Dataset) RawDir() string {
	return filepath.Join(d.Dir(), repository.RawDir)
}

// ExportDir holds one directory per export format
func (d *Dataset) ExportDir() string {
	return filepath.Join(d.Dir(), repository.ExportDir)
}

// Hook returns the hook events are emitted on
func (d *Dataset) Hook() *hook.Hook {
	return d.hook
}

func (d *Dataset) emit(event hook.Event, p hook.Payload) {
	p.Dataset = d.Name
	d.hook.Emit(event, p)
}

// Initialize creates the raw, images, annotations and categories directories
func (d *Dataset) Initialize() error {
	for _, dir := range requiredDirs {
		if err := d.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("while initializing '%s': %w", dir, err)
		}
	}
	return nil
}

// Initialized reports whether every required directory exists
func (d *Dataset) Initialized() bool {
	for _, dir := range requiredDirs {
		info, err := d.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

func (d *Dataset) Images(ctx context.Context, ids ...int) ([]*domain.Image, error) {
	return d.images.List(ctx, ids...)
}

func (d *Dataset) Categories(ctx context.Context, ids ...int) ([]*domain.Category, error) {
	return d.categories.List(ctx, ids...)
}

func (d *Dataset) Annotations(ctx context.Context, ids ...int) ([]*domain.Annotation, error) {
	return d.annotations.List(ctx, ids...)
}

func (d *Dataset) Predictions(ctx context.Context, ids ...int) ([]*domain.Annotation, error) {
	return d.predictions.List(ctx, ids...)
}

// ImageAnnotations returns the ground truth of one image
func (d *Dataset) ImageAnnotations(ctx context.Context, imageID int) ([]*domain.Annotation, error) {
	return d.annotations.ListForImage(ctx, imageID)
}

// LabeledImages returns the images with (labeled) or without (!labeled) any
// ground truth annotation. The annotation index is built once per call.
func (d *Dataset) LabeledImages(ctx context.Context, labeled bool) ([]*domain.Image, error) {
	index, err := d.annotations.ImageIDs(ctx)
	if err != nil {
		return nil, err
	}
	images, err := d.images.List(ctx)
	if err != nil {
		return nil, err
	}
	selected := make([]*domain.Image, 0, len(images))
	for _, img := range images {
		if _, ok := index[img.ID]; ok == labeled {
			selected = append(selected, img)
		}
	}
	return selected, nil
}

// AddImages stores images, replacing any with the same id
func (d *Dataset) AddImages(ctx context.Context, images ...*domain.Image) error {
	if err := d.images.Add(ctx, images...); err != nil {
		return err
	}
	for _, img := range images {
		d.emit(hook.ImageAdded, hook.Payload{ImageID: img.ID, Path: img.FileName})
	}
	return nil
}

func (d *Dataset) AddCategories(ctx context.Context, categories ...*domain.Category) error {
	return d.categories.Add(ctx, categories...)
}

// AddAnnotations writes ground truth. Predictions are rejected and every
// referenced image and category must already exist.
func (d *Dataset) AddAnnotations(ctx context.Context, annotations ...*domain.Annotation) error {
	for _, ann := range annotations {
		if ann.IsPrediction() {
			return fmt.Errorf("%w: annotation %d has a score, add it as a prediction", domain.ErrInvalidValue, ann.ID)
		}
	}
	if err := d.checkReferences(ctx, annotations); err != nil {
		return err
	}
	return d.annotations.Add(ctx, annotations...)
}

// AddPredictions writes scored annotations under predictions/
func (d *Dataset) AddPredictions(ctx context.Context, predictions ...*domain.Annotation) error {
	for _, ann := range predictions {
		if !ann.IsPrediction() {
			return fmt.Errorf("%w: prediction %d has no score", domain.ErrInvalidValue, ann.ID)
		}
	}
	if err := d.checkReferences(ctx, predictions); err != nil {
		return err
	}
	return d.predictions.Add(ctx, predictions...)
}

func (d *Dataset) checkReferences(ctx context.Context, annotations []*domain.Annotation) error {
	images := map[int]bool{}
	categories := map[int]bool{}
	for _, ann := range annotations {
		if err := ann.Validate(); err != nil {
			return err
		}
		ok, cached := images[ann.ImageID]
		if !cached {
			var err error
			if ok, err = d.images.Has(ctx, ann.ImageID); err != nil {
				return err
			}
			images[ann.ImageID] = ok
		}
		if !ok {
			return fmt.Errorf("%w: annotation %d references image %d", domain.ErrNotFound, ann.ID, ann.ImageID)
		}
		if ann.CategoryID == 0 {
			continue
		}
		ok, cached = categories[ann.CategoryID]
		if !cached {
			var err error
			if ok, err = d.categories.Has(ctx, ann.CategoryID); err != nil {
				return err
			}
			categories[ann.CategoryID] = ok
		}
		if !ok {
			return fmt.Errorf("%w: annotation %d references category %d", domain.ErrNotFound, ann.ID, ann.CategoryID)
		}
	}
	return nil
}

// copyRaw mirrors srcDir into raw/, leaving identical files alone
func (d *Dataset) copyRaw(srcDir string) error {
	copied, err := copyTree(d.files, srcDir, d.RawDir())
	if err != nil {
		return fmt.Errorf("while copying raw images: %w", err)
	}
	d.log.WithFields(logrus.Fields{"source": srcDir, "copied": copied}).Info("copied raw images")
	return nil
}

// copyTree copies every file of src into dst, skipping destination files
// whose sha256 already matches. It returns the number of files written.
func copyTree(fs afero.Fs, src, dst string) (int, error) {
	info, err := fs.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, src)
		}
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: '%s' is not a directory", domain.ErrInvalidValue, src)
	}
	files, err := fileio.ListFiles(fs, src, true)
	if err != nil {
		return 0, err
	}
	copied := 0
	for _, file := range files {
		rel, err := filepath.Rel(src, file)
		if err != nil {
			return copied, err
		}
		target := filepath.Join(dst, rel)
		if fileio.SameContent(fs, file, target) {
			continue
		}
		if err := fileio.CopyFile(fs, file, target, true); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}
