package repository

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"github.com/lewtec/datasetkit/internal/domain"
)

// AnnotationRepository stores annotations nested by image:
// {dir}/{image_id}/{annotation_id}.json
type AnnotationRepository struct {
	fs  billy.Filesystem
	dir string
}

// NewAnnotationRepository creates the ground truth store
func NewAnnotationRepository(fs billy.Filesystem) *AnnotationRepository {
	return &AnnotationRepository{fs: fs, dir: AnnotationDir}
}

// NewPredictionRepository creates the prediction store, laid out like the
// ground truth one under predictions/
func NewPredictionRepository(fs billy.Filesystem) *AnnotationRepository {
	return &AnnotationRepository{fs: fs, dir: PredictionDir}
}

func (r *AnnotationRepository) file(imageID, id int) string {
	return entityFile(path.Join(r.dir, strconv.Itoa(imageID)), id)
}

// Add validates and writes each annotation, replacing any file with the same id
func (r *AnnotationRepository) Add(ctx context.Context, annotations ...*domain.Annotation) error {
	for _, ann := range annotations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ann.Validate(); err != nil {
			return err
		}
		if err := WriteJSON(r.fs, r.file(ann.ImageID, ann.ID), ann); err != nil {
			return fmt.Errorf("while adding annotation %d: %w", ann.ID, err)
		}
	}
	return nil
}

// List loads annotations by annotation id, or all of them ordered by id
func (r *AnnotationRepository) List(ctx context.Context, ids ...int) ([]*domain.Annotation, error) {
	names, err := globByID(r.fs, r.dir+"/*/*"+jsonExtension)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		byID := make(map[int]string, len(names))
		for _, name := range names {
			id, _ := idFromFile(name)
			byID[id] = name
		}
		selected := make([]string, len(ids))
		for i, id := range ids {
			name, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: %s %d", domain.ErrNotFound, r.dir, id)
			}
			selected[i] = name
		}
		names = selected
	}
	return loadAll[domain.Annotation](ctx, r.fs, names)
}

// ListForImage returns the annotations of one image, sorted by id
func (r *AnnotationRepository) ListForImage(ctx context.Context, imageID int) ([]*domain.Annotation, error) {
	names, err := globByID(r.fs, path.Join(r.dir, strconv.Itoa(imageID))+"/*"+jsonExtension)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Annotation](ctx, r.fs, names)
}

// ImageIDs scans the per-image directories once and returns the ids of those
// holding at least one annotation file
func (r *AnnotationRepository) ImageIDs(ctx context.Context) (map[int]struct{}, error) {
	ids := map[int]struct{}{}
	entries, err := r.fs.ReadDir(r.dir)
	if err != nil {
		if _, statErr := r.fs.Stat(r.dir); statErr != nil {
			return ids, nil
		}
		return nil, fmt.Errorf("while listing '%s': %w", r.dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		imageID, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		files, err := r.fs.ReadDir(path.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("while listing annotations of image %d: %w", imageID, err)
		}
		for _, f := range files {
			if _, ok := idFromFile(f.Name()); ok {
				ids[imageID] = struct{}{}
				break
			}
		}
	}
	return ids, nil
}

var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
