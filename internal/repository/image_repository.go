package repository

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/lewtec/datasetkit/internal/domain"
)

// ImageRepository stores one images/{image_id}.json file per image
type ImageRepository struct {
	fs billy.Filesystem
}

// NewImageRepository creates a new ImageRepository over a dataset directory
func NewImageRepository(fs billy.Filesystem) *ImageRepository {
	return &ImageRepository{fs: fs}
}

// Add validates and writes each image
func (r *ImageRepository) Add(ctx context.Context, images ...*domain.Image) error {
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := img.Validate(); err != nil {
			return err
		}
		if err := WriteJSON(r.fs, entityFile(ImageDir, img.ID), img); err != nil {
			return fmt.Errorf("while adding image %d: %w", img.ID, err)
		}
	}
	return nil
}

// Get loads one image
func (r *ImageRepository) Get(ctx context.Context, id int) (*domain.Image, error) {
	var img domain.Image
	if err := ReadJSON(r.fs, entityFile(ImageDir, id), &img); err != nil {
		return nil, fmt.Errorf("while loading image %d: %w", id, err)
	}
	return &img, nil
}

// Has reports whether the entity file exists
func (r *ImageRepository) Has(ctx context.Context, id int) (bool, error) {
	return exists(r.fs, entityFile(ImageDir, id))
}

// List loads the given images, or all of them sorted by id when ids is empty
func (r *ImageRepository) List(ctx context.Context, ids ...int) ([]*domain.Image, error) {
	if len(ids) > 0 {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = entityFile(ImageDir, id)
		}
		return loadAll[domain.Image](ctx, r.fs, names)
	}
	names, err := globByID(r.fs, ImageDir+"/*"+jsonExtension)
	if err != nil {
		return nil, err
	}
	return loadAll[domain.Image](ctx, r.fs, names)
}

// Ensure ImageRepository implements domain.ImageRepository
var _ domain.ImageRepository = (*ImageRepository)(nil)
