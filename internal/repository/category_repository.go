package repository

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/lewtec/datasetkit/internal/domain"
)

// CategoryRepository stores one categories/{category_id}.json file per category
type CategoryRepository struct {
	fs billy.Filesystem
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(fs billy.Filesystem) *CategoryRepository {
	return &CategoryRepository{fs: fs}
}

// Add validates and writes each category
func (r *CategoryRepository) Add(ctx context.Context, categories ...*domain.Category) error {
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cat.Validate(); err != nil {
			return err
		}
		if err := WriteJSON(r.fs, entityFile(CategoryDir, cat.ID), cat); err != nil {
			return fmt.Errorf("while adding category %d: %w", cat.ID, err)
		}
	}
	return nil
}

// Get loads one category
func (r *CategoryRepository) Get(ctx context.Context, id int) (*domain.Category, error) {
	var cat domain.Category
	if err := ReadJSON(r.fs, entityFile(CategoryDir, id), &cat); err != nil {
		return nil, fmt.Errorf("while loading category %d: %w", id, err)
	}
	return &cat, nil
}

// Has reports whether the entity file exists
func (r *CategoryRepository) Has(ctx context.Context, id int) (bool, error) {
	return exists(r.fs, entityFile(CategoryDir, id))
}

// List loads the given categories, or all of them sorted by id when ids is empty
func (r *CategoryRepository) List(ctx context.Context, ids ...int) ([]*domain.Category, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, entityFile(CategoryDir, id))
	}
	if len(ids) == 0 {
		var err error
		names, err = globByID(r.fs, CategoryDir+"/*"+jsonExtension)
		if err != nil {
			return nil, err
		}
	}
	return loadAll[domain.Category](ctx, r.fs, names)
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)
