package repository

import (
	"context"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/lewtec/datasetkit/internal/domain"
)

// SetRepository stores split subsets as sets/{name}.json arrays of image ids
type SetRepository struct {
	fs billy.Filesystem
}

// NewSetRepository creates a new SetRepository
func NewSetRepository(fs billy.Filesystem) *SetRepository {
	return &SetRepository{fs: fs}
}

func (r *SetRepository) file(name domain.SetName) string {
	return path.Join(SetDir, string(name)+jsonExtension)
}

// Save writes the image ids of a set
func (r *SetRepository) Save(ctx context.Context, name domain.SetName, imageIDs []int) error {
	if imageIDs == nil {
		imageIDs = []int{}
	}
	if err := WriteJSON(r.fs, r.file(name), imageIDs); err != nil {
		return fmt.Errorf("while saving set '%s': %w", name, err)
	}
	return nil
}

// Load reads the image ids of a set
func (r *SetRepository) Load(ctx context.Context, name domain.SetName) ([]int, error) {
	var ids []int
	if err := ReadJSON(r.fs, r.file(name), &ids); err != nil {
		return nil, fmt.Errorf("while loading set '%s': %w", name, err)
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

// Exists reports whether any set file was written
func (r *SetRepository) Exists(ctx context.Context) (bool, error) {
	for _, name := range domain.SetNames {
		_, err := r.fs.Stat(r.file(name))
		if err == nil {
			return true, nil
		}
	}
	return false, nil
}

var _ domain.SetRepository = (*SetRepository)(nil)
