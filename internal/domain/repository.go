package domain

import "context"

// ImageRepository defines the interface for image persistence
type ImageRepository interface {
	Add(ctx context.Context, images ...*Image) error
	Get(ctx context.Context, id int) (*Image, error)
	Has(ctx context.Context, id int) (bool, error)
	// List loads the given ids, or every image sorted by id when none is given
	List(ctx context.Context, ids ...int) ([]*Image, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	Add(ctx context.Context, categories ...*Category) error
	Get(ctx context.Context, id int) (*Category, error)
	Has(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, ids ...int) ([]*Category, error)
}

// AnnotationRepository defines the interface for annotation persistence.
// Ground truth and predictions use two separate instances.
type AnnotationRepository interface {
	Add(ctx context.Context, annotations ...*Annotation) error
	List(ctx context.Context, ids ...int) ([]*Annotation, error)
	ListForImage(ctx context.Context, imageID int) ([]*Annotation, error)
	// ImageIDs returns the ids of every image with at least one annotation
	ImageIDs(ctx context.Context) (map[int]struct{}, error)
}

// SetName is one of the split subsets
type SetName string

const (
	SetTrain     SetName = "train"
	SetVal       SetName = "val"
	SetTest      SetName = "test"
	SetUnlabeled SetName = "unlabeled"
)

var SetNames = []SetName{SetTrain, SetVal, SetTest, SetUnlabeled}

// SetRepository defines the interface for split set persistence
type SetRepository interface {
	Save(ctx context.Context, name SetName, imageIDs []int) error
	Load(ctx context.Context, name SetName) ([]int, error)
	// Exists reports whether any set file was written
	Exists(ctx context.Context) (bool, error)
}
