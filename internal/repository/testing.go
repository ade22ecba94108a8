package repository

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/lewtec/datasetkit/internal/domain"
)

// SetupTestFS creates an in-memory dataset directory for testing
func SetupTestFS(t *testing.T) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for _, dir := range []string{RawDir, ImageDir, AnnotationDir, CategoryDir} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return fs
}

// MustAddImages adds images and fails the test if it errors
func MustAddImages(t *testing.T, fs billy.Filesystem, images ...*domain.Image) {
	t.Helper()
	if err := NewImageRepository(fs).Add(context.Background(), images...); err != nil {
		t.Fatalf("failed to add images: %v", err)
	}
}

// MustAddAnnotations adds ground truth annotations and fails the test if it errors
func MustAddAnnotations(t *testing.T, fs billy.Filesystem, annotations ...*domain.Annotation) {
	t.Helper()
	if err := NewAnnotationRepository(fs).Add(context.Background(), annotations...); err != nil {
		t.Fatalf("failed to add annotations: %v", err)
	}
}
