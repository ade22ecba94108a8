package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/lewtec/datasetkit/internal/domain"
)

func testImage(t *testing.T, id int) *domain.Image {
	t.Helper()
	img, err := domain.NewImage(id, "img.png", 100, 50, "2023-01-01 00:00:00")
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	return img
}

func TestImageRepository_Add(t *testing.T) {
	fs := SetupTestFS(t)
	repo := NewImageRepository(fs)
	ctx := context.Background()

	t.Run("writes one file per image", func(t *testing.T) {
		if err := repo.Add(ctx, testImage(t, 1), testImage(t, 2)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		for _, name := range []string{"images/1.json", "images/2.json"} {
			if _, err := fs.Stat(name); err != nil {
				t.Errorf("expected %s to exist: %v", name, err)
			}
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		img := testImage(t, 1)
		img.FileName = "other.png"
		if err := repo.Add(ctx, img); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		got, err := repo.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.FileName != "other.png" {
			t.Errorf("FileName = %v, want other.png", got.FileName)
		}
	})

	t.Run("leaves no temp file behind", func(t *testing.T) {
		entries, err := fs.ReadDir(ImageDir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("got %d entries, want 2", len(entries))
		}
	})

	t.Run("rejects invalid images", func(t *testing.T) {
		err := repo.Add(ctx, &domain.Image{ID: 0, FileName: "x.png"})
		if !errors.Is(err, domain.ErrInvalidValue) {
			t.Errorf("Add() error = %v, want ErrInvalidValue", err)
		}
	})
}

func TestImageRepository_List(t *testing.T) {
	fs := SetupTestFS(t)
	repo := NewImageRepository(fs)
	ctx := context.Background()
	MustAddImages(t, fs, testImage(t, 10), testImage(t, 2), testImage(t, 1))

	t.Run("lists everything sorted by id", func(t *testing.T) {
		images, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []int{1, 2, 10}
		if len(images) != len(want) {
			t.Fatalf("got %d images, want %d", len(images), len(want))
		}
		for i, img := range images {
			if img.ID != want[i] {
				t.Errorf("images[%d].ID = %d, want %d", i, img.ID, want[i])
			}
		}
	})

	t.Run("lists the requested ids", func(t *testing.T) {
		images, err := repo.List(ctx, 10, 1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(images) != 2 || images[0].ID != 10 || images[1].ID != 1 {
			t.Errorf("unexpected images %+v", images)
		}
	})

	t.Run("fails on missing id", func(t *testing.T) {
		_, err := repo.List(ctx, 3)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("List() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		images, err := NewImageRepository(SetupTestFS(t)).List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(images) != 0 {
			t.Errorf("got %d images, want 0", len(images))
		}
	})
}
