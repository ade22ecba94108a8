package dataset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/fileio"
	"github.com/spf13/afero"
)

func openImage(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.Open(path)
	if err != nil {
		if fileio.Exists(fs, path) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return f, nil
}

// DecodeImage fully decodes an image file, honoring EXIF orientation
func DecodeImage(fs afero.Fs, path string) (image.Image, error) {
	f, err := openImage(fs, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("while decoding '%s': %w", path, err)
	}
	return img, nil
}

// ImageSize reads the pixel size of an image from its header
func ImageSize(fs afero.Fs, path string) (int, int, error) {
	f, err := openImage(fs, path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		img, decodeErr := DecodeImage(fs, path)
		if decodeErr != nil {
			return 0, 0, fmt.Errorf("while checking if '%s' is an image: %w", path, err)
		}
		b := img.Bounds()
		return b.Dx(), b.Dy(), nil
	}
	return cfg.Width, cfg.Height, nil
}

// findImage resolves the image named stem inside dir among the supported
// image extensions
func findImage(fs afero.Fs, dir, stem string) (string, error) {
	for _, ext := range fileio.ImageExtensions {
		for _, candidate := range []string{ext, strings.ToUpper(ext)} {
			path := filepath.Join(dir, stem+candidate)
			if fileio.Exists(fs, path) {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no image named '%s' in %s", domain.ErrNotFound, stem, dir)
}
