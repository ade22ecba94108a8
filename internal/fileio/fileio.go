// Package fileio holds the generic file helpers used by the dataset code and
// the CLI. Every helper works over an afero.Fs so tests can run in memory.
package fileio

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const dirPerm = 0o755

var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}
	VideoExtensions = []string{".mp4", ".avi", ".wmv", ".mov", ".flv", ".mkv", ".mpeg"}
)

func notFound(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return err
}

// MakeDirectory creates dir and its parents
func MakeDirectory(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("while creating directory '%s': %w", dir, err)
	}
	return nil
}

func RemoveFile(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil {
		return notFound(path, err)
	}
	return nil
}

// RemoveDirectory removes dir recursively. A missing dir is domain.ErrNotFound.
func RemoveDirectory(fs afero.Fs, dir string) error {
	if _, err := fs.Stat(dir); err != nil {
		return notFound(dir, err)
	}
	return fs.RemoveAll(dir)
}

func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// SaveJSON writes v as indented JSON
func SaveJSON(fs afero.Fs, path string, v any, createDir bool) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("while encoding '%s': %w", path, err)
	}
	return writeFile(fs, path, data, createDir)
}

// LoadJSON decodes the JSON file at path into v
func LoadJSON(fs afero.Fs, path string, v any) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return notFound(path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("while decoding '%s': %w", path, err)
	}
	return nil
}

func SaveYAML(fs afero.Fs, path string, v any, createDir bool) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("while encoding '%s': %w", path, err)
	}
	return writeFile(fs, path, data, createDir)
}

// LoadYAML decodes the YAML file at path into v
func LoadYAML(fs afero.Fs, path string, v any) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return notFound(path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("while decoding '%s': %w", path, err)
	}
	return nil
}

func writeFile(fs afero.Fs, path string, data []byte, createDir bool) error {
	if createDir {
		if err := MakeDirectory(fs, filepath.Dir(path)); err != nil {
			return err
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return notFound(filepath.Dir(path), err)
	}
	return nil
}

// CopyFile copies src to the file dst
func CopyFile(fs afero.Fs, src, dst string, createDir bool) error {
	in, err := fs.Open(src)
	if err != nil {
		return notFound(src, err)
	}
	defer in.Close()
	if createDir {
		if err := MakeDirectory(fs, filepath.Dir(dst)); err != nil {
			return err
		}
	}
	out, err := fs.Create(dst)
	if err != nil {
		return notFound(filepath.Dir(dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("while copying '%s' to '%s': %w", src, dst, err)
	}
	return out.Close()
}

// CopyFilesToDirectory copies sources into the directory dst. A single file
// lands directly in dst, a directory has its tree mirrored under dst and a
// list of files keeps their paths relative to their common parent.
func CopyFilesToDirectory(fs afero.Fs, sources []string, dst string, createDir bool) error {
	if filepath.Ext(dst) != "" {
		return fmt.Errorf("%w: destination '%s' should be a directory", domain.ErrInvalidValue, dst)
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: no source", domain.ErrNotFound)
	}

	var files []string
	var prefix string
	if len(sources) == 1 {
		info, err := fs.Stat(sources[0])
		if err != nil {
			return notFound(sources[0], err)
		}
		if info.IsDir() {
			prefix = sources[0]
			files, err = ListFiles(fs, sources[0], true)
			if err != nil {
				return err
			}
		} else {
			prefix = filepath.Dir(sources[0])
			files = sources
		}
	} else {
		files = sources
		prefix = commonDir(sources)
	}

	if createDir {
		if err := MakeDirectory(fs, dst); err != nil {
			return err
		}
	}
	if !Exists(fs, dst) {
		return fmt.Errorf("%w: directory '%s', set createDir to create it", domain.ErrNotFound, dst)
	}
	for _, file := range files {
		rel, err := filepath.Rel(prefix, file)
		if err != nil {
			return err
		}
		if err := CopyFile(fs, file, filepath.Join(dst, rel), true); err != nil {
			return err
		}
	}
	return nil
}

func commonDir(paths []string) string {
	prefix := filepath.Dir(filepath.Clean(paths[0]))
	for _, p := range paths[1:] {
		dir := filepath.Dir(filepath.Clean(p))
		for prefix != "." && prefix != string(filepath.Separator) &&
			dir != prefix && !strings.HasPrefix(dir, prefix+string(filepath.Separator)) {
			prefix = filepath.Dir(prefix)
		}
	}
	return prefix
}

// ListFiles returns the regular files under dir, sorted
func ListFiles(fs afero.Fs, dir string, recursive bool) ([]string, error) {
	var files []string
	if !recursive {
		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			return nil, notFound(dir, err)
		}
		for _, e := range entries {
			if e.Mode().IsRegular() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		return files, nil
	}
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return notFound(path, err)
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// FileExtensions returns the distinct lowercase extensions of the files in
// dir. With single set, the directory must hold exactly one extension, which
// is returned without its dot.
func FileExtensions(fs afero.Fs, dir string, single bool) ([]string, error) {
	files, err := ListFiles(fs, dir, false)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, f := range files {
		seen[strings.ToLower(filepath.Ext(f))] = struct{}{}
	}
	extensions := make([]string, 0, len(seen))
	for ext := range seen {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	if single {
		if len(extensions) != 1 {
			return nil, fmt.Errorf("%w: the files in %s do not have a single file extension", domain.ErrInvalidValue, dir)
		}
		return []string{strings.TrimPrefix(extensions[0], ".")}, nil
	}
	return extensions, nil
}

// HasExtension reports whether path ends in one of extensions, ignoring case
func HasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func filesWithExtensions(fs afero.Fs, dir string, extensions []string) ([]string, error) {
	files, err := ListFiles(fs, dir, true)
	if err != nil {
		return nil, err
	}
	matched := files[:0]
	for _, f := range files {
		if HasExtension(f, extensions) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func ImageFiles(fs afero.Fs, dir string) ([]string, error) {
	return filesWithExtensions(fs, dir, ImageExtensions)
}

func VideoFiles(fs afero.Fs, dir string) ([]string, error) {
	return filesWithExtensions(fs, dir, VideoExtensions)
}

// HashFile returns the hex sha256 of a file
func HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", notFound(path, err)
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// SameContent reports whether both files exist and hash the same
func SameContent(fs afero.Fs, a, b string) bool {
	ha, err := HashFile(fs, a)
	if err != nil {
		return false
	}
	hb, err := HashFile(fs, b)
	if err != nil {
		return false
	}
	return ha == hb
}
