package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/goccy/go-json"
	"github.com/lewtec/datasetkit/internal/domain"
)

// Directory names of the dataset layout
const (
	RawDir         = "raw"
	ImageDir       = "images"
	AnnotationDir  = "annotations"
	CategoryDir    = "categories"
	PredictionDir  = "predictions"
	SetDir         = "sets"
	ExportDir      = "exports"
	jsonExtension  = ".json"
	tempFilePrefix = ".tmp-"
)

// WriteJSON atomically replaces name with the indented JSON form of v
func WriteJSON(fs billy.Filesystem, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("while encoding '%s': %w", name, err)
	}
	return WriteFileAtomic(fs, name, data)
}

// WriteFileAtomic writes data to a temp file next to name and renames it in place
func WriteFileAtomic(fs billy.Filesystem, name string, data []byte) error {
	dir := path.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("while creating directory '%s': %w", dir, err)
	}
	f, err := util.TempFile(fs, dir, tempFilePrefix)
	if err != nil {
		return fmt.Errorf("while creating temp file for '%s': %w", name, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		fs.Remove(tmp)
		return fmt.Errorf("while writing '%s': %w", name, err)
	}
	if err := f.Close(); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("while closing '%s': %w", name, err)
	}
	if err := fs.Rename(tmp, name); err != nil {
		fs.Remove(tmp)
		return fmt.Errorf("while renaming '%s': %w", name, err)
	}
	return nil
}

// ReadJSON decodes name into v. A missing file is domain.ErrNotFound.
func ReadJSON(fs billy.Filesystem, name string, v any) error {
	data, err := util.ReadFile(fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return fmt.Errorf("while reading '%s': %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("while decoding '%s': %w", name, err)
	}
	return nil
}

func exists(fs billy.Filesystem, name string) (bool, error) {
	_, err := fs.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("while checking '%s': %w", name, err)
}

func entityFile(dir string, id int) string {
	return path.Join(dir, strconv.Itoa(id)+jsonExtension)
}

// idFromFile parses "12.json" into 12
func idFromFile(name string) (int, bool) {
	base := path.Base(name)
	if !strings.HasSuffix(base, jsonExtension) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(base, jsonExtension))
	if err != nil {
		return 0, false
	}
	return id, true
}

// globByID lists the entity files matching pattern sorted by numeric id
func globByID(fs billy.Filesystem, pattern string) ([]string, error) {
	matches, err := util.Glob(fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("while listing '%s': %w", pattern, err)
	}
	type entry struct {
		name string
		id   int
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		id, ok := idFromFile(m)
		if !ok {
			continue
		}
		entries = append(entries, entry{name: m, id: id})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].id < entries[j].id
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}

func loadAll[T any](ctx context.Context, fs billy.Filesystem, names []string) ([]*T, error) {
	items := make([]*T, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := new(T)
		if err := ReadJSON(fs, name, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
