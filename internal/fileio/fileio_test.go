package fileio

import (
	"errors"
	"testing"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func TestJSONAndYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := map[string]any{"a": 1.0, "b": []any{"x", "y"}}

	require.NoError(t, SaveJSON(fs, "/out/dir/data.json", in, true))
	var out map[string]any
	require.NoError(t, LoadJSON(fs, "/out/dir/data.json", &out))
	assert.Equal(t, in, out)

	require.NoError(t, SaveYAML(fs, "/out/data.yaml", map[string]int{"nc": 2}, true))
	var yout map[string]int
	require.NoError(t, LoadYAML(fs, "/out/data.yaml", &yout))
	assert.Equal(t, 2, yout["nc"])

	err := LoadJSON(fs, "/missing.json", &out)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = LoadYAML(fs, "/missing.yaml", &out)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCopyFilesToDirectory(t *testing.T) {
	t.Run("directory tree", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/src/a.png": "a", "/src/sub/b.png": "b"})
		require.NoError(t, CopyFilesToDirectory(fs, []string{"/src"}, "/dst", true))
		data, err := afero.ReadFile(fs, "/dst/sub/b.png")
		require.NoError(t, err)
		assert.Equal(t, "b", string(data))
		assert.True(t, Exists(fs, "/dst/a.png"))
	})

	t.Run("single file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/src/a.png": "a"})
		require.NoError(t, CopyFilesToDirectory(fs, []string{"/src/a.png"}, "/dst", true))
		assert.True(t, Exists(fs, "/dst/a.png"))
	})

	t.Run("file list keeps relative paths", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/src/x/a.png": "a", "/src/y/b.png": "b"})
		require.NoError(t, CopyFilesToDirectory(fs, []string{"/src/x/a.png", "/src/y/b.png"}, "/dst", true))
		assert.True(t, Exists(fs, "/dst/x/a.png"))
		assert.True(t, Exists(fs, "/dst/y/b.png"))
	})

	t.Run("destination must be a directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/src/a.png": "a"})
		err := CopyFilesToDirectory(fs, []string{"/src/a.png"}, "/dst/out.png", true)
		assert.True(t, errors.Is(err, domain.ErrInvalidValue))
	})

	t.Run("missing destination without createDir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFiles(t, fs, map[string]string{"/src/a.png": "a"})
		err := CopyFilesToDirectory(fs, []string{"/src/a.png"}, "/nowhere", false)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("missing source", func(t *testing.T) {
		err := CopyFilesToDirectory(afero.NewMemMapFs(), []string{"/src"}, "/dst", true)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestFileExtensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/imgs/a.PNG": "", "/imgs/b.png": "", "/mixed/a.jpg": "", "/mixed/b.txt": ""})

	ext, err := FileExtensions(fs, "/imgs", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"png"}, ext)

	exts, err := FileExtensions(fs, "/mixed", false)
	require.NoError(t, err)
	assert.Equal(t, []string{".jpg", ".txt"}, exts)

	_, err = FileExtensions(fs, "/mixed", true)
	assert.True(t, errors.Is(err, domain.ErrInvalidValue))
}

func TestImageAndVideoFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/d/a.jpg": "", "/d/sub/b.tiff": "", "/d/c.mp4": "", "/d/notes.txt": ""})

	images, err := ImageFiles(fs, "/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/a.jpg", "/d/sub/b.tiff"}, images)

	videos, err := VideoFiles(fs, "/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"/d/c.mp4"}, videos)
}

func TestHashFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/a": "abc", "/b": "abc", "/c": "abd"})
	hash, err := HashFile(fs, "/a")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)
	assert.True(t, SameContent(fs, "/a", "/b"))
	assert.False(t, SameContent(fs, "/a", "/c"))
	assert.False(t, SameContent(fs, "/a", "/missing"))
}

func TestZipRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/in/data/a.txt": "A", "/in/data/sub/b.txt": "B", "/in/c.txt": "C"})

	require.NoError(t, Zip(fs, []string{"/in/data", "/in/c.txt"}, "/out.zip"))
	require.NoError(t, Unzip(fs, "/out.zip", "/extracted", true))

	for name, want := range map[string]string{
		"/extracted/data/a.txt":     "A",
		"/extracted/data/sub/b.txt": "B",
		"/extracted/c.txt":          "C",
	} {
		got, err := afero.ReadFile(fs, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got))
	}

	t.Run("missing input removes the archive", func(t *testing.T) {
		err := Zip(fs, []string{"/in/c.txt", "/in/nope"}, "/bad.zip")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.False(t, Exists(fs, "/bad.zip"))
	})
}

func TestRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{"/d/a": "", "/d/e/b": ""})
	require.NoError(t, RemoveFile(fs, "/d/a"))
	assert.True(t, errors.Is(RemoveFile(fs, "/d/a"), domain.ErrNotFound))
	require.NoError(t, RemoveDirectory(fs, "/d"))
	assert.False(t, Exists(fs, "/d/e/b"))
	assert.True(t, errors.Is(RemoveDirectory(fs, "/d"), domain.ErrNotFound))
}
