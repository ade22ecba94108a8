package fileio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/afero"
)

// Zip deflates files and directory trees into dst. Directories keep their
// own name as the archive root, files are stored by base name. A failed
// archive is removed.
func Zip(fs afero.Fs, sources []string, dst string) (err error) {
	out, err := fs.Create(dst)
	if err != nil {
		return notFound(filepath.Dir(dst), err)
	}
	defer func() {
		if err != nil {
			fs.Remove(dst)
		}
	}()
	w := zip.NewWriter(out)
	for _, src := range sources {
		info, statErr := fs.Stat(src)
		if statErr != nil {
			out.Close()
			return notFound(src, statErr)
		}
		if !info.IsDir() {
			if err = addToZip(fs, w, src, filepath.Base(src)); err != nil {
				out.Close()
				return err
			}
			continue
		}
		parent := filepath.Dir(filepath.Clean(src))
		files, listErr := ListFiles(fs, src, true)
		if listErr != nil {
			out.Close()
			return listErr
		}
		for _, file := range files {
			rel, _ := filepath.Rel(parent, file)
			if err = addToZip(fs, w, file, rel); err != nil {
				out.Close()
				return err
			}
		}
	}
	if err = w.Close(); err != nil {
		out.Close()
		return fmt.Errorf("while finishing '%s': %w", dst, err)
	}
	return out.Close()
}

func addToZip(fs afero.Fs, w *zip.Writer, path, name string) error {
	in, err := fs.Open(path)
	if err != nil {
		return notFound(path, err)
	}
	defer in.Close()
	entry, err := w.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(name), Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("while compressing '%s': %w", path, err)
	}
	return nil
}

// Unzip extracts src into the directory dst. Entries escaping dst are rejected.
func Unzip(fs afero.Fs, src, dst string, createDir bool) error {
	f, err := fs.Open(src)
	if err != nil {
		return notFound(src, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("while opening '%s': %w", src, err)
	}
	if createDir {
		if err := MakeDirectory(fs, dst); err != nil {
			return err
		}
	}
	root := filepath.Clean(dst)
	for _, entry := range r.File {
		target := filepath.Join(root, filepath.FromSlash(entry.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("%w: zip entry '%s' escapes '%s'", domain.ErrInvalidValue, entry.Name, dst)
		}
		if entry.FileInfo().IsDir() {
			if err := MakeDirectory(fs, target); err != nil {
				return err
			}
			continue
		}
		if err := extract(fs, entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extract(fs afero.Fs, entry *zip.File, target string) error {
	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("while reading zip entry '%s': %w", entry.Name, err)
	}
	defer in.Close()
	if err := MakeDirectory(fs, filepath.Dir(target)); err != nil {
		return err
	}
	out, err := fs.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("while extracting '%s': %w", entry.Name, err)
	}
	return out.Close()
}
