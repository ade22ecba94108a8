package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	yoloBoxLine     = "0 0.5 0.5 0.2 0.4"
	yoloPolygonLine = "1 0.1 0.1 0.5 0.1 0.5 0.5 0.1 0.5"
)

func writeYOLOSource(t *testing.T, dir string, labels map[string]string, classes string) (labelDir, imageDir, classesPath string) {
	t.Helper()
	labelDir = filepath.Join(dir, "labels")
	imageDir = filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(labelDir, 0o755))
	for name, content := range labels {
		require.NoError(t, os.WriteFile(filepath.Join(labelDir, name), []byte(content), 0o644))
		writePNG(t, filepath.Join(imageDir, strings.TrimSuffix(name, ".txt")+".png"), 100, 50)
	}
	classesPath = filepath.Join(dir, "classes.yaml")
	require.NoError(t, os.WriteFile(classesPath, []byte(classes), 0o644))
	return labelDir, imageDir, classesPath
}

func TestLoadClassNames(t *testing.T) {
	for name, content := range map[string]string{
		"list":  "names:\n  - cat\n  - dog\n",
		"map":   "names:\n  0: cat\n  1: dog\n",
		"plain": "- cat\n- dog\n",
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "classes.yaml", []byte(content), 0o644))
			names, err := LoadClassNames(fs, "classes.yaml")
			require.NoError(t, err)
			assert.Equal(t, map[int]string{0: "cat", 1: "dog"}, names)
		})
	}
	fs := afero.NewMemMapFs()
	_, err := LoadClassNames(fs, "missing.yaml")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, afero.WriteFile(fs, "empty.yaml", []byte("names: []\n"), 0o644))
	_, err = LoadClassNames(fs, "empty.yaml")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestParseYOLOLine(t *testing.T) {
	t.Run("box", func(t *testing.T) {
		ann, err := parseYOLOLine(yoloBoxLine, 1, 7, 100, 50)
		require.NoError(t, err)
		assert.Equal(t, 1, ann.CategoryID)
		assert.Equal(t, 7, ann.ImageID)
		assert.InDeltaSlice(t, []float64{40, 15, 20, 20}, ann.BBox, 1e-9)
		require.NotNil(t, ann.Area)
		assert.InDelta(t, 400, *ann.Area, 1e-9)
		assert.Nil(t, ann.Segmentation)
	})
	t.Run("polygon", func(t *testing.T) {
		ann, err := parseYOLOLine(yoloPolygonLine, 2, 7, 100, 50)
		require.NoError(t, err)
		assert.Equal(t, 2, ann.CategoryID)
		assert.InDeltaSlice(t, []float64{10, 5, 40, 20}, ann.BBox, 1e-9)
		require.NotNil(t, ann.Segmentation)
		require.NotNil(t, ann.Segmentation.RLE)
		assert.Equal(t, [2]int{50, 100}, ann.Segmentation.RLE.Size)
		require.NotNil(t, ann.Area)
		assert.InDelta(t, 800, *ann.Area, 1e-9)
	})
	for _, line := range []string{"0 0.5 0.5", "x 0.5 0.5 0.2 0.2", "0 0.1 0.1 0.2 0.2 0.3", "0 a b c d"} {
		_, err := parseYOLOLine(line, 1, 1, 10, 10)
		require.ErrorIs(t, err, domain.ErrInvalidValue, line)
	}
}

func TestFromYOLO(t *testing.T) {
	ctx := context.Background()
	labelDir, imageDir, classesPath := writeYOLOSource(t, t.TempDir(), map[string]string{
		"1.txt": yoloBoxLine + "\n" + yoloPolygonLine + "\n",
		"2.txt": "\n",
	}, "names: [cat, dog]\n")

	d, err := FromYOLO(ctx, "yolo", domain.TaskObjectDetection, labelDir, imageDir, classesPath, t.TempDir(), WithLogger(testLogger()))
	require.NoError(t, err)

	categories, err := d.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "dog", categories[1].Name)
	assert.Equal(t, YOLOSupercategory, categories[1].Supercategory)

	images, err := d.Images(ctx)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 100, images[0].Width)
	assert.Equal(t, 50, images[0].Height)

	annotations, err := d.Annotations(ctx)
	require.NoError(t, err)
	require.Len(t, annotations, 2)
	assert.Equal(t, 1, annotations[0].ID)
	assert.Equal(t, 2, annotations[1].ID)

	unlabeled, err := d.LabeledImages(ctx, false)
	require.NoError(t, err)
	require.Len(t, unlabeled, 1)
	assert.Equal(t, 2, unlabeled[0].ID)

	t.Run("bbox round trip", func(t *testing.T) {
		_, err := d.Split(ctx, SplitOptions{TrainRatio: 1})
		require.NoError(t, err)
		dir, err := d.Export(ctx, YOLODetection)
		require.NoError(t, err)
		labels, err := os.ReadFile(filepath.Join(dir, "train", "labels", "1.txt"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(labels)), "\n")
		require.Len(t, lines, 2)
		assertSameLabel(t, yoloBoxLine, lines[0])
		assertSameLabel(t, "1 0.3 0.3 0.4 0.4", lines[1])
	})
}

func assertSameLabel(t *testing.T, want, got string) {
	t.Helper()
	wantFields, gotFields := strings.Fields(want), strings.Fields(got)
	require.Len(t, gotFields, len(wantFields))
	assert.Equal(t, wantFields[0], gotFields[0])
	for i := 1; i < len(wantFields); i++ {
		w, err := strconv.ParseFloat(wantFields[i], 64)
		require.NoError(t, err)
		g, err := strconv.ParseFloat(gotFields[i], 64)
		require.NoError(t, err)
		assert.InDelta(t, w, g, 1e-9)
	}
}

func TestFromYOLOInMemory(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/labels/3.txt", []byte(yoloBoxLine+"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/labels/notes.md", []byte("ignored"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/src/classes.yaml", []byte("names: [cat]\n"), 0o644))
	writePNGTo(t, fs, "/src/images/3.PNG", 100, 50)

	d, err := FromYOLO(ctx, "yolo", domain.TaskObjectDetection, "/src/labels", "/src/images", "/src/classes.yaml", t.TempDir(),
		WithLogger(testLogger()), WithFiles(fs))
	require.NoError(t, err)

	images, err := d.Images(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "3.PNG", images[0].FileName)
	assert.Equal(t, 100, images[0].Width)

	annotations, err := d.Annotations(ctx)
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.InDeltaSlice(t, []float64{40, 15, 20, 20}, annotations[0].BBox, 1e-9)
}

func TestFromYOLOInvalid(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported task", func(t *testing.T) {
		_, err := FromYOLO(ctx, "yolo", domain.TaskSegmentation, t.TempDir(), t.TempDir(), "classes.yaml", t.TempDir())
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	})
	t.Run("label not named after an id", func(t *testing.T) {
		labelDir, imageDir, classesPath := writeYOLOSource(t, t.TempDir(), map[string]string{
			"frame.txt": yoloBoxLine,
		}, "names: [cat]\n")
		_, err := FromYOLO(ctx, "yolo", domain.TaskObjectDetection, labelDir, imageDir, classesPath, t.TempDir())
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	})
	t.Run("missing image", func(t *testing.T) {
		labelDir, imageDir, classesPath := writeYOLOSource(t, t.TempDir(), map[string]string{
			"1.txt": yoloBoxLine,
		}, "names: [cat]\n")
		require.NoError(t, os.Remove(filepath.Join(imageDir, "1.png")))
		_, err := FromYOLO(ctx, "yolo", domain.TaskObjectDetection, labelDir, imageDir, classesPath, t.TempDir())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
