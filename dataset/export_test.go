package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/lewtec/datasetkit/internal/hook"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, e os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"yolo_detection":      YOLODetection,
		"YOLO-CLASSIFICATION": YOLOClassification,
		"coco_detection":      COCODetection,
		"Yolo_Segmentation":   YOLOSegmentation,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pascal_voc")
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestExportBeforeSplit(t *testing.T) {
	d := newTestDataset(t)
	seedDataset(t, d, 2, 0)
	_, err := d.Export(context.Background(), YOLODetection)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportSegmentationUnsupported(t *testing.T) {
	d := newTestDataset(t)
	seedDataset(t, d, 2, 0)
	_, err := d.Split(context.Background(), SplitOptions{TrainRatio: 1})
	require.NoError(t, err)
	_, err = d.Export(context.Background(), YOLOSegmentation)
	require.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestCOCOToYOLODetection(t *testing.T) {
	ctx := context.Background()
	cocoPath, imageDir := writeCOCOSource(t, t.TempDir(), testCOCO)
	d, err := FromCOCO(ctx, "coco", cocoPath, imageDir, t.TempDir(), WithLogger(testLogger()), WithJobs(2))
	require.NoError(t, err)

	result, err := d.Split(ctx, SplitOptions{TrainRatio: 1, Seed: 0})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, result.Train)
	assert.Empty(t, result.Val)

	var exported atomic.Int32
	require.NoError(t, d.Hook().Register(&hook.Funcs{
		Name: "counter",
		Handlers: map[hook.Event]func(hook.Payload){
			hook.ImageExported: func(hook.Payload) { exported.Add(1) },
		},
	}))

	dir, err := d.Export(ctx, YOLODetection)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.ExportDir(), "YOLO_DETECTION"), dir)
	assert.EqualValues(t, 2, exported.Load())

	files := listTree(t, dir)
	assert.Equal(t, []string{
		"data.yaml",
		"train/images/1.png",
		"train/images/2.png",
		"train/labels/1.txt",
		"train/labels/2.txt",
	}, files)

	labels, err := os.ReadFile(filepath.Join(dir, "train", "labels", "1.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(labels)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0 0.2 0.3 0.2 0.2", lines[0])

	labels, err = os.ReadFile(filepath.Join(dir, "train", "labels", "2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.5 0.5 1 1\n", string(labels))

	raw, err := os.ReadFile(filepath.Join(dir, "data.yaml"))
	require.NoError(t, err)
	var data DataYAML
	require.NoError(t, yaml.Unmarshal(raw, &data))
	assert.Equal(t, map[int]string{0: "cat"}, data.Names)
	assert.Equal(t, "train/images", data.Train)
	assert.Empty(t, data.Val)
	assert.True(t, filepath.IsAbs(data.Path))

	t.Run("idempotent", func(t *testing.T) {
		stale := filepath.Join(dir, "stale.txt")
		require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
		again, err := d.Export(ctx, YOLODetection)
		require.NoError(t, err)
		assert.Equal(t, files, listTree(t, again))
	})
}

func TestExportWarnsWhenReplacing(t *testing.T) {
	ctx := context.Background()
	logger, logs := test.NewNullLogger()
	d := newTestDataset(t, WithLogger(logger))
	seedDataset(t, d, 2, 0)
	_, err := d.Split(ctx, SplitOptions{TrainRatio: 1})
	require.NoError(t, err)

	_, err = d.Export(ctx, COCODetection)
	require.NoError(t, err)
	assert.Empty(t, warnings(logs))

	_, err = d.Export(ctx, COCODetection)
	require.NoError(t, err)
	warned := warnings(logs)
	require.Len(t, warned, 1)
	assert.Equal(t, "removing previous export", warned[0].Message)
}

func warnings(logs *test.Hook) []logrus.Entry {
	var out []logrus.Entry
	for _, e := range logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, *e)
		}
	}
	return out
}

func TestYOLOClassificationSkipsMultiLabel(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	seedDataset(t, d, 3, 0)
	extra, err := domain.NewObjectDetection(100, 2, 1, []float64{1, 1, 2, 2})
	require.NoError(t, err)
	require.NoError(t, d.AddAnnotations(ctx, extra))
	_, err = d.Split(ctx, SplitOptions{TrainRatio: 1})
	require.NoError(t, err)

	var skipped []int
	require.NoError(t, d.Hook().Register(&hook.Funcs{
		Name: "skips",
		Handlers: map[hook.Event]func(hook.Payload){
			hook.ImageSkipped: func(p hook.Payload) { skipped = append(skipped, p.ImageID) },
		},
	}))

	dir, err := d.Export(ctx, YOLOClassification)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, skipped)
	assert.Equal(t, []string{"data.yaml", "train/cat/1.png", "train/cat/3.png"}, listTree(t, dir))
}

func TestCOCOExport(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	seedDataset(t, d, 2, 1)
	_, err := d.Split(ctx, SplitOptions{TrainRatio: 1})
	require.NoError(t, err)

	dir, err := d.Export(ctx, COCODetection)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"images/1.png",
		"images/2.png",
		"images/3.png",
		"train.json",
		"unlabeled.json",
	}, listTree(t, dir))

	raw, err := os.ReadFile(filepath.Join(dir, "train.json"))
	require.NoError(t, err)
	var out struct {
		Categories  []map[string]any `json:"categories"`
		Images      []map[string]any `json:"images"`
		Annotations []map[string]any `json:"annotations"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Categories, 1)
	assert.Equal(t, "cat", out.Categories[0]["name"])
	assert.Contains(t, out.Categories[0], "id")
	assert.NotContains(t, out.Categories[0], "category_id")
	require.Len(t, out.Images, 2)
	assert.Contains(t, out.Images[0], "id")
	assert.NotContains(t, out.Images[0], "image_id")
	require.Len(t, out.Annotations, 2)
	assert.Contains(t, out.Annotations[0], "id")
	assert.Contains(t, out.Annotations[0], "image_id")

	t.Run("reimport", func(t *testing.T) {
		d2, err := FromCOCO(ctx, "again", filepath.Join(dir, "train.json"), filepath.Join(dir, "images"), t.TempDir(), WithLogger(testLogger()))
		require.NoError(t, err)
		annotations, err := d2.Annotations(ctx)
		require.NoError(t, err)
		assert.Len(t, annotations, 2)
	})
}
