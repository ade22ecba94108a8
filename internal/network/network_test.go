package network

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func testDownloader() *Downloader {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	d := NewDownloader(log, S3Options{})
	d.Progress = io.Discard
	return d
}

func TestGetFileFromURL_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data.zip" {
			w.Write([]byte("payload"))
			return
		}
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()
	ctx := context.Background()

	t.Run("downloads into a new directory", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "data.zip")
		require.NoError(t, testDownloader().GetFileFromURL(ctx, srv.URL+"/data.zip", out, true))
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))

		entries, err := os.ReadDir(filepath.Dir(out))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing directory without createDir", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "nested", "data.zip")
		err := testDownloader().GetFileFromURL(ctx, srv.URL+"/data.zip", out, false)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("status errors", func(t *testing.T) {
		dir := t.TempDir()
		err := testDownloader().GetFileFromURL(ctx, srv.URL+"/missing", filepath.Join(dir, "x"), false)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		err = testDownloader().GetFileFromURL(ctx, srv.URL+"/broken", filepath.Join(dir, "x"), false)
		assert.Error(t, err)
		_, statErr := os.Stat(filepath.Join(dir, "x"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		err := testDownloader().GetFileFromURL(ctx, "ftp://host/file", filepath.Join(t.TempDir(), "x"), false)
		assert.True(t, errors.Is(err, domain.ErrInvalidValue))
	})
}

func TestGetFileFromURL_S3(t *testing.T) {
	d := testDownloader()
	d.S3Client = &fakeS3{objects: map[string]string{"bucket/path/to/labels.zip": "zipdata"}}
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "labels.zip")

	require.NoError(t, d.GetFileFromURL(ctx, "s3://bucket/path/to/labels.zip", out, false))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "zipdata", string(data))

	assert.Error(t, d.GetFileFromURL(ctx, "s3://bucket/missing", out, false))
	assert.True(t, errors.Is(d.GetFileFromURL(ctx, "s3://bucket", out, false), domain.ErrInvalidValue))
}
