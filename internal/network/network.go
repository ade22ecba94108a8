// Package network downloads files from http(s) and s3 URLs.
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// S3Options points s3:// URLs at AWS or a compatible server such as MinIO
type S3Options struct {
	Endpoint     string
	Region       string
	UsePathStyle bool
}

// S3API is the subset of the S3 client used for downloads
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Downloader fetches remote files into local paths
type Downloader struct {
	HTTPClient *http.Client
	S3         S3Options
	// S3Client overrides the client built from S3 when set
	S3Client S3API
	// Progress receives the progress bar, nil hides it
	Progress io.Writer
	Log      logrus.FieldLogger
}

// NewDownloader creates a Downloader reporting progress on stderr
func NewDownloader(log logrus.FieldLogger, s3opts S3Options) *Downloader {
	return &Downloader{
		HTTPClient: http.DefaultClient,
		S3:         s3opts,
		Progress:   os.Stderr,
		Log:        log,
	}
}

// GetFileFromURL downloads rawURL into out. The body is written to a temp
// file beside out and renamed once complete.
func (d *Downloader) GetFileFromURL(ctx context.Context, rawURL, out string, createDir bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: url '%s': %v", domain.ErrInvalidValue, rawURL, err)
	}
	dir := filepath.Dir(out)
	if createDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("while creating directory '%s': %w", dir, err)
		}
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%w: directory '%s'", domain.ErrNotFound, dir)
	}

	var body io.ReadCloser
	var size int64
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		body, size, err = d.openHTTP(ctx, rawURL)
	case "s3":
		body, size, err = d.openS3(ctx, u)
	default:
		return fmt.Errorf("%w: unsupported url scheme '%s'", domain.ErrInvalidValue, u.Scheme)
	}
	if err != nil {
		return err
	}
	defer body.Close()

	d.logger().WithFields(logrus.Fields{"url": rawURL, "out": out, "size": size}).Info("downloading")
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.download", uuid.New()))
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("while creating '%s': %w", tmp, err)
	}
	var w io.Writer = f
	var bar *progressbar.ProgressBar
	if d.Progress != nil {
		bar = progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(d.Progress),
			progressbar.OptionSetDescription(filepath.Base(out)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowTotalBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		w = io.MultiWriter(f, bar)
	}
	if _, err := io.Copy(w, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("while downloading '%s': %w", rawURL, err)
	}
	if bar != nil {
		bar.Finish()
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("while moving download to '%s': %w", out, err)
	}
	return nil
}

func (d *Downloader) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

func (d *Downloader) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("while building request: %w", err)
	}
	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("while requesting '%s': %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrNotFound, rawURL)
		}
		return nil, 0, fmt.Errorf("while requesting '%s': unexpected status %s", rawURL, resp.Status)
	}
	return resp.Body, resp.ContentLength, nil
}

func (d *Downloader) openS3(ctx context.Context, u *url.URL) (io.ReadCloser, int64, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, 0, fmt.Errorf("%w: s3 url needs a bucket and a key: %s", domain.ErrInvalidValue, u)
	}
	client, err := d.s3Client(ctx)
	if err != nil {
		return nil, 0, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, 0, fmt.Errorf("while fetching s3://%s/%s: %w", bucket, key, err)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

func (d *Downloader) s3Client(ctx context.Context) (S3API, error) {
	if d.S3Client != nil {
		return d.S3Client, nil
	}
	region := d.S3.Region
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("while loading aws config: %w", err)
	}
	d.S3Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if d.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(d.S3.Endpoint)
		}
		o.UsePathStyle = d.S3.UsePathStyle
	})
	return d.S3Client, nil
}
